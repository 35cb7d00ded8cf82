package models

// DaysLeftSentinel stands in for "no foreseeable stock-out" when an item has
// no consumption history to project from.
const DaysLeftSentinel = 999

// ItemForecast is the linear-rate stock-out projection for one item.
type ItemForecast struct {
	Item      InventoryItem `json:"item"`
	DailyRate float64       `json:"dailyRate"`
	DaysLeft  int           `json:"daysLeft"`
}

// AtRisk reports whether the item is projected to run out within the
// 30-day warning horizon.
func (f ItemForecast) AtRisk() bool {
	return f.DailyRate > 0 && f.DaysLeft < 30
}
