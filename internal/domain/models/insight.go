package models

// InsightItem is the reduced inventory view sent to the AI collaborator.
// Only the fields relevant to stock health are included to keep the prompt
// small.
type InsightItem struct {
	Name     string       `json:"name"`
	Quantity int          `json:"qty"`
	MinLevel int          `json:"min"`
	Category ItemCategory `json:"cat"`
	Expiry   string       `json:"exp"` // date-only, 2006-01-02
}

// InventoryInsight is the fixed-shape summary returned by the AI
// collaborator, or the degraded fallback when it is unreachable.
type InventoryInsight struct {
	Summary            string   `json:"summary"`
	UrgentActions      []string `json:"urgentActions"`
	RestockSuggestions []string `json:"restockSuggestions"`
}
