package models

import "time"

// PaymentMethod identifies how the last subscription renewal was settled.
type PaymentMethod string

const (
	PaymentMoMo PaymentMethod = "MoMo"
	PaymentCash PaymentMethod = "Cash"
)

// Subscription is the single time-boxed license record gating app access.
type Subscription struct {
	IsActive          bool          `json:"isActive"`
	ExpiryDate        time.Time     `json:"expiryDate"`
	LastPaymentMethod PaymentMethod `json:"lastPaymentMethod"`
}

// Expired reports whether the license window has passed.
func (s Subscription) Expired(now time.Time) bool {
	return s.ExpiryDate.Before(now)
}

// OtpRecord is a pending PIN-recovery code, keyed by the contact it was sent
// to. Consumed on successful verification or left to expire.
type OtpRecord struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}
