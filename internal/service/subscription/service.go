// Package subscription tracks the time-boxed license record and its manual
// renewal flow.
package subscription

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
)

const renewalPeriod = 30 * 24 * time.Hour

// ErrInvalidRenewalCode indicates the entered code did not match the shared
// renewal secret.
var ErrInvalidRenewalCode = errors.New("invalid renewal code")

// Service guards app access behind the license record.
type Service struct {
	store       store.Store
	renewalCode string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires a subscription service. renewalCode is the shared manual
// code standing in for real payment verification.
func NewService(st store.Store, renewalCode string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, renewalCode: renewalCode, logger: logger, now: time.Now}
}

// Current returns the license record, first flipping it to inactive and
// persisting when the expiry has passed. Callers always see a record whose
// isActive flag agrees with the clock.
func (s *Service) Current() (models.Subscription, error) {
	sub, err := s.store.Subscription()
	if err != nil {
		return models.Subscription{}, fmt.Errorf("load subscription: %w", err)
	}

	if sub.Expired(s.now()) && sub.IsActive {
		sub.IsActive = false
		if err := s.store.SaveSubscription(sub); err != nil {
			return models.Subscription{}, fmt.Errorf("persist expired subscription: %w", err)
		}
		s.logger.Warn("subscription expired", zap.Time("expiry", sub.ExpiryDate))
	}
	return sub, nil
}

// Expired reports whether the license window has passed, after reconciling
// the stored record with the clock.
func (s *Service) Expired() (bool, error) {
	sub, err := s.Current()
	if err != nil {
		return false, err
	}
	return sub.Expired(s.now()), nil
}

// DaysLeft returns the whole days remaining on the license, zero or negative
// when expired.
func (s *Service) DaysLeft() (int, error) {
	sub, err := s.Current()
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(sub.ExpiryDate.Sub(s.now()).Hours() / 24)), nil
}

// Renew validates the manual code and, on match, extends the license by 30
// days from now. The record is untouched on a wrong code.
func (s *Service) Renew(code string) (models.Subscription, error) {
	if code != s.renewalCode {
		return models.Subscription{}, ErrInvalidRenewalCode
	}

	sub := models.Subscription{
		IsActive:          true,
		ExpiryDate:        s.now().Add(renewalPeriod),
		LastPaymentMethod: models.PaymentMoMo,
	}
	if err := s.store.SaveSubscription(sub); err != nil {
		return models.Subscription{}, fmt.Errorf("persist renewal: %w", err)
	}

	s.logger.Info("subscription renewed", zap.Time("new_expiry", sub.ExpiryDate))
	return sub, nil
}
