// Package auth covers registration, PIN login, the single device session and
// the OTP-gated PIN recovery flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store"
)

const (
	minPINLength = 4
	otpTTL       = 5 * time.Minute
)

var (
	// ErrInvalidCredentials is deliberately generic so callers cannot tell a
	// wrong username from a wrong PIN.
	ErrInvalidCredentials = errors.New("invalid username or PIN")
	// ErrUsernameTaken indicates a case-insensitive username collision.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPINTooShort indicates the PIN failed the minimum length check.
	ErrPINTooShort = errors.New("PIN must be at least 4 digits")
	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("role must be Admin or Staff")
	// ErrContactNotFound indicates no account matches the recovery contact.
	ErrContactNotFound = errors.New("no account found for that email or phone number")
	// ErrInvalidOtp covers absent, expired and mismatching recovery codes alike.
	ErrInvalidOtp = errors.New("invalid or expired recovery code")
)

// CodeSender delivers a one-time recovery code to a contact (phone or email).
// Production wiring uses the SMS gateway client; the fallback logs the code.
type CodeSender interface {
	SendCode(ctx context.Context, contact, code string) error
}

// Service implements the auth and recovery flows over the local store.
type Service struct {
	store  store.Store
	sender CodeSender
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires an auth service instance.
func NewService(st store.Store, sender CodeSender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, sender: sender, logger: logger, now: time.Now}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username string
	PIN      string
	Role     models.Role
	Phone    string
	Email    string
}

// Register creates a new account. Usernames collide case-insensitively and
// the PIN is stored as a bcrypt hash.
func (s *Service) Register(input RegisterInput) (models.RegisteredUser, error) {
	if strings.TrimSpace(input.Username) == "" {
		return models.RegisteredUser{}, fmt.Errorf("%w: username is required", ErrUsernameTaken)
	}
	if len(input.PIN) < minPINLength {
		return models.RegisteredUser{}, ErrPINTooShort
	}
	if !input.Role.Valid() {
		return models.RegisteredUser{}, ErrInvalidRole
	}

	users, err := s.store.Users()
	if err != nil {
		return models.RegisteredUser{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, input.Username) {
			return models.RegisteredUser{}, ErrUsernameTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.PIN), bcrypt.DefaultCost)
	if err != nil {
		return models.RegisteredUser{}, fmt.Errorf("hash PIN: %w", err)
	}

	user := models.RegisteredUser{
		ID:       uuid.NewString(),
		Username: input.Username,
		PINHash:  string(hash),
		Role:     input.Role,
		Phone:    input.Phone,
		Email:    input.Email,
	}
	if err := s.store.AddUser(user); err != nil {
		return models.RegisteredUser{}, fmt.Errorf("persist user: %w", err)
	}

	s.logger.Info("user registered", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates by case-insensitive username and PIN and persists the
// single active session, replacing any previous one. No lockout, no
// throttling.
func (s *Service) Login(username, pin string) (models.SessionUser, error) {
	users, err := s.store.Users()
	if err != nil {
		return models.SessionUser{}, fmt.Errorf("load users: %w", err)
	}

	for _, u := range users {
		if !strings.EqualFold(u.Username, username) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)) != nil {
			return models.SessionUser{}, ErrInvalidCredentials
		}
		sess := models.SessionUser{
			Token: uuid.NewString(),
			ID:    u.ID,
			Name:  u.Username,
			Role:  u.Role,
		}
		if err := s.store.SaveSession(sess); err != nil {
			return models.SessionUser{}, fmt.Errorf("persist session: %w", err)
		}
		s.logger.Info("login succeeded", zap.String("username", u.Username))
		return sess, nil
	}
	return models.SessionUser{}, ErrInvalidCredentials
}

// Logout clears the persisted session.
func (s *Service) Logout() error {
	return s.store.ClearSession()
}

// CurrentSession returns the active session, or nil when logged out.
func (s *Service) CurrentSession() (*models.SessionUser, error) {
	return s.store.Session()
}

// RequestRecovery is stage one of PIN recovery: it matches the contact
// exactly against phone or email, stores a 6-digit code with a 5-minute
// expiry, and hands the code to the delivery side channel.
func (s *Service) RequestRecovery(ctx context.Context, contact string) error {
	if _, err := s.findByContact(contact); err != nil {
		return err
	}

	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))
	rec := models.OtpRecord{Code: code, ExpiresAt: s.now().Add(otpTTL)}
	if err := s.store.SaveOtp(contact, rec); err != nil {
		return fmt.Errorf("persist recovery code: %w", err)
	}

	if err := s.sender.SendCode(ctx, contact, code); err != nil {
		return fmt.Errorf("deliver recovery code: %w", err)
	}

	s.logger.Info("recovery code issued", zap.String("contact", contact))
	return nil
}

// VerifyRecovery is stage two: it validates the supplied code against the
// stored record, consumes it on success, and overwrites the user's PIN.
func (s *Service) VerifyRecovery(contact, code, newPIN string) error {
	if len(newPIN) < minPINLength {
		return ErrPINTooShort
	}

	rec, err := s.store.Otp(contact)
	if err != nil {
		return fmt.Errorf("load recovery code: %w", err)
	}
	if rec == nil || s.now().After(rec.ExpiresAt) || rec.Code != code {
		return ErrInvalidOtp
	}

	user, err := s.findByContact(contact)
	if err != nil {
		return err
	}

	// Single use: consume the record before touching the PIN.
	if err := s.store.DeleteOtp(contact); err != nil {
		return fmt.Errorf("consume recovery code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash PIN: %w", err)
	}
	user.PINHash = string(hash)
	if err := s.store.UpdateUser(user); err != nil {
		return fmt.Errorf("persist PIN reset: %w", err)
	}

	s.logger.Info("PIN reset via recovery", zap.String("user_id", user.ID))
	return nil
}

func (s *Service) findByContact(contact string) (models.RegisteredUser, error) {
	users, err := s.store.Users()
	if err != nil {
		return models.RegisteredUser{}, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.Email == contact || u.Phone == contact {
			return u, nil
		}
	}
	return models.RegisteredUser{}, ErrContactNotFound
}
