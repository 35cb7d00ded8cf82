package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralmed/clinicstock/internal/domain/models"
	"github.com/ruralmed/clinicstock/internal/store/sqlite"
)

type capturingSender struct {
	contact string
	code    string
	calls   int
}

func (c *capturingSender) SendCode(_ context.Context, contact, code string) error {
	c.contact = contact
	c.code = code
	c.calls++
	return nil
}

func newService(t *testing.T) (*Service, *capturingSender) {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sender := &capturingSender{}
	return NewService(st, sender, nil), sender
}

func TestRegisterRejectsCaseInsensitiveDuplicate(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(RegisterInput{Username: "kofi", PIN: "4321", Role: models.RoleStaff})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "KoFi", PIN: "9999", Role: models.RoleStaff})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Seeded admin also collides.
	_, err = svc.Register(RegisterInput{Username: "ADMIN", PIN: "9999", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(RegisterInput{Username: "ama", PIN: "123", Role: models.RoleStaff})
	assert.ErrorIs(t, err, ErrPINTooShort)

	_, err = svc.Register(RegisterInput{Username: "ama", PIN: "1234", Role: "Owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestLoginIsCaseInsensitiveOnUsernameOnly(t *testing.T) {
	svc, _ := newService(t)

	sess, err := svc.Login("ADMIN", "8888")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.Role)
	assert.NotEmpty(t, sess.Token)

	stored, err := svc.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, sess.Token, stored.Token)

	_, err = svc.Login("admin", "0000")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "8888")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	svc, _ := newService(t)

	first, err := svc.Login("admin", "8888")
	require.NoError(t, err)
	second, err := svc.Login("staff", "1111")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	stored, err := svc.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "staff", stored.Name)

	require.NoError(t, svc.Logout())
	stored, err = svc.CurrentSession()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRecoveryHappyPathIsSingleUse(t *testing.T) {
	svc, sender := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestRecovery(ctx, "0550000000"))
	require.Equal(t, 1, sender.calls)
	require.Len(t, sender.code, 6)

	require.NoError(t, svc.VerifyRecovery("0550000000", sender.code, "5555"))

	// New PIN works, old one does not.
	_, err := svc.Login("admin", "5555")
	require.NoError(t, err)
	_, err = svc.Login("admin", "8888")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The record was consumed; replaying the same code fails.
	err = svc.VerifyRecovery("0550000000", sender.code, "7777")
	assert.ErrorIs(t, err, ErrInvalidOtp)
}

func TestRecoveryRejectsExpiredCode(t *testing.T) {
	svc, sender := newService(t)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.RequestRecovery(ctx, "admin@ruralmed.com"))

	svc.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }
	err := svc.VerifyRecovery("admin@ruralmed.com", sender.code, "5555")
	assert.ErrorIs(t, err, ErrInvalidOtp)
}

func TestRecoveryRejectsWrongCodeAndUnknownContact(t *testing.T) {
	svc, sender := newService(t)
	ctx := context.Background()

	err := svc.RequestRecovery(ctx, "unknown@nowhere.com")
	assert.ErrorIs(t, err, ErrContactNotFound)

	require.NoError(t, svc.RequestRecovery(ctx, "0550000000"))
	wrong := "000000"
	if wrong == sender.code {
		wrong = "000001"
	}
	err = svc.VerifyRecovery("0550000000", wrong, "5555")
	assert.ErrorIs(t, err, ErrInvalidOtp)

	// A failed attempt does not consume the record.
	require.NoError(t, svc.VerifyRecovery("0550000000", sender.code, "5555"))
}

func TestRecoveryRejectsShortNewPIN(t *testing.T) {
	svc, sender := newService(t)
	require.NoError(t, svc.RequestRecovery(context.Background(), "0550000000"))

	err := svc.VerifyRecovery("0550000000", sender.code, "12")
	assert.ErrorIs(t, err, ErrPINTooShort)
}
