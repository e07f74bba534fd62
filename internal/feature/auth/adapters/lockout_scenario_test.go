package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/password"
	"auth_backend/internal/platform/token"
)

// newScenarioUsecase wires the real state machine against SQLite-backed
// repositories, the bcrypt hasher and the signed token service.
func newScenarioUsecase(t *testing.T) *gormFixture {
	t.Helper()

	db := setupTestDB(t)
	f := &gormFixture{
		users:  NewUserGorm(db),
		audits: NewAuditGorm(db),
	}
	f.uc = usecase.NewAuthUsecase(
		f.users,
		f.audits,
		password.NewHasher(bcrypt.MinCost),
		token.NewResetTokenService("scenario-secret"),
		jwtmw.NewGenerator("scenario-jwt-secret", time.Hour),
		usecase.Config{
			MaxLoginAttempts: 5,
			LockoutDuration:  15 * time.Minute,
			ResetTokenMaxAge: 1800 * time.Second,
		},
	)
	return f
}

type gormFixture struct {
	users  *userGorm
	audits *auditGorm
	uc     interface {
		Signup(ctx context.Context, email, password string) (*entity.User, error)
		Login(ctx context.Context, email, password, clientIP string) (*entity.User, string, error)
		RequestPasswordReset(ctx context.Context, email string) (string, error)
		CompletePasswordReset(ctx context.Context, token, newPassword string) error
		RecentLogins(ctx context.Context, userID uint, limit int) ([]entity.AuditLog, error)
	}
}

// TestLockoutScenario walks the full account-security lifecycle:
// five wrong passwords lock the account, the lock holds against the correct
// password until it expires, and the next correct attempt clears everything.
func TestLockoutScenario(t *testing.T) {
	f := newScenarioUsecase(t)
	ctx := context.Background()

	user, err := f.uc.Signup(ctx, "existing@test.com", "password123")
	require.NoError(t, err)

	// Five attempts with a wrong password
	for i := 0; i < 5; i++ {
		_, _, err := f.uc.Login(ctx, "existing@test.com", "wrong", "198.51.100.7")
		require.ErrorIs(t, err, usecase.ErrInvalidCredentials, "attempt %d", i+1)
	}

	locked, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, 5, locked.FailedLoginAttempts)
	require.NotNil(t, locked.LockedUntil)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), *locked.LockedUntil, 5*time.Second)

	// The correct password is rejected while the lock holds
	_, _, err = f.uc.Login(ctx, "existing@test.com", "password123", "198.51.100.7")
	var lockedErr *usecase.AccountLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, 15, lockedErr.RetryAfterMinutes())

	// Lockout checks are not attempts: the counter did not move
	held, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, held.FailedLoginAttempts)

	// Rewind the lock so it has expired one minute ago
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.users.Lock(ctx, user.ID, past))

	loggedIn, tok, err := f.uc.Login(ctx, "existing@test.com", "password123", "198.51.100.7")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.False(t, loggedIn.IsLocked)
	assert.Zero(t, loggedIn.FailedLoginAttempts)
	assert.NotNil(t, loggedIn.LastLogin)

	// The stored row agrees with the returned state
	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)

	// Audit trail: five failures plus one success, newest first
	logs, err := f.uc.RecentLogins(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 6)
	assert.True(t, logs[0].WasSuccessful)
	for _, l := range logs[1:] {
		assert.False(t, l.WasSuccessful)
	}
}

// TestPasswordResetScenario verifies that a completed reset re-admits a
// locked-out account with the new password.
func TestPasswordResetScenario(t *testing.T) {
	f := newScenarioUsecase(t)
	ctx := context.Background()

	user, err := f.uc.Signup(ctx, "existing@test.com", "password123")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := f.uc.Login(ctx, "existing@test.com", "wrong", "")
		require.ErrorIs(t, err, usecase.ErrInvalidCredentials)
	}

	resetToken, err := f.uc.RequestPasswordReset(ctx, "existing@test.com")
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	require.NoError(t, f.uc.CompletePasswordReset(ctx, resetToken, "freshpassword1"))

	// The lock is gone even though it had not expired
	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)

	// Old password no longer works, the new one does
	_, _, err = f.uc.Login(ctx, "existing@test.com", "password123", "")
	assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)

	_, tok, err := f.uc.Login(ctx, "existing@test.com", "freshpassword1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

// TestResetRequestUnknownEmail confirms the silent no-op for unregistered
// addresses.
func TestResetRequestUnknownEmail(t *testing.T) {
	f := newScenarioUsecase(t)

	tok, err := f.uc.RequestPasswordReset(context.Background(), "nobody@test.com")

	require.NoError(t, err)
	assert.Empty(t, tok)
}

// TestLoginUnknownEmailWritesNoAudit confirms that attempts against
// unregistered emails leave no trace in the audit table.
func TestLoginUnknownEmailWritesNoAudit(t *testing.T) {
	f := newScenarioUsecase(t)
	ctx := context.Background()

	_, _, err := f.uc.Login(ctx, "nobody@test.com", "whatever1", "203.0.113.1")
	require.True(t, errors.Is(err, usecase.ErrInvalidCredentials))

	var count int64
	f.audits.db.Model(&entity.AuditLog{}).Count(&count)
	assert.Zero(t, count)
}
