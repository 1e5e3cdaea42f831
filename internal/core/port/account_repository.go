package port

import (
	"context"
	"time"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	UpdateProfile(ctx context.Context, id, fullName string, expiryDays int) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Delete(ctx context.Context, id string) error

	// RecordFailure increments the failed-attempt counter in a single
	// atomic statement, stamping the lockout timestamp when the counter
	// reaches limit. It returns the counter value after the increment.
	RecordFailure(ctx context.Context, id string, at time.Time, limit int) (int, error)
	// ResetLockout zeroes the counter and clears the lockout timestamp.
	ResetLockout(ctx context.Context, id string) error

	// UpdateCredentials replaces the credential fields and, when the update
	// carries a retired hash, appends it to the password history within the
	// same transaction.
	UpdateCredentials(ctx context.Context, id string, update domain.CredentialUpdate) error
	// ConsumeOTP disables the one-time password, resets the failure counter,
	// and forces a password change, as one transition.
	ConsumeOTP(ctx context.Context, id string, at time.Time) error

	ListPasswordHistory(ctx context.Context, accountID string) ([]domain.PasswordHistoryEntry, error)
}
