package usecase

import (
	"context"
	"time"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
)

// LockoutPolicy evaluates the temporary-lockout state machine. The lockout
// timestamp is authoritative; the cool-down is checked lazily at the next
// authentication attempt, and an elapsed cool-down clears the counter as a
// side effect.
type LockoutPolicy struct {
	accounts port.AccountRepository
	cooldown time.Duration
}

func NewLockoutPolicy(accounts port.AccountRepository, cooldown time.Duration) *LockoutPolicy {
	if cooldown <= 0 {
		cooldown = 15 * time.Minute
	}
	return &LockoutPolicy{accounts: accounts, cooldown: cooldown}
}

// IsLockedOut reports whether the account is inside its lockout cool-down.
func (l *LockoutPolicy) IsLockedOut(ctx context.Context, account *domain.Account, now time.Time) (bool, error) {
	if account.LastLockout == nil {
		return false, nil
	}

	if now.Before(account.LastLockout.Add(l.cooldown)) {
		return true, nil
	}

	if err := l.accounts.ResetLockout(ctx, account.ID); err != nil {
		return false, err
	}

	account.FailedAttempts = 0
	account.LastFailedAttempt = nil
	account.LastLockout = nil

	return false, nil
}

// Cooldown returns the configured cool-down duration.
func (l *LockoutPolicy) Cooldown() time.Duration {
	return l.cooldown
}
