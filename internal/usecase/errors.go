package usecase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike, so responses do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountBlocked is returned when the account is administratively blocked.
	ErrAccountBlocked = errors.New("account is blocked")
	// ErrAccountLocked is returned while the lockout cool-down is running.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountNotFound is returned for lookups of unknown accounts.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken is returned when creating an account with a username
	// that already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrProtectedAccount guards the built-in administrator from deletion.
	ErrProtectedAccount = errors.New("built-in account cannot be deleted")
	// ErrPasswordReuse is returned when a candidate password matches the
	// current password or any retained history entry.
	ErrPasswordReuse = errors.New("password was used previously")
	// ErrOldPasswordInvalid is returned when the supplied old password does
	// not match the stored credential.
	ErrOldPasswordInvalid = errors.New("old password does not match")
	// ErrSessionInvalid covers malformed, tampered and revoked-by-state tokens.
	ErrSessionInvalid = errors.New("invalid session")
	// ErrSessionExpired is returned for tokens past their expiry.
	ErrSessionExpired = errors.New("session expired")
)

// PolicyViolationError carries every policy rule the candidate password
// violated, in rule order, plus the advisory strength score.
type PolicyViolationError struct {
	Violations []string
	Strength   int
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("password rejected by policy: %s", strings.Join(e.Violations, "; "))
}
