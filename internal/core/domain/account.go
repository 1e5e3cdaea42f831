package domain

import "time"

// Account mirrors the persisted representation in the accounts table.
// Exactly one of PasswordHash / (OTPEnabled + OTPHash) is the active
// credential at any time: issuing a one-time password clears the
// primary hash until the OTP is consumed.
type Account struct {
	ID                 string
	Username           string
	PasswordHash       *string
	FullName           string
	IsAdmin            bool
	IsBlocked          bool
	PasswordExpiryDays int
	CreatedAt          time.Time
	LastPasswordChange time.Time
	MustChangePassword bool
	OTPEnabled         bool
	OTPHash            *string
	ResetWithOTP       bool
	FailedAttempts     int
	LastFailedAttempt  *time.Time
	LastLockout        *time.Time
}

// PasswordExpired reports whether the account's password has outlived
// its expiry window. Zero expiry days means the password never expires.
func (a Account) PasswordExpired(now time.Time) bool {
	if a.PasswordExpiryDays == 0 {
		return false
	}
	expiry := a.LastPasswordChange.Add(time.Duration(a.PasswordExpiryDays) * 24 * time.Hour)
	return now.After(expiry)
}

// PasswordHistoryEntry tracks a retired password hash for reuse prevention.
// Entries are append-only and owned by their account.
type PasswordHistoryEntry struct {
	ID           int64
	AccountID    string
	PasswordHash string
	RetiredAt    time.Time
}

// CredentialUpdate describes the full set of credential fields replaced in a
// single transaction. A nil hash pointer clears the stored column.
type CredentialUpdate struct {
	PasswordHash       *string
	OTPHash            *string
	OTPEnabled         bool
	ResetWithOTP       bool
	MustChangePassword bool
	ChangedAt          time.Time
	// RetiredHash, when non-empty, is appended to the password history
	// within the same transaction as the field updates.
	RetiredHash string
}
