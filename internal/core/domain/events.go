package domain

import "time"

// LoginSucceededEvent is emitted after a completed authentication.
type LoginSucceededEvent struct {
	EventID   string
	AccountID string
	Username  string
	ViaOTP    bool
	IPAddress string
	At        time.Time
}

// LoginFailedEvent is emitted for every rejected authentication attempt.
type LoginFailedEvent struct {
	EventID   string
	AccountID string
	Username  string
	Reason    string
	IPAddress string
	At        time.Time
}

// AccountLockedEvent is emitted when a failure pushes an account over the
// configured failed-login limit.
type AccountLockedEvent struct {
	EventID   string
	AccountID string
	Username  string
	Attempts  int
	At        time.Time
}

// PasswordChangedEvent is emitted after a credential change commits.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	Username  string
	ChangedBy string
	At        time.Time
}

// CredentialResetEvent is emitted for administrative resets, both OTP
// issuance and direct resets.
type CredentialResetEvent struct {
	EventID   string
	AccountID string
	Username  string
	ResetBy   string
	ViaOTP    bool
	At        time.Time
}

// AccountLifecycleEvent covers creation, blocking, and deletion of accounts.
type AccountLifecycleEvent struct {
	EventID   string
	AccountID string
	Username  string
	Action    string
	ActorName string
	At        time.Time
}
