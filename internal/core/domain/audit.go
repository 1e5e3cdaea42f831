package domain

import "time"

// Audit action kinds recorded by the core flows.
const (
	AuditLoginSuccess          = "login_success"
	AuditLoginFailed           = "login_failed"
	AuditLogout                = "logout"
	AuditPasswordChanged       = "password_changed"
	AuditPasswordReset         = "password_reset"
	AuditUserCreated           = "user_created"
	AuditUserUpdated           = "user_updated"
	AuditUserBlocked           = "user_blocked"
	AuditUserUnblocked         = "user_unblocked"
	AuditUserDeleted           = "user_deleted"
	AuditPasswordPolicyUpdated = "password_settings_updated"
	AuditSystemSettingsUpdated = "system_settings_updated"
)

// AuditEntry is an append-only administrative audit record. Entries are never
// updated or deleted by the core.
type AuditEntry struct {
	ID          int64
	Username    string
	Action      string
	Description string
	IPAddress   string
	CreatedAt   time.Time
}
