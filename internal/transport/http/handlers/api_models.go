package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/transport/http/middleware"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with the trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PolicyViolationResponse reports every policy rule the candidate password
// violated, plus the advisory strength score.
type PolicyViolationResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations"`
	Strength   int      `json:"strength"`
	TraceID    string   `json:"trace_id,omitempty"`
}

// AccountView is the API representation of an account. Credential hashes
// never leave the server.
type AccountView struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	FullName           string     `json:"full_name"`
	IsAdmin            bool       `json:"is_admin"`
	IsBlocked          bool       `json:"is_blocked"`
	PasswordExpiryDays int        `json:"password_expiry_days"`
	CreatedAt          time.Time  `json:"created_at"`
	LastPasswordChange time.Time  `json:"last_password_change"`
	MustChangePassword bool       `json:"must_change_password"`
	OTPEnabled         bool       `json:"otp_enabled"`
	FailedAttempts     int        `json:"failed_attempts"`
	LastLockout        *time.Time `json:"last_lockout,omitempty"`
}

func newAccountView(account domain.Account) AccountView {
	return AccountView{
		ID:                 account.ID,
		Username:           account.Username,
		FullName:           account.FullName,
		IsAdmin:            account.IsAdmin,
		IsBlocked:          account.IsBlocked,
		PasswordExpiryDays: account.PasswordExpiryDays,
		CreatedAt:          account.CreatedAt,
		LastPasswordChange: account.LastPasswordChange,
		MustChangePassword: account.MustChangePassword,
		OTPEnabled:         account.OTPEnabled,
		FailedAttempts:     account.FailedAttempts,
		LastLockout:        account.LastLockout,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password"`
	OTPAnswer string `json:"otp_answer"`
}

// LoginResponse carries either an OTP challenge or an issued session.
type LoginResponse struct {
	OTPRequired        bool         `json:"otp_required"`
	Token              string       `json:"token,omitempty"`
	ExpiresAt          *time.Time   `json:"expires_at,omitempty"`
	Account            *AccountView `json:"account,omitempty"`
	MustChangePassword bool         `json:"must_change_password"`
	PasswordExpired    bool         `json:"password_expired"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" binding:"required"`
}

// CreateAccountRequest defines the payload for account creation.
type CreateAccountRequest struct {
	Username           string `json:"username" binding:"required"`
	FullName           string `json:"full_name"`
	IsAdmin            bool   `json:"is_admin"`
	PasswordExpiryDays int    `json:"password_expiry_days"`
	OTP                string `json:"otp"`
}

// UpdateAccountRequest defines the payload for profile updates. A non-empty
// OTP additionally issues that one-time password to the account.
type UpdateAccountRequest struct {
	FullName           string `json:"full_name"`
	PasswordExpiryDays int    `json:"password_expiry_days"`
	OTP                string `json:"otp"`
}

// UpdateAccountResponse confirms the update; OTP echoes the issued one-time
// password for out-of-band delivery.
type UpdateAccountResponse struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

// BlockRequest toggles the blocked flag.
type BlockRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// ResetPasswordRequest defines the payload for administrative resets.
type ResetPasswordRequest struct {
	// Mode is "otp" or "direct". Direct with an empty value applies the
	// default password.
	Mode  string `json:"mode" binding:"required"`
	Value string `json:"value"`
}

// ResetPasswordResponse reports the reset outcome; OTP carries the plaintext
// one-time password for out-of-band delivery.
type ResetPasswordResponse struct {
	ViaOTP bool   `json:"via_otp"`
	OTP    string `json:"otp,omitempty"`
}

// PasswordPolicyPayload is used for both reads and writes of the policy.
type PasswordPolicyPayload struct {
	MinLength            int  `json:"min_length"`
	RequireCapitalLetter bool `json:"require_capital_letter"`
	RequireSpecialChar   bool `json:"require_special_char"`
	RequireDigits        int  `json:"require_digits"`
}

// SystemSettingsPayload is used for both reads and writes of the settings.
type SystemSettingsPayload struct {
	FailedLoginLimit   int `json:"failed_login_limit"`
	IdleTimeoutMinutes int `json:"idle_timeout_minutes"`
}

// AuditEntryView is the API representation of one audit record.
type AuditEntryView struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
}

// respondUsecaseError maps usecase errors onto HTTP statuses.
func respondUsecaseError(c *gin.Context, err error) {
	var policyErr *usecase.PolicyViolationError
	if errors.As(err, &policyErr) {
		c.JSON(http.StatusBadRequest, PolicyViolationResponse{
			Error:      "password rejected by policy",
			Violations: policyErr.Violations,
			Strength:   policyErr.Strength,
			TraceID:    middleware.GetTraceID(c),
		})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrAccountBlocked):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrAccountLocked):
		c.JSON(http.StatusLocked, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrUsernameTaken):
		c.JSON(http.StatusConflict, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrProtectedAccount):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrPasswordReuse),
		errors.Is(err, usecase.ErrOldPasswordInvalid):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
	case errors.Is(err, usecase.ErrSessionExpired),
		errors.Is(err, usecase.ErrSessionInvalid):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "internal error"))
	}
}

func actorName(c *gin.Context) string {
	if account := middleware.GetAccount(c); account != nil {
		return account.Username
	}
	return ""
}
