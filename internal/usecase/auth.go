package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/infra/security"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// AuthService runs the authentication state machine: password or OTP
// verification, lockout accounting, session token issuance and validation.
type AuthService struct {
	accounts port.AccountRepository
	settings port.SettingsRepository
	tokens   *security.TokenManager
	lockout  *LockoutPolicy
	audit    *AuditRecorder
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	accounts port.AccountRepository,
	settings port.SettingsRepository,
	tokens *security.TokenManager,
	lockout *LockoutPolicy,
	audit *AuditRecorder,
	events port.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		settings: settings,
		tokens:   tokens,
		lockout:  lockout,
		audit:    audit,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// LoginInput carries one authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	OTPAnswer string
	IPAddress string
}

// LoginResult is the outcome of a successful attempt, or an OTP challenge
// when the account authenticates with a one-time password and no answer was
// supplied yet.
type LoginResult struct {
	OTPRequired        bool
	Token              string
	ExpiresAt          time.Time
	Account            domain.Account
	MustChangePassword bool
	PasswordExpired    bool
	ViaOTP             bool
}

// Login runs the full authentication flow for one attempt.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	now := s.now().UTC()
	username := strings.TrimSpace(input.Username)

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.rejectUnknown(ctx, username, input.IPAddress, now)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if account.IsBlocked {
		s.reject(ctx, account, "account blocked", input.IPAddress, now)
		return nil, ErrAccountBlocked
	}

	locked, err := s.lockout.IsLockedOut(ctx, account, now)
	if err != nil {
		return nil, fmt.Errorf("evaluate lockout: %w", err)
	}
	if locked {
		s.reject(ctx, account, "account locked", input.IPAddress, now)
		return nil, ErrAccountLocked
	}

	limit := s.failedLoginLimit(ctx)

	if account.OTPEnabled {
		return s.loginWithOTP(ctx, account, input, limit, now)
	}

	return s.loginWithPassword(ctx, account, input, limit, now)
}

func (s *AuthService) loginWithPassword(ctx context.Context, account *domain.Account, input LoginInput, limit int, now time.Time) (*LoginResult, error) {
	if account.PasswordHash == nil || input.Password == "" {
		return nil, s.recordFailure(ctx, account, "wrong password", input.IPAddress, limit, now)
	}

	ok, err := security.VerifyCredential(input.Password, *account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailure(ctx, account, "wrong password", input.IPAddress, limit, now)
	}

	if err := s.accounts.ResetLockout(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("reset lockout: %w", err)
	}

	return s.succeed(ctx, account, input.IPAddress, false, now)
}

func (s *AuthService) loginWithOTP(ctx context.Context, account *domain.Account, input LoginInput, limit int, now time.Time) (*LoginResult, error) {
	if input.OTPAnswer == "" {
		return &LoginResult{OTPRequired: true, Account: *account}, nil
	}

	if account.OTPHash == nil {
		return nil, s.recordFailure(ctx, account, "otp not issued", input.IPAddress, limit, now)
	}

	ok, err := security.VerifyCredential(input.OTPAnswer, *account.OTPHash)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return nil, s.recordFailure(ctx, account, "wrong otp", input.IPAddress, limit, now)
	}

	// The OTP is single use: consuming it retires the hash and forces a
	// password change on this session.
	if err := s.accounts.ConsumeOTP(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}

	account.OTPEnabled = false
	account.OTPHash = nil
	account.MustChangePassword = true
	account.FailedAttempts = 0
	account.LastLockout = nil
	account.LastFailedAttempt = nil
	account.LastPasswordChange = now

	return s.succeed(ctx, account, input.IPAddress, true, now)
}

func (s *AuthService) succeed(ctx context.Context, account *domain.Account, ip string, viaOTP bool, now time.Time) (*LoginResult, error) {
	token, err := s.tokens.Issue(*account)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.audit.Record(ctx, account.Username, domain.AuditLoginSuccess, loginDescription(viaOTP), ip)

	if err := s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
		AccountID: account.ID,
		Username:  account.Username,
		ViaOTP:    viaOTP,
		IPAddress: ip,
		At:        now,
	}); err != nil {
		s.logger.Warn("publish login succeeded event", zap.Error(err))
	}

	return &LoginResult{
		Token:              token,
		ExpiresAt:          now.Add(s.tokens.TTL()),
		Account:            *account,
		MustChangePassword: account.MustChangePassword,
		PasswordExpired:    account.PasswordExpired(now),
		ViaOTP:             viaOTP,
	}, nil
}

// recordFailure increments the counter atomically, emits lock events when the
// limit is reached, and returns the error the caller should surface.
func (s *AuthService) recordFailure(ctx context.Context, account *domain.Account, reason, ip string, limit int, now time.Time) error {
	attempts, err := s.accounts.RecordFailure(ctx, account.ID, now, limit)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}

	s.audit.Record(ctx, account.Username, domain.AuditLoginFailed, reason, ip)

	if err := s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
		AccountID: account.ID,
		Username:  account.Username,
		Reason:    reason,
		IPAddress: ip,
		At:        now,
	}); err != nil {
		s.logger.Warn("publish login failed event", zap.Error(err))
	}

	if attempts >= limit {
		if err := s.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
			AccountID: account.ID,
			Username:  account.Username,
			Attempts:  attempts,
			At:        now,
		}); err != nil {
			s.logger.Warn("publish account locked event", zap.Error(err))
		}
		return ErrAccountLocked
	}

	return ErrInvalidCredentials
}

func (s *AuthService) reject(ctx context.Context, account *domain.Account, reason, ip string, now time.Time) {
	s.audit.Record(ctx, account.Username, domain.AuditLoginFailed, reason, ip)

	if err := s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
		AccountID: account.ID,
		Username:  account.Username,
		Reason:    reason,
		IPAddress: ip,
		At:        now,
	}); err != nil {
		s.logger.Warn("publish login failed event", zap.Error(err))
	}
}

func (s *AuthService) rejectUnknown(ctx context.Context, username, ip string, now time.Time) {
	s.audit.Record(ctx, username, domain.AuditLoginFailed, "unknown username", ip)

	if err := s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
		Username: username,
		Reason:   "unknown username",
		At:       now,
	}); err != nil {
		s.logger.Warn("publish login failed event", zap.Error(err))
	}
}

// VerifySession validates the token and re-checks the live account: a deleted
// or blocked account invalidates otherwise-valid tokens.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*domain.Account, *security.SessionClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, ErrSessionInvalid
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionInvalid
		}
		return nil, nil, fmt.Errorf("load account: %w", err)
	}

	if account.IsBlocked {
		return nil, nil, ErrSessionInvalid
	}

	return account, claims, nil
}

// Logout records the logout in the audit log. Tokens are stateless, so the
// client discards the token; there is no server-side revocation list.
func (s *AuthService) Logout(ctx context.Context, token, ip string) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return
	}

	s.audit.Record(ctx, claims.Username, domain.AuditLogout, "", ip)
}

func (s *AuthService) failedLoginLimit(ctx context.Context) int {
	settings, err := s.settings.GetSystemSettings(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("load system settings", zap.Error(err))
		}
		return domain.DefaultSystemSettings().FailedLoginLimit
	}
	return settings.FailedLoginLimit
}

func loginDescription(viaOTP bool) string {
	if viaOTP {
		return "authenticated with one-time password"
	}
	return ""
}
