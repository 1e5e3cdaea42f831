package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/infra/security"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// ResetModeOTP issues a one-time password; ResetModeDirect sets a new
// password immediately.
const (
	ResetModeOTP    = "otp"
	ResetModeDirect = "direct"
)

// PasswordService owns every credential mutation: self-service password
// change, administrative direct reset, and OTP issuance.
type PasswordService struct {
	accounts        port.AccountRepository
	settings        port.SettingsRepository
	audit           *AuditRecorder
	events          port.EventPublisher
	logger          *zap.Logger
	defaultPassword string
	now             func() time.Time
}

func NewPasswordService(
	accounts port.AccountRepository,
	settings port.SettingsRepository,
	audit *AuditRecorder,
	events port.EventPublisher,
	defaultPassword string,
	logger *zap.Logger,
) *PasswordService {
	if defaultPassword == "" {
		defaultPassword = "User123!"
	}
	return &PasswordService{
		accounts:        accounts,
		settings:        settings,
		audit:           audit,
		events:          events,
		logger:          logger,
		defaultPassword: defaultPassword,
		now:             time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *PasswordService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// DefaultPassword returns the configured default password applied to new and
// directly-reset accounts.
func (s *PasswordService) DefaultPassword() string {
	return s.defaultPassword
}

// ChangePassword replaces the account's own password. Old-password
// verification is skipped only for the forced change that follows an OTP
// login; in every other case the old password must match.
func (s *PasswordService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword, ip string) error {
	now := s.now().UTC()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}

	skipOldCheck := account.MustChangePassword && account.ResetWithOTP

	if !skipOldCheck {
		if account.PasswordHash == nil {
			return ErrOldPasswordInvalid
		}
		ok, err := security.VerifyCredential(oldPassword, *account.PasswordHash)
		if err != nil {
			return fmt.Errorf("verify old password: %w", err)
		}
		if !ok {
			return ErrOldPasswordInvalid
		}
	}

	if err := s.vetNewPassword(ctx, account, newPassword); err != nil {
		return err
	}

	newHash, err := security.HashCredential(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	update := domain.CredentialUpdate{
		PasswordHash: &newHash,
		ChangedAt:    now,
	}
	if account.PasswordHash != nil {
		update.RetiredHash = *account.PasswordHash
	}

	if err := s.accounts.UpdateCredentials(ctx, account.ID, update); err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}

	s.audit.Record(ctx, account.Username, domain.AuditPasswordChanged, "", ip)

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		AccountID: account.ID,
		Username:  account.Username,
		ChangedBy: account.Username,
		At:        now,
	}); err != nil {
		s.logger.Warn("publish password changed event", zap.Error(err))
	}

	return nil
}

// ResetInput describes an administrative credential reset.
type ResetInput struct {
	TargetID string
	// Mode is ResetModeOTP or ResetModeDirect.
	Mode string
	// Value is the OTP answer to issue, or the new password for a direct
	// reset. Empty means a generated OTP or the default password.
	Value     string
	ActorName string
	IPAddress string
}

// ResetOutcome reports what was set; OTP carries the plaintext one-time
// password so the administrator can hand it over out of band.
type ResetOutcome struct {
	ViaOTP bool
	OTP    string
}

// AdminReset issues an OTP or directly resets the password of the target
// account.
func (s *PasswordService) AdminReset(ctx context.Context, input ResetInput) (*ResetOutcome, error) {
	now := s.now().UTC()

	account, err := s.accounts.GetByID(ctx, input.TargetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	var outcome *ResetOutcome
	switch input.Mode {
	case ResetModeOTP:
		outcome, err = s.issueOTP(ctx, account, input.Value, now)
	case ResetModeDirect:
		outcome, err = s.resetDirect(ctx, account, input.Value, now)
	default:
		return nil, fmt.Errorf("unknown reset mode %q", input.Mode)
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, input.ActorName, domain.AuditPasswordReset,
		fmt.Sprintf("reset credentials of %s", account.Username), input.IPAddress)

	if err := s.events.PublishCredentialReset(ctx, domain.CredentialResetEvent{
		AccountID: account.ID,
		Username:  account.Username,
		ResetBy:   input.ActorName,
		ViaOTP:    outcome.ViaOTP,
		At:        now,
	}); err != nil {
		s.logger.Warn("publish credential reset event", zap.Error(err))
	}

	return outcome, nil
}

// issueOTP sets the one-time password as the only live credential: the
// primary hash is cleared until the OTP is consumed.
func (s *PasswordService) issueOTP(ctx context.Context, account *domain.Account, answer string, now time.Time) (*ResetOutcome, error) {
	if answer == "" {
		answer = security.GenerateOTP()
	}

	otpHash, err := security.HashCredential(answer)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	update := domain.CredentialUpdate{
		OTPHash:            &otpHash,
		OTPEnabled:         true,
		ResetWithOTP:       true,
		MustChangePassword: true,
		ChangedAt:          now,
	}
	if account.PasswordHash != nil {
		update.RetiredHash = *account.PasswordHash
	}

	if err := s.accounts.UpdateCredentials(ctx, account.ID, update); err != nil {
		return nil, fmt.Errorf("update credentials: %w", err)
	}

	return &ResetOutcome{ViaOTP: true, OTP: answer}, nil
}

func (s *PasswordService) resetDirect(ctx context.Context, account *domain.Account, password string, now time.Time) (*ResetOutcome, error) {
	if password == "" {
		password = s.defaultPassword
	}

	if err := s.vetNewPassword(ctx, account, password); err != nil {
		return nil, err
	}

	hash, err := security.HashCredential(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	update := domain.CredentialUpdate{
		PasswordHash:       &hash,
		MustChangePassword: true,
		ChangedAt:          now,
	}
	if account.PasswordHash != nil {
		update.RetiredHash = *account.PasswordHash
	}

	if err := s.accounts.UpdateCredentials(ctx, account.ID, update); err != nil {
		return nil, fmt.Errorf("update credentials: %w", err)
	}

	return &ResetOutcome{}, nil
}

// vetNewPassword runs the policy rules and the reuse check. Reuse covers the
// current hash as well as every retained history hash, so changing a password
// to itself is rejected.
func (s *PasswordService) vetNewPassword(ctx context.Context, account *domain.Account, candidate string) error {
	policy := s.passwordPolicy(ctx)

	if violations := security.ValidatePassword(candidate, policy); len(violations) > 0 {
		return &PolicyViolationError{
			Violations: violations,
			Strength:   security.StrengthScore(candidate, account.Username),
		}
	}

	if account.PasswordHash != nil {
		same, err := security.VerifyCredential(candidate, *account.PasswordHash)
		if err != nil {
			return fmt.Errorf("compare with current password: %w", err)
		}
		if same {
			return ErrPasswordReuse
		}
	}

	history, err := s.accounts.ListPasswordHistory(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("load password history: %w", err)
	}

	for _, entry := range history {
		used, err := security.VerifyCredential(candidate, entry.PasswordHash)
		if err != nil {
			return fmt.Errorf("compare with history: %w", err)
		}
		if used {
			return ErrPasswordReuse
		}
	}

	return nil
}

func (s *PasswordService) passwordPolicy(ctx context.Context) domain.PasswordPolicy {
	policy, err := s.settings.GetPasswordPolicy(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("load password policy", zap.Error(err))
		}
		return domain.DefaultPasswordPolicy()
	}
	return *policy
}
