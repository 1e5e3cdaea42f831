package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/infra/security"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// AccountService covers the administrative account lifecycle: creation,
// profile updates, blocking, deletion and listing.
type AccountService struct {
	accounts        port.AccountRepository
	audit           *AuditRecorder
	events          port.EventPublisher
	logger          *zap.Logger
	defaultPassword string
	protectedAdmin  string
	now             func() time.Time
}

func NewAccountService(
	accounts port.AccountRepository,
	audit *AuditRecorder,
	events port.EventPublisher,
	defaultPassword, protectedAdmin string,
	logger *zap.Logger,
) *AccountService {
	if defaultPassword == "" {
		defaultPassword = "User123!"
	}
	if protectedAdmin == "" {
		protectedAdmin = "ADMIN"
	}
	return &AccountService{
		accounts:        accounts,
		audit:           audit,
		events:          events,
		logger:          logger,
		defaultPassword: defaultPassword,
		protectedAdmin:  protectedAdmin,
		now:             time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *AccountService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// CreateInput describes a new account. When OTP is non-empty the account is
// created without a password and authenticates with the one-time password
// first; otherwise it starts with the default password and a forced change.
type CreateInput struct {
	Username           string
	FullName           string
	IsAdmin            bool
	PasswordExpiryDays int
	OTP                string
	ActorName          string
	IPAddress          string
}

func (s *AccountService) Create(ctx context.Context, input CreateInput) (*domain.Account, error) {
	now := s.now().UTC()

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if input.PasswordExpiryDays < 0 {
		return nil, fmt.Errorf("password expiry days must not be negative")
	}

	account := domain.Account{
		ID:                 uuid.NewString(),
		Username:           username,
		FullName:           strings.TrimSpace(input.FullName),
		IsAdmin:            input.IsAdmin,
		PasswordExpiryDays: input.PasswordExpiryDays,
		CreatedAt:          now,
		LastPasswordChange: now,
	}

	if input.OTP != "" {
		otpHash, err := security.HashCredential(input.OTP)
		if err != nil {
			return nil, fmt.Errorf("hash otp: %w", err)
		}
		account.OTPEnabled = true
		account.OTPHash = &otpHash
		account.ResetWithOTP = true
	} else {
		hash, err := security.HashCredential(s.defaultPassword)
		if err != nil {
			return nil, fmt.Errorf("hash default password: %w", err)
		}
		account.PasswordHash = &hash
		account.MustChangePassword = true
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.audit.Record(ctx, input.ActorName, domain.AuditUserCreated,
		fmt.Sprintf("created account %s", account.Username), input.IPAddress)
	s.publishLifecycle(ctx, &account, "created", input.ActorName, now)

	return &account, nil
}

// UpdateProfile edits the mutable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, targetID, fullName string, expiryDays int, actorName, ip string) error {
	if expiryDays < 0 {
		return fmt.Errorf("password expiry days must not be negative")
	}

	account, err := s.get(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdateProfile(ctx, account.ID, strings.TrimSpace(fullName), expiryDays); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}

	s.audit.Record(ctx, actorName, domain.AuditUserUpdated,
		fmt.Sprintf("updated account %s", account.Username), ip)

	return nil
}

// SetBlocked blocks or unblocks the target account. Blocking invalidates
// live sessions at the next verification.
func (s *AccountService) SetBlocked(ctx context.Context, targetID string, blocked bool, actorName, ip string) error {
	account, err := s.get(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.accounts.SetBlocked(ctx, account.ID, blocked); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("set blocked: %w", err)
	}

	action := domain.AuditUserBlocked
	lifecycle := "blocked"
	if !blocked {
		action = domain.AuditUserUnblocked
		lifecycle = "unblocked"
	}

	s.audit.Record(ctx, actorName, action,
		fmt.Sprintf("%s account %s", lifecycle, account.Username), ip)
	s.publishLifecycle(ctx, account, lifecycle, actorName, s.now().UTC())

	return nil
}

// Delete removes the target account. The built-in administrator is protected.
func (s *AccountService) Delete(ctx context.Context, targetID, actorName, ip string) error {
	account, err := s.get(ctx, targetID)
	if err != nil {
		return err
	}

	if account.Username == s.protectedAdmin {
		return ErrProtectedAccount
	}

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}

	s.audit.Record(ctx, actorName, domain.AuditUserDeleted,
		fmt.Sprintf("deleted account %s", account.Username), ip)
	s.publishLifecycle(ctx, account, "deleted", actorName, s.now().UTC())

	return nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.get(ctx, id)
}

func (s *AccountService) get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func (s *AccountService) publishLifecycle(ctx context.Context, account *domain.Account, action, actor string, at time.Time) {
	if err := s.events.PublishAccountLifecycle(ctx, domain.AccountLifecycleEvent{
		AccountID: account.ID,
		Username:  account.Username,
		Action:    action,
		ActorName: actor,
		At:        at,
	}); err != nil {
		s.logger.Warn("publish account lifecycle event",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
