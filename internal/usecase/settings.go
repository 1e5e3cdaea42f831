package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// SettingsService reads and updates the singleton password policy and system
// settings. Reads fall back to the documented defaults until an administrator
// persists a row.
type SettingsService struct {
	settings port.SettingsRepository
	audit    *AuditRecorder
	logger   *zap.Logger
}

func NewSettingsService(settings port.SettingsRepository, audit *AuditRecorder, logger *zap.Logger) *SettingsService {
	return &SettingsService{settings: settings, audit: audit, logger: logger}
}

func (s *SettingsService) PasswordPolicy(ctx context.Context) (domain.PasswordPolicy, error) {
	policy, err := s.settings.GetPasswordPolicy(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DefaultPasswordPolicy(), nil
		}
		return domain.PasswordPolicy{}, fmt.Errorf("load password policy: %w", err)
	}
	return *policy, nil
}

func (s *SettingsService) UpdatePasswordPolicy(ctx context.Context, policy domain.PasswordPolicy, actorName, ip string) error {
	if policy.MinLength < 1 {
		return fmt.Errorf("minimum length must be positive")
	}
	if policy.RequireDigits < 0 {
		return fmt.Errorf("required digits must not be negative")
	}

	if err := s.settings.SavePasswordPolicy(ctx, policy); err != nil {
		return fmt.Errorf("save password policy: %w", err)
	}

	s.audit.Record(ctx, actorName, domain.AuditPasswordPolicyUpdated,
		fmt.Sprintf("min_length=%d capital=%t special=%t digits=%d",
			policy.MinLength, policy.RequireCapitalLetter, policy.RequireSpecialChar, policy.RequireDigits),
		ip)

	return nil
}

func (s *SettingsService) SystemSettings(ctx context.Context) (domain.SystemSettings, error) {
	settings, err := s.settings.GetSystemSettings(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DefaultSystemSettings(), nil
		}
		return domain.SystemSettings{}, fmt.Errorf("load system settings: %w", err)
	}
	return *settings, nil
}

func (s *SettingsService) UpdateSystemSettings(ctx context.Context, settings domain.SystemSettings, actorName, ip string) error {
	if settings.FailedLoginLimit < 1 {
		return fmt.Errorf("failed login limit must be positive")
	}
	if settings.IdleTimeoutMinutes < 1 {
		return fmt.Errorf("idle timeout must be positive")
	}

	if err := s.settings.SaveSystemSettings(ctx, settings); err != nil {
		return fmt.Errorf("save system settings: %w", err)
	}

	s.audit.Record(ctx, actorName, domain.AuditSystemSettingsUpdated,
		fmt.Sprintf("failed_login_limit=%d idle_timeout_minutes=%d",
			settings.FailedLoginLimit, settings.IdleTimeoutMinutes),
		ip)

	return nil
}
