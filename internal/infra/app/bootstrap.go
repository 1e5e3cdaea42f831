package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/infra/config"
	"github.com/ZelseeH/CyberB/internal/infra/security"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// Bootstrap seeds the singleton settings rows and the built-in administrator
// account when they are absent. It is idempotent across restarts.
func Bootstrap(ctx context.Context, cfg config.AuthSettings, accounts port.AccountRepository, settings port.SettingsRepository, log *zap.Logger) error {
	if _, err := settings.GetPasswordPolicy(ctx); errors.Is(err, repository.ErrNotFound) {
		if err := settings.SavePasswordPolicy(ctx, domain.DefaultPasswordPolicy()); err != nil {
			return fmt.Errorf("seed password policy: %w", err)
		}
		log.Info("seeded default password policy")
	} else if err != nil {
		return fmt.Errorf("check password policy: %w", err)
	}

	if _, err := settings.GetSystemSettings(ctx); errors.Is(err, repository.ErrNotFound) {
		if err := settings.SaveSystemSettings(ctx, domain.DefaultSystemSettings()); err != nil {
			return fmt.Errorf("seed system settings: %w", err)
		}
		log.Info("seeded default system settings")
	} else if err != nil {
		return fmt.Errorf("check system settings: %w", err)
	}

	_, err := accounts.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check admin account: %w", err)
	}

	hash, err := security.HashCredential(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.Account{
		ID:                 uuid.NewString(),
		Username:           cfg.AdminUsername,
		PasswordHash:       &hash,
		FullName:           "Administrator",
		IsAdmin:            true,
		CreatedAt:          now,
		LastPasswordChange: now,
	}

	if err := accounts.Create(ctx, admin); err != nil {
		// A concurrent replica may have seeded it first.
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		return fmt.Errorf("create admin account: %w", err)
	}

	log.Info("seeded built-in administrator", zap.String("username", cfg.AdminUsername))

	return nil
}
