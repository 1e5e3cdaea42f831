package port

import (
	"context"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

// SettingsRepository persists the singleton policy and system settings rows.
// Get methods return repository.ErrNotFound when nothing has been persisted
// yet; callers fall back to the domain defaults.
type SettingsRepository interface {
	GetPasswordPolicy(ctx context.Context) (*domain.PasswordPolicy, error)
	SavePasswordPolicy(ctx context.Context, policy domain.PasswordPolicy) error
	GetSystemSettings(ctx context.Context) (*domain.SystemSettings, error)
	SaveSystemSettings(ctx context.Context, settings domain.SystemSettings) error
}
