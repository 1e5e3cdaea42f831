package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/repository"
)

// SettingsRepo persists the singleton password policy and system settings
// rows. Both tables hold at most one row with id = 1.
type SettingsRepo struct {
	db pgExecutor
}

func NewSettingsRepo(db pgExecutor) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) GetPasswordPolicy(ctx context.Context) (*domain.PasswordPolicy, error) {
	query, args, err := builder.
		Select("min_length", "require_capital_letter", "require_special_char", "require_digits").
		From("password_settings").
		Where("id = 1").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select policy query: %w", err)
	}

	var policy domain.PasswordPolicy
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&policy.MinLength,
		&policy.RequireCapitalLetter,
		&policy.RequireSpecialChar,
		&policy.RequireDigits,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select password policy: %w", err)
	}

	return &policy, nil
}

func (r *SettingsRepo) SavePasswordPolicy(ctx context.Context, policy domain.PasswordPolicy) error {
	const query = `
		INSERT INTO password_settings (id, min_length, require_capital_letter, require_special_char, require_digits, updated_at)
		VALUES (1, $1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
		    min_length = EXCLUDED.min_length,
		    require_capital_letter = EXCLUDED.require_capital_letter,
		    require_special_char = EXCLUDED.require_special_char,
		    require_digits = EXCLUDED.require_digits,
		    updated_at = now()`

	_, err := r.db.Exec(ctx, query,
		policy.MinLength,
		policy.RequireCapitalLetter,
		policy.RequireSpecialChar,
		policy.RequireDigits,
	)
	if err != nil {
		return fmt.Errorf("save password policy: %w", err)
	}

	return nil
}

func (r *SettingsRepo) GetSystemSettings(ctx context.Context) (*domain.SystemSettings, error) {
	query, args, err := builder.
		Select("failed_login_limit", "idle_timeout_minutes").
		From("system_settings").
		Where("id = 1").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select settings query: %w", err)
	}

	var settings domain.SystemSettings
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&settings.FailedLoginLimit,
		&settings.IdleTimeoutMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select system settings: %w", err)
	}

	return &settings, nil
}

func (r *SettingsRepo) SaveSystemSettings(ctx context.Context, settings domain.SystemSettings) error {
	const query = `
		INSERT INTO system_settings (id, failed_login_limit, idle_timeout_minutes, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
		    failed_login_limit = EXCLUDED.failed_login_limit,
		    idle_timeout_minutes = EXCLUDED.idle_timeout_minutes,
		    updated_at = now()`

	_, err := r.db.Exec(ctx, query, settings.FailedLoginLimit, settings.IdleTimeoutMinutes)
	if err != nil {
		return fmt.Errorf("save system settings: %w", err)
	}

	return nil
}
