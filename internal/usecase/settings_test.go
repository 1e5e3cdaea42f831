package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

func newSettingsService(t *testing.T) (*SettingsService, *stubSettingsRepo, *stubAuditRepo) {
	t.Helper()

	settings := &stubSettingsRepo{}
	auditRepo := &stubAuditRepo{}
	logger := zaptest.NewLogger(t)

	return NewSettingsService(settings, NewAuditRecorder(auditRepo, logger), logger), settings, auditRepo
}

func TestSettingsFallBackToDefaults(t *testing.T) {
	service, _, _ := newSettingsService(t)

	policy, err := service.PasswordPolicy(context.Background())
	if err != nil {
		t.Fatalf("password policy: %v", err)
	}
	if policy != domain.DefaultPasswordPolicy() {
		t.Fatalf("expected default policy, got %+v", policy)
	}

	system, err := service.SystemSettings(context.Background())
	if err != nil {
		t.Fatalf("system settings: %v", err)
	}
	if system != domain.DefaultSystemSettings() {
		t.Fatalf("expected default settings, got %+v", system)
	}
}

func TestUpdatePasswordPolicy(t *testing.T) {
	service, settings, auditRepo := newSettingsService(t)

	updated := domain.PasswordPolicy{MinLength: 12, RequireCapitalLetter: true, RequireSpecialChar: false, RequireDigits: 2}
	if err := service.UpdatePasswordPolicy(context.Background(), updated, "ADMIN", ""); err != nil {
		t.Fatalf("update policy: %v", err)
	}

	if settings.policy == nil || *settings.policy != updated {
		t.Fatalf("policy not persisted: %+v", settings.policy)
	}

	if actions := auditRepo.actions(); len(actions) != 1 || actions[0] != domain.AuditPasswordPolicyUpdated {
		t.Fatalf("unexpected audit trail: %v", actions)
	}
}

func TestUpdatePasswordPolicyRejectsNonsense(t *testing.T) {
	service, _, _ := newSettingsService(t)

	if err := service.UpdatePasswordPolicy(context.Background(), domain.PasswordPolicy{MinLength: 0}, "ADMIN", ""); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestUpdateSystemSettings(t *testing.T) {
	service, settings, _ := newSettingsService(t)

	updated := domain.SystemSettings{FailedLoginLimit: 10, IdleTimeoutMinutes: 30}
	if err := service.UpdateSystemSettings(context.Background(), updated, "ADMIN", ""); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	if settings.system == nil || *settings.system != updated {
		t.Fatalf("settings not persisted: %+v", settings.system)
	}

	if err := service.UpdateSystemSettings(context.Background(), domain.SystemSettings{FailedLoginLimit: 0, IdleTimeoutMinutes: 15}, "ADMIN", ""); err == nil {
		t.Fatal("expected a validation error")
	}
}
