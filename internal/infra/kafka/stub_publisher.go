package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.logEvent("auth.login.succeeded", event.AccountID, event.At, map[string]any{
		"username": event.Username,
		"via_otp":  event.ViaOTP,
	})
	return nil
}

func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.logEvent("auth.login.failed", event.AccountID, event.At, map[string]any{
		"username": event.Username,
		"reason":   event.Reason,
	})
	return nil
}

func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.logEvent("auth.account.locked", event.AccountID, event.At, map[string]any{
		"username": event.Username,
		"attempts": event.Attempts,
	})
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent("auth.password.changed", event.AccountID, event.At, map[string]any{
		"username":   event.Username,
		"changed_by": event.ChangedBy,
	})
	return nil
}

func (p *StubPublisher) PublishCredentialReset(_ context.Context, event domain.CredentialResetEvent) error {
	p.logEvent("auth.credential.reset", event.AccountID, event.At, map[string]any{
		"username": event.Username,
		"reset_by": event.ResetBy,
		"via_otp":  event.ViaOTP,
	})
	return nil
}

func (p *StubPublisher) PublishAccountLifecycle(_ context.Context, event domain.AccountLifecycleEvent) error {
	p.logEvent("auth.account.lifecycle", event.AccountID, event.At, map[string]any{
		"username": event.Username,
		"action":   event.Action,
		"actor":    event.ActorName,
	})
	return nil
}
