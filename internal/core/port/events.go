package port

import (
	"context"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

// EventPublisher publishes security events to the message bus. Publishing is
// best-effort: callers log and discard errors rather than failing the
// triggering operation.
type EventPublisher interface {
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishCredentialReset(ctx context.Context, event domain.CredentialResetEvent) error
	PublishAccountLifecycle(ctx context.Context, event domain.AccountLifecycleEvent) error
}
