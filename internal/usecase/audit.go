package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/core/port"
)

// AuditRecorder appends administrative audit entries. Writes are best-effort:
// a failed append is logged and never fails the triggering operation.
type AuditRecorder struct {
	repo   port.AuditRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewAuditRecorder(repo port.AuditRepository, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (r *AuditRecorder) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

// Record appends an entry, swallowing storage errors.
func (r *AuditRecorder) Record(ctx context.Context, username, action, description, ip string) {
	entry := domain.AuditEntry{
		Username:    username,
		Action:      action,
		Description: description,
		IPAddress:   ip,
		CreatedAt:   r.now().UTC(),
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		r.logger.Warn("audit append failed",
			zap.String("action", action),
			zap.String("username", username),
			zap.Error(err),
		)
	}
}

// List returns audit entries newest first.
func (r *AuditRecorder) List(ctx context.Context) ([]domain.AuditEntry, error) {
	return r.repo.List(ctx)
}
