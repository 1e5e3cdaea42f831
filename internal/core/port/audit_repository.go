package port

import (
	"context"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

// AuditRepository appends and reads the administrative audit log.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	// List returns entries ordered newest first.
	List(ctx context.Context) ([]domain.AuditEntry, error)
}
