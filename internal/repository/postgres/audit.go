package postgres

import (
	"context"
	"fmt"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

// listAuditLimit caps a single audit page; the log is append-only and can
// grow without bound.
const listAuditLimit = 1000

// AuditRepo appends and reads the administrative audit log.
type AuditRepo struct {
	db pgExecutor
}

func NewAuditRepo(db pgExecutor) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, entry domain.AuditEntry) error {
	query, args, err := builder.
		Insert("audit_log").
		Columns("username", "action", "description", "ip_address", "created_at").
		Values(entry.Username, entry.Action, entry.Description, entry.IPAddress, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build append audit query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context) ([]domain.AuditEntry, error) {
	query, args, err := builder.
		Select("id", "username", "action", "description", "ip_address", "created_at").
		From("audit_log").
		OrderBy("created_at DESC", "id DESC").
		Limit(listAuditLimit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Username, &entry.Action, &entry.Description, &entry.IPAddress, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
