package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecutor is the query surface shared by pgxpool.Pool, pgx.Tx and the
// pgxmock pool used in tests.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repositories bundles the persistence adapters over one connection pool.
type Repositories struct {
	Accounts *AccountRepo
	Settings *SettingsRepo
	Audit    *AuditRepo
}

func NewRepositories(db pgExecutor) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepo(db),
		Settings: NewSettingsRepo(db),
		Audit:    NewAuditRepo(db),
	}
}
