package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/repository"
)

var accountColumns = []string{
	"id",
	"username",
	"password_hash",
	"full_name",
	"is_admin",
	"is_blocked",
	"password_expiry_days",
	"created_at",
	"last_password_change",
	"must_change_password",
	"otp_enabled",
	"otp_hash",
	"reset_with_otp",
	"failed_attempts",
	"last_failed_attempt",
	"last_lockout",
}

// AccountRepo persists accounts, their lockout counters and their
// password history.
type AccountRepo struct {
	db pgExecutor
}

func NewAccountRepo(db pgExecutor) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account domain.Account) error {
	query, args, err := builder.
		Insert("accounts").
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Username,
			account.PasswordHash,
			account.FullName,
			account.IsAdmin,
			account.IsBlocked,
			account.PasswordExpiryDays,
			account.CreatedAt,
			account.LastPasswordChange,
			account.MustChangePassword,
			account.OTPEnabled,
			account.OTPHash,
			account.ResetWithOTP,
			account.FailedAttempts,
			account.LastFailedAttempt,
			account.LastLockout,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getBy(ctx, sq.Eq{"username": username})
}

func (r *AccountRepo) getBy(ctx context.Context, where sq.Eq) (*domain.Account, error) {
	query, args, err := builder.
		Select(accountColumns...).
		From("accounts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account query: %w", err)
	}

	row := r.db.QueryRow(ctx, query, args...)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return account, nil
}

func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	query, args, err := builder.
		Select(accountColumns...).
		From("accounts").
		OrderBy("username ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepo) UpdateProfile(ctx context.Context, id, fullName string, expiryDays int) error {
	query, args, err := builder.
		Update("accounts").
		Set("full_name", fullName).
		Set("password_expiry_days", expiryDays).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile query: %w", err)
	}

	return r.execAffectingOne(ctx, query, args, "update profile")
}

func (r *AccountRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	query, args, err := builder.
		Update("accounts").
		Set("is_blocked", blocked).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set blocked query: %w", err)
	}

	return r.execAffectingOne(ctx, query, args, "set blocked")
}

func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	query, args, err := builder.
		Delete("accounts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete account query: %w", err)
	}

	return r.execAffectingOne(ctx, query, args, "delete account")
}

// RecordFailure increments the counter and conditionally stamps the lockout
// timestamp inside a single statement, so concurrent failures never lose an
// increment.
func (r *AccountRepo) RecordFailure(ctx context.Context, id string, at time.Time, limit int) (int, error) {
	const query = `
		UPDATE accounts
		SET failed_attempts = failed_attempts + 1,
		    last_failed_attempt = $1,
		    last_lockout = CASE
		        WHEN failed_attempts + 1 >= $2 THEN $1
		        ELSE last_lockout
		    END
		WHERE id = $3
		RETURNING failed_attempts`

	var attempts int
	if err := r.db.QueryRow(ctx, query, at, limit, id).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}

	return attempts, nil
}

func (r *AccountRepo) ResetLockout(ctx context.Context, id string) error {
	query, args, err := builder.
		Update("accounts").
		Set("failed_attempts", 0).
		Set("last_failed_attempt", nil).
		Set("last_lockout", nil).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lockout query: %w", err)
	}

	return r.execAffectingOne(ctx, query, args, "reset lockout")
}

// UpdateCredentials swaps the credential fields and appends the retired hash
// to the history within one transaction. Any credential change also clears
// the lockout state.
func (r *AccountRepo) UpdateCredentials(ctx context.Context, id string, update domain.CredentialUpdate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credential update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query, args, err := builder.
		Update("accounts").
		Set("password_hash", update.PasswordHash).
		Set("otp_hash", update.OTPHash).
		Set("otp_enabled", update.OTPEnabled).
		Set("reset_with_otp", update.ResetWithOTP).
		Set("must_change_password", update.MustChangePassword).
		Set("last_password_change", update.ChangedAt).
		Set("failed_attempts", 0).
		Set("last_failed_attempt", nil).
		Set("last_lockout", nil).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update credentials query: %w", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if update.RetiredHash != "" {
		historyQuery, historyArgs, err := builder.
			Insert("password_history").
			Columns("account_id", "password_hash", "changed_at").
			Values(id, update.RetiredHash, update.ChangedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build history insert query: %w", err)
		}

		if _, err := tx.Exec(ctx, historyQuery, historyArgs...); err != nil {
			return fmt.Errorf("append password history: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ConsumeOTP retires the one-time password and forces a password change. The
// reset_with_otp marker survives until the forced change completes.
func (r *AccountRepo) ConsumeOTP(ctx context.Context, id string, at time.Time) error {
	query, args, err := builder.
		Update("accounts").
		Set("otp_enabled", false).
		Set("otp_hash", nil).
		Set("must_change_password", true).
		Set("failed_attempts", 0).
		Set("last_failed_attempt", nil).
		Set("last_lockout", nil).
		Set("last_password_change", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume otp query: %w", err)
	}

	return r.execAffectingOne(ctx, query, args, "consume otp")
}

func (r *AccountRepo) ListPasswordHistory(ctx context.Context, accountID string) ([]domain.PasswordHistoryEntry, error) {
	query, args, err := builder.
		Select("id", "account_id", "password_hash", "changed_at").
		From("password_history").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("changed_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list history query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list password history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PasswordHistoryEntry
	for rows.Next() {
		var entry domain.PasswordHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.PasswordHash, &entry.RetiredAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *AccountRepo) execAffectingOne(ctx context.Context, query string, args []any, op string) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.FullName,
		&account.IsAdmin,
		&account.IsBlocked,
		&account.PasswordExpiryDays,
		&account.CreatedAt,
		&account.LastPasswordChange,
		&account.MustChangePassword,
		&account.OTPEnabled,
		&account.OTPHash,
		&account.ResetWithOTP,
		&account.FailedAttempts,
		&account.LastFailedAttempt,
		&account.LastLockout,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
