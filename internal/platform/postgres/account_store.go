package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/platform/logger"
	"github.com/uservault/uservault-api/internal/store"
)

// accountColumns is the column list shared by all account SELECTs.
const accountColumns = `id, login, hashed_password, name, gender, birthday, admin,
		created_at, created_by, modified_at, modified_by, revoked_at, revoked_by`

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the
// AccountStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, logger *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

// WithTx implements store.AccountStore.WithTx
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) store.AccountStore {
	return &PostgresAccountStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.AccountStore.Create
// It saves a new account to the database, handling domain validation.
// Returns store.ErrLoginExists if the login is already taken; the check
// is performed by the unique index on login, atomically with the insert.
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.Account) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return err
	}

	query := `
		INSERT INTO accounts (id, login, hashed_password, name, gender, birthday, admin,
			created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.Login,
		account.HashedPassword,
		account.Name,
		account.Gender,
		account.Birthday,
		account.Admin,
		account.CreatedAt,
		account.CreatedBy,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("login already taken",
				slog.String("login", account.Login))
			return store.ErrLoginExists
		}

		log.Error("failed to create account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return MapError(err)
	}

	log.Info("account created",
		slog.String("account_id", account.ID.String()),
		slog.String("login", account.Login),
		slog.Bool("admin", account.Admin))
	return nil
}

// GetByLogin implements store.AccountStore.GetByLogin
// It retrieves an account by login regardless of lifecycle state.
// Returns store.ErrAccountNotFound if no account holds the login.
func (s *PostgresAccountStore) GetByLogin(
	ctx context.Context,
	login string,
) (*domain.Account, error) {
	return s.getByLogin(ctx, login, false)
}

// GetActiveByLogin implements store.AccountStore.GetActiveByLogin
// It retrieves an account by login, excluding revoked accounts.
// Returns store.ErrAccountNotFound if the account is missing or revoked;
// callers cannot tell the two cases apart.
func (s *PostgresAccountStore) GetActiveByLogin(
	ctx context.Context,
	login string,
) (*domain.Account, error) {
	return s.getByLogin(ctx, login, true)
}

func (s *PostgresAccountStore) getByLogin(
	ctx context.Context,
	login string,
	activeOnly bool,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE login = $1`
	if activeOnly {
		query += ` AND revoked_at IS NULL`
	}

	account, err := scanAccount(s.db.QueryRowContext(ctx, query, login))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account not found", slog.String("login", login))
			return nil, store.ErrAccountNotFound
		}
		log.Error("failed to get account by login",
			slog.String("error", err.Error()),
			slog.String("login", login))
		return nil, MapError(err)
	}

	return account, nil
}

// ListActive implements store.AccountStore.ListActive
// It returns all active accounts ordered by creation time ascending.
func (s *PostgresAccountStore) ListActive(ctx context.Context) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE revoked_at IS NULL
		ORDER BY created_at ASC
	`
	return s.listAccounts(ctx, query)
}

// ListActiveOlderThan implements store.AccountStore.ListActiveOlderThan
// It returns active accounts whose birthday is at or before the cutoff.
// Accounts without a birthday are excluded.
func (s *PostgresAccountStore) ListActiveOlderThan(
	ctx context.Context,
	cutoff time.Time,
) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE revoked_at IS NULL AND birthday IS NOT NULL AND birthday <= $1
		ORDER BY created_at ASC
	`
	return s.listAccounts(ctx, query, cutoff)
}

func (s *PostgresAccountStore) listAccounts(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list accounts", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			log.Error("failed to scan account row", slog.String("error", err.Error()))
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		log.Error("account row iteration failed", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return accounts, nil
}

// UpdateName implements store.AccountStore.UpdateName
// The WHERE clause restricts the update to active accounts, so a missing
// and a revoked target both surface as store.ErrAccountNotFound.
func (s *PostgresAccountStore) UpdateName(
	ctx context.Context,
	login, name, actor string,
	now time.Time,
) error {
	query := `
		UPDATE accounts
		SET name = $2, modified_at = $3, modified_by = $4
		WHERE login = $1 AND revoked_at IS NULL
	`
	return s.execActiveUpdate(ctx, "update name", query, login, name, now, actor)
}

// UpdatePassword implements store.AccountStore.UpdatePassword
// The value is expected to already be a bcrypt hash.
func (s *PostgresAccountStore) UpdatePassword(
	ctx context.Context,
	login, hashedPassword, actor string,
	now time.Time,
) error {
	query := `
		UPDATE accounts
		SET hashed_password = $2, modified_at = $3, modified_by = $4
		WHERE login = $1 AND revoked_at IS NULL
	`
	return s.execActiveUpdate(ctx, "update password", query, login, hashedPassword, now, actor)
}

// UpdateLogin implements store.AccountStore.UpdateLogin
// Returns store.ErrLoginExists if the new login is already taken by any
// account; the unique index makes the check atomic with the update.
func (s *PostgresAccountStore) UpdateLogin(
	ctx context.Context,
	oldLogin, newLogin, actor string,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE accounts
		SET login = $2, modified_at = $3, modified_by = $4
		WHERE login = $1 AND revoked_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, oldLogin, newLogin, now, actor)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("new login already taken",
				slog.String("old_login", oldLogin),
				slog.String("new_login", newLogin))
			return store.ErrLoginExists
		}
		log.Error("failed to update login",
			slog.String("error", err.Error()),
			slog.String("old_login", oldLogin))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "account"); err != nil {
		return store.ErrAccountNotFound
	}

	log.Info("login updated",
		slog.String("old_login", oldLogin),
		slog.String("new_login", newLogin),
		slog.String("actor", actor))
	return nil
}

// SoftDelete implements store.AccountStore.SoftDelete
// It stamps the revocation audit pair on an active account.
func (s *PostgresAccountStore) SoftDelete(
	ctx context.Context,
	login, actor string,
	now time.Time,
) error {
	query := `
		UPDATE accounts
		SET revoked_at = $2, revoked_by = $3
		WHERE login = $1 AND revoked_at IS NULL
	`
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, login, now, actor)
	if err != nil {
		log.Error("failed to soft delete account",
			slog.String("error", err.Error()),
			slog.String("login", login))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "account"); err != nil {
		return store.ErrAccountNotFound
	}

	log.Warn("account revoked",
		slog.String("login", login),
		slog.String("actor", actor))
	return nil
}

// Restore implements store.AccountStore.Restore
// It clears the revocation audit pair; modified_at is deliberately left
// untouched so a restore is invisible in the modification trail.
func (s *PostgresAccountStore) Restore(ctx context.Context, login string) error {
	query := `
		UPDATE accounts
		SET revoked_at = NULL, revoked_by = NULL
		WHERE login = $1 AND revoked_at IS NOT NULL
	`
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, login)
	if err != nil {
		log.Error("failed to restore account",
			slog.String("error", err.Error()),
			slog.String("login", login))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "account"); err != nil {
		return store.ErrAccountNotFound
	}

	log.Info("account restored", slog.String("login", login))
	return nil
}

func (s *PostgresAccountStore) execActiveUpdate(
	ctx context.Context,
	operation, query string,
	login string,
	args ...any,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, append([]any{login}, args...)...)
	if err != nil {
		log.Error("failed to "+operation,
			slog.String("error", err.Error()),
			slog.String("login", login))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "account"); err != nil {
		return store.ErrAccountNotFound
	}

	log.Info(operation,
		slog.String("login", login))
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanAccount.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var birthday, modifiedAt, revokedAt sql.NullTime
	var modifiedBy, revokedBy sql.NullString

	err := row.Scan(
		&account.ID,
		&account.Login,
		&account.HashedPassword,
		&account.Name,
		&account.Gender,
		&birthday,
		&account.Admin,
		&account.CreatedAt,
		&account.CreatedBy,
		&modifiedAt,
		&modifiedBy,
		&revokedAt,
		&revokedBy,
	)
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		account.Birthday = &birthday.Time
	}
	if modifiedAt.Valid {
		account.ModifiedAt = &modifiedAt.Time
	}
	if modifiedBy.Valid {
		account.ModifiedBy = &modifiedBy.String
	}
	if revokedAt.Valid {
		account.RevokedAt = &revokedAt.Time
	}
	if revokedBy.Valid {
		account.RevokedBy = &revokedBy.String
	}

	return &account, nil
}
