package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/uservault/uservault-api/internal/domain"
)

// AccountStore defines the interface for account directory persistence.
//
// Login uniqueness is table-wide: revoked accounts still hold their login.
// The check is enforced by the store's unique constraint so that it is
// atomic with the write; callers never pre-check existence.
type AccountStore interface {
	// Create saves a new account to the store.
	// The account must already carry a hashed password.
	// Returns ErrLoginExists if the login is already taken by any account,
	// active or revoked.
	Create(ctx context.Context, account *domain.Account) error

	// GetByLogin retrieves an account by login regardless of lifecycle state.
	// Returns ErrAccountNotFound if no account holds the login.
	GetByLogin(ctx context.Context, login string) (*domain.Account, error)

	// GetActiveByLogin retrieves an account by login, excluding revoked
	// accounts. Used on authentication paths.
	// Returns ErrAccountNotFound if the account is missing or revoked.
	GetActiveByLogin(ctx context.Context, login string) (*domain.Account, error)

	// ListActive returns all active accounts ordered by creation time ascending.
	ListActive(ctx context.Context) ([]*domain.Account, error)

	// ListActiveOlderThan returns active accounts whose birthday is at or
	// before the cutoff. Accounts without a birthday are excluded.
	ListActiveOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.Account, error)

	// UpdateName sets a new display name on an active account and stamps
	// the modification audit pair.
	// Returns ErrAccountNotFound if the account is missing or revoked.
	UpdateName(ctx context.Context, login, name, actor string, now time.Time) error

	// UpdatePassword sets a new hashed password on an active account and
	// stamps the modification audit pair.
	// Returns ErrAccountNotFound if the account is missing or revoked.
	UpdatePassword(ctx context.Context, login, hashedPassword, actor string, now time.Time) error

	// UpdateLogin moves an active account to a new login and stamps the
	// modification audit pair.
	// Returns ErrLoginExists if the new login is already taken.
	// Returns ErrAccountNotFound if the old login is missing or revoked.
	UpdateLogin(ctx context.Context, oldLogin, newLogin, actor string, now time.Time) error

	// SoftDelete stamps the revocation audit pair on an active account.
	// Returns ErrAccountNotFound if the account is missing or already revoked.
	SoftDelete(ctx context.Context, login, actor string, now time.Time) error

	// Restore clears the revocation audit pair on a revoked account.
	// The modification audit pair is left untouched.
	// Returns ErrAccountNotFound if the account is missing or already active.
	Restore(ctx context.Context, login string) error

	// WithTx returns a new AccountStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically a service).
	WithTx(tx *sql.Tx) AccountStore
}
