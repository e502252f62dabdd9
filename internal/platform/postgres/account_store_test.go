package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/store"
)

var accountRowColumns = []string{
	"id", "login", "hashed_password", "name", "gender", "birthday", "admin",
	"created_at", "created_by", "modified_at", "modified_by", "revoked_at", "revoked_by",
}

func newTestStore(t *testing.T) (*PostgresAccountStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresAccountStore(db, logger), mock
}

func validAccount(t *testing.T) *domain.Account {
	t.Helper()
	account, err := domain.NewAccount("nick", "secret123", "Nick", 1, nil, false, "admin")
	require.NoError(t, err)
	account.HashedPassword = "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefake"
	account.Password = ""
	return account
}

func accountRow(account *domain.Account) *sqlmock.Rows {
	return sqlmock.NewRows(accountRowColumns).AddRow(
		account.ID.String(), account.Login, account.HashedPassword, account.Name,
		account.Gender, nil, account.Admin,
		account.CreatedAt, account.CreatedBy,
		nil, nil, nil, nil,
	)
}

func TestCreate(t *testing.T) {
	t.Run("inserts a valid account", func(t *testing.T) {
		s, mock := newTestStore(t)
		account := validAccount(t)

		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(
				account.ID, account.Login, account.HashedPassword, account.Name,
				account.Gender, nil, account.Admin,
				account.CreatedAt, account.CreatedBy,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violations to ErrLoginExists", func(t *testing.T) {
		s, mock := newTestStore(t)
		account := validAccount(t)

		mock.ExpectExec(`INSERT INTO accounts`).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.Create(context.Background(), account)
		assert.ErrorIs(t, err, store.ErrLoginExists)
	})

	t.Run("rejects an invalid account before touching the database", func(t *testing.T) {
		s, _ := newTestStore(t)
		account := validAccount(t)
		account.Login = ""

		err := s.Create(context.Background(), account)
		assert.ErrorIs(t, err, domain.ErrEmptyLogin)
	})
}

func TestGetByLogin(t *testing.T) {
	t.Run("returns the account", func(t *testing.T) {
		s, mock := newTestStore(t)
		account := validAccount(t)

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE login = \$1$`).
			WithArgs("nick").
			WillReturnRows(accountRow(account))

		got, err := s.GetByLogin(context.Background(), "nick")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, "nick", got.Login)
		assert.Nil(t, got.RevokedAt)
	})

	t.Run("missing account is ErrAccountNotFound", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE login = \$1$`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetByLogin(context.Background(), "ghost")
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}

func TestGetActiveByLogin(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE login = \$1 AND revoked_at IS NULL`).
		WithArgs("nick").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetActiveByLogin(context.Background(), "nick")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateName(t *testing.T) {
	now := time.Now().UTC()

	t.Run("stamps the modification pair", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts\s+SET name = \$2, modified_at = \$3, modified_by = \$4\s+WHERE login = \$1 AND revoked_at IS NULL`).
			WithArgs("nick", "Nicholas", now, "admin").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateName(context.Background(), "nick", "Nicholas", "admin", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means missing or revoked", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateName(context.Background(), "nick", "Nicholas", "admin", now)
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}

func TestUpdateLogin(t *testing.T) {
	now := time.Now().UTC()

	t.Run("unique violation is ErrLoginExists", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts`).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.UpdateLogin(context.Background(), "nick", "taken", "admin", now)
		assert.ErrorIs(t, err, store.ErrLoginExists)
	})

	t.Run("zero rows is ErrAccountNotFound", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.UpdateLogin(context.Background(), "ghost", "fresh", "admin", now)
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}

func TestSoftDeleteAndRestore(t *testing.T) {
	now := time.Now().UTC()

	t.Run("soft delete stamps the revocation pair", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts\s+SET revoked_at = \$2, revoked_by = \$3\s+WHERE login = \$1 AND revoked_at IS NULL`).
			WithArgs("nick", now, "admin").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.SoftDelete(context.Background(), "nick", "admin", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("restore clears the revocation pair only", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts\s+SET revoked_at = NULL, revoked_by = NULL\s+WHERE login = \$1 AND revoked_at IS NOT NULL`).
			WithArgs("nick").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Restore(context.Background(), "nick"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("restoring an active account is ErrAccountNotFound", func(t *testing.T) {
		s, mock := newTestStore(t)

		mock.ExpectExec(`UPDATE accounts`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Restore(context.Background(), "nick")
		assert.ErrorIs(t, err, store.ErrAccountNotFound)
	})
}

func TestListActive(t *testing.T) {
	s, mock := newTestStore(t)
	account := validAccount(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE revoked_at IS NULL\s+ORDER BY created_at ASC`).
		WillReturnRows(accountRow(account))

	accounts, err := s.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "nick", accounts[0].Login)
}

func TestListActiveOlderThan(t *testing.T) {
	s, mock := newTestStore(t)
	cutoff := time.Now().UTC().AddDate(-30, 0, 0)

	mock.ExpectQuery(`SELECT .+ FROM accounts\s+WHERE revoked_at IS NULL AND birthday IS NOT NULL AND birthday <= \$1`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	accounts, err := s.ListActiveOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestWithTx(t *testing.T) {
	s, mock := newTestStore(t)

	db, txMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	txMock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	// WithTx must return a store bound to the transaction, not the pool.
	txStore := s.WithTx(tx)
	assert.NotSame(t, store.AccountStore(s), txStore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
