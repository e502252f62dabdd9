package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/service/auth"
	"github.com/uservault/uservault-api/internal/store"
)

// CreateAccountParams carries the fields for a new account.
type CreateAccountParams struct {
	Login    string
	Password string
	Name     string
	Gender   int
	Birthday *time.Time
	Admin    bool
}

// AccountService provides the account lifecycle operations.
// Every mutation takes the acting login explicitly and records it in the
// audit trail; there is no ambient caller state.
type AccountService interface {
	// Create adds a new active account. The password is validated in
	// plaintext form and stored as a bcrypt hash.
	// Returns ErrLoginTaken if the login is held by any account.
	Create(ctx context.Context, params CreateAccountParams, actor string) (*domain.Account, error)

	// Authenticate verifies a login/password pair against active accounts.
	// Returns store.ErrAccountNotFound for a missing login, a revoked
	// account, and a wrong password alike; callers cannot tell which.
	Authenticate(ctx context.Context, login, password string) (*domain.Account, error)

	// GetByLogin retrieves an account regardless of lifecycle state.
	GetByLogin(ctx context.Context, login string) (*domain.Account, error)

	// ListActive returns all active accounts ordered by creation time ascending.
	ListActive(ctx context.Context) ([]*domain.Account, error)

	// ListOlderThan returns active accounts at least age years old.
	// Accounts without a birthday are excluded.
	ListOlderThan(ctx context.Context, age int) ([]*domain.Account, error)

	// Rename changes the display name of an active account.
	Rename(ctx context.Context, login, newName, actor string) error

	// ChangePassword sets a new password on an active account.
	ChangePassword(ctx context.Context, login, newPassword, actor string) error

	// ChangeLogin moves an active account to a new login.
	// Returns ErrLoginConflict if the new login is taken or the old login
	// is missing or revoked.
	ChangeLogin(ctx context.Context, oldLogin, newLogin, actor string) error

	// SoftDelete revokes an active account.
	SoftDelete(ctx context.Context, login, actor string) error

	// Restore re-activates a revoked account.
	Restore(ctx context.Context, login string) error
}

// AccountServiceImpl implements the AccountService interface.
type AccountServiceImpl struct {
	accountStore store.AccountStore
	db           *sql.DB
	hasher       auth.PasswordHasher
	logger       *slog.Logger
	timeFunc     func() time.Time // Injectable for testing
}

// Ensure AccountServiceImpl implements AccountService
var _ AccountService = (*AccountServiceImpl)(nil)

// NewAccountService creates a new AccountService.
// db may be nil in tests; mutations then run directly against the store
// without an enclosing transaction.
func NewAccountService(
	accountStore store.AccountStore,
	db *sql.DB,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountStore: accountStore,
		db:           db,
		hasher:       hasher,
		logger:       logger.With("component", "account_service"),
		timeFunc:     func() time.Time { return time.Now().UTC() },
	}
}

// runInTx executes fn against a transaction-scoped store.
func (s *AccountServiceImpl) runInTx(
	ctx context.Context,
	fn func(accounts store.AccountStore) error,
) error {
	if s.db == nil {
		return fn(s.accountStore)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(s.accountStore.WithTx(tx))
	})
}

// Create implements AccountService.Create
func (s *AccountServiceImpl) Create(
	ctx context.Context,
	params CreateAccountParams,
	actor string,
) (*domain.Account, error) {
	account, err := domain.NewAccount(
		params.Login,
		params.Password,
		params.Name,
		params.Gender,
		params.Birthday,
		params.Admin,
		actor,
	)
	if err != nil {
		s.logger.Debug("account creation rejected by validation",
			"error", err,
			"login", params.Login)
		return nil, err
	}

	hashed, err := s.hasher.Hash(account.Password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"login", params.Login)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	account.HashedPassword = hashed
	account.Password = ""

	err = s.runInTx(ctx, func(accounts store.AccountStore) error {
		return accounts.Create(ctx, account)
	})
	if err != nil {
		if errors.Is(err, store.ErrLoginExists) {
			s.logger.Debug("login already taken", "login", params.Login)
			return nil, ErrLoginTaken
		}
		s.logger.Error("failed to create account",
			"error", err,
			"login", params.Login)
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created",
		"account_id", account.ID,
		"login", account.Login,
		"actor", actor)
	return account, nil
}

// Authenticate implements AccountService.Authenticate
func (s *AccountServiceImpl) Authenticate(
	ctx context.Context,
	login, password string,
) (*domain.Account, error) {
	account, err := s.accountStore.GetActiveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			s.logger.Debug("authentication failed: no active account", "login", login)
			return nil, store.ErrAccountNotFound
		}
		s.logger.Error("failed to look up account for authentication",
			"error", err,
			"login", login)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.hasher.Compare(account.HashedPassword, password); err != nil {
		// Reported identically to a missing login so callers cannot probe
		// which logins exist.
		s.logger.Debug("authentication failed: password mismatch", "login", login)
		return nil, store.ErrAccountNotFound
	}

	return account, nil
}

// GetByLogin implements AccountService.GetByLogin
func (s *AccountServiceImpl) GetByLogin(
	ctx context.Context,
	login string,
) (*domain.Account, error) {
	return s.accountStore.GetByLogin(ctx, login)
}

// ListActive implements AccountService.ListActive
func (s *AccountServiceImpl) ListActive(ctx context.Context) ([]*domain.Account, error) {
	return s.accountStore.ListActive(ctx)
}

// ListOlderThan implements AccountService.ListOlderThan
func (s *AccountServiceImpl) ListOlderThan(
	ctx context.Context,
	age int,
) ([]*domain.Account, error) {
	cutoff := s.timeFunc().AddDate(-age, 0, 0)
	return s.accountStore.ListActiveOlderThan(ctx, cutoff)
}

// Rename implements AccountService.Rename
func (s *AccountServiceImpl) Rename(ctx context.Context, login, newName, actor string) error {
	if err := domain.ValidateName(newName); err != nil {
		return err
	}

	err := s.runInTx(ctx, func(accounts store.AccountStore) error {
		return accounts.UpdateName(ctx, login, newName, actor, s.timeFunc())
	})
	if err != nil {
		return err
	}

	s.logger.Info("account renamed", "login", login, "actor", actor)
	return nil
}

// ChangePassword implements AccountService.ChangePassword
func (s *AccountServiceImpl) ChangePassword(
	ctx context.Context,
	login, newPassword, actor string,
) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err, "login", login)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.runInTx(ctx, func(accounts store.AccountStore) error {
		return accounts.UpdatePassword(ctx, login, hashed, actor, s.timeFunc())
	})
	if err != nil {
		return err
	}

	s.logger.Info("account password changed", "login", login, "actor", actor)
	return nil
}

// ChangeLogin implements AccountService.ChangeLogin
func (s *AccountServiceImpl) ChangeLogin(
	ctx context.Context,
	oldLogin, newLogin, actor string,
) error {
	if err := domain.ValidateLogin(newLogin); err != nil {
		return err
	}

	err := s.runInTx(ctx, func(accounts store.AccountStore) error {
		return accounts.UpdateLogin(ctx, oldLogin, newLogin, actor, s.timeFunc())
	})
	if err != nil {
		// A taken new login and a missing or revoked old login collapse
		// into one signal so the response does not reveal which occurred.
		if errors.Is(err, store.ErrLoginExists) || errors.Is(err, store.ErrAccountNotFound) {
			s.logger.Debug("login change conflict",
				"old_login", oldLogin,
				"new_login", newLogin)
			return ErrLoginConflict
		}
		s.logger.Error("failed to change login",
			"error", err,
			"old_login", oldLogin)
		return fmt.Errorf("failed to change login: %w", err)
	}

	s.logger.Info("account login changed",
		"old_login", oldLogin,
		"new_login", newLogin,
		"actor", actor)
	return nil
}

// SoftDelete implements AccountService.SoftDelete
func (s *AccountServiceImpl) SoftDelete(ctx context.Context, login, actor string) error {
	err := s.runInTx(ctx, func(accounts store.AccountStore) error {
		return accounts.SoftDelete(ctx, login, actor, s.timeFunc())
	})
	if err != nil {
		return err
	}

	s.logger.Warn("account revoked", "login", login, "actor", actor)
	return nil
}

// Restore implements AccountService.Restore
func (s *AccountServiceImpl) Restore(ctx context.Context, login string) error {
	err := s.runInTx(ctx, func(accounts store.AccountStore) error {
		return accounts.Restore(ctx, login)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account restored", "login", login)
	return nil
}
