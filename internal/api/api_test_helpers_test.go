package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/uservault/uservault-api/internal/api"
	apimiddleware "github.com/uservault/uservault-api/internal/api/middleware"
	"github.com/uservault/uservault-api/internal/config"
	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/service"
	"github.com/uservault/uservault-api/internal/service/auth"
	"github.com/uservault/uservault-api/internal/store"
)

const testJWTSecret = "test-secret-key-thats-long-enough-for-hs256"

// memoryAccountStore is an in-memory AccountStore honoring the same
// lifecycle rules as the Postgres implementation.
type memoryAccountStore struct {
	accounts map[string]*domain.Account // keyed by login
}

var _ store.AccountStore = (*memoryAccountStore)(nil)

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: make(map[string]*domain.Account)}
}

func (m *memoryAccountStore) Create(_ context.Context, account *domain.Account) error {
	if _, ok := m.accounts[account.Login]; ok {
		return store.ErrLoginExists
	}
	clone := *account
	m.accounts[account.Login] = &clone
	return nil
}

func (m *memoryAccountStore) GetByLogin(_ context.Context, login string) (*domain.Account, error) {
	account, ok := m.accounts[login]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (m *memoryAccountStore) GetActiveByLogin(
	ctx context.Context,
	login string,
) (*domain.Account, error) {
	account, err := m.GetByLogin(ctx, login)
	if err != nil || !account.IsActive() {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func (m *memoryAccountStore) ListActive(_ context.Context) ([]*domain.Account, error) {
	var active []*domain.Account
	for _, account := range m.accounts {
		if account.IsActive() {
			clone := *account
			active = append(active, &clone)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}

func (m *memoryAccountStore) ListActiveOlderThan(
	_ context.Context,
	cutoff time.Time,
) ([]*domain.Account, error) {
	var matched []*domain.Account
	for _, account := range m.accounts {
		if account.IsActive() && account.Birthday != nil && !account.Birthday.After(cutoff) {
			clone := *account
			matched = append(matched, &clone)
		}
	}
	return matched, nil
}

func (m *memoryAccountStore) UpdateName(
	_ context.Context,
	login, name, actor string,
	now time.Time,
) error {
	account, ok := m.accounts[login]
	if !ok || !account.IsActive() {
		return store.ErrAccountNotFound
	}
	account.Name = name
	account.ModifiedAt = &now
	account.ModifiedBy = &actor
	return nil
}

func (m *memoryAccountStore) UpdatePassword(
	_ context.Context,
	login, hashedPassword, actor string,
	now time.Time,
) error {
	account, ok := m.accounts[login]
	if !ok || !account.IsActive() {
		return store.ErrAccountNotFound
	}
	account.HashedPassword = hashedPassword
	account.ModifiedAt = &now
	account.ModifiedBy = &actor
	return nil
}

func (m *memoryAccountStore) UpdateLogin(
	_ context.Context,
	oldLogin, newLogin, actor string,
	now time.Time,
) error {
	if _, ok := m.accounts[newLogin]; ok {
		return store.ErrLoginExists
	}
	account, ok := m.accounts[oldLogin]
	if !ok || !account.IsActive() {
		return store.ErrAccountNotFound
	}
	delete(m.accounts, oldLogin)
	account.Login = newLogin
	account.ModifiedAt = &now
	account.ModifiedBy = &actor
	m.accounts[newLogin] = account
	return nil
}

func (m *memoryAccountStore) SoftDelete(
	_ context.Context,
	login, actor string,
	now time.Time,
) error {
	account, ok := m.accounts[login]
	if !ok || !account.IsActive() {
		return store.ErrAccountNotFound
	}
	account.RevokedAt = &now
	account.RevokedBy = &actor
	return nil
}

func (m *memoryAccountStore) Restore(_ context.Context, login string) error {
	account, ok := m.accounts[login]
	if !ok || account.IsActive() {
		return store.ErrAccountNotFound
	}
	account.RevokedAt = nil
	account.RevokedBy = nil
	return nil
}

func (m *memoryAccountStore) WithTx(_ *sql.Tx) store.AccountStore {
	return m
}

// testEnv bundles the services and router used by handler tests.
type testEnv struct {
	store          *memoryAccountStore
	accountService service.AccountService
	jwtService     auth.JWTService
	router         http.Handler
}

// newTestEnv builds a router wired exactly like the production one, backed
// by an in-memory store. bcrypt cost is minimal to keep tests fast.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	accountStore := newMemoryAccountStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accountService := service.NewAccountService(
		accountStore,
		nil,
		auth.NewBcryptHasher(4),
		logger,
	)

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   testJWTSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 60 * 24,
	})
	require.NoError(t, err)

	authHandler := api.NewAuthHandler(accountService, jwtService, time.Hour)
	accountHandler := api.NewAccountHandler(accountService)
	authMiddleware := apimiddleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users/validate", accountHandler.ValidateSelf)
			r.Put("/users/{login}/name", accountHandler.Rename)
			r.Put("/users/{login}/password", accountHandler.ChangePassword)
			r.Put("/users/{login}/login", accountHandler.ChangeLogin)

			r.Group(func(r chi.Router) {
				r.Use(apimiddleware.RequireAdmin)
				r.Post("/users", accountHandler.Create)
				r.Get("/users", accountHandler.List)
				r.Get("/users/older-than/{age}", accountHandler.ListOlderThan)
				r.Get("/users/{login}", accountHandler.Get)
				r.Delete("/users/{login}", accountHandler.SoftDelete)
				r.Put("/users/{login}/restore", accountHandler.Restore)
			})
		})
	})

	return &testEnv{
		store:          accountStore,
		accountService: accountService,
		jwtService:     jwtService,
		router:         r,
	}
}

// seedAccount creates an account directly through the service layer.
func (e *testEnv) seedAccount(t *testing.T, login, password string, admin bool) *domain.Account {
	t.Helper()
	account, err := e.accountService.Create(context.Background(), service.CreateAccountParams{
		Login:    login,
		Password: password,
		Name:     "Testuser",
		Admin:    admin,
	}, "seed")
	require.NoError(t, err)
	return account
}

// tokenFor issues an access token for the given account.
func (e *testEnv) tokenFor(t *testing.T, account *domain.Account) string {
	t.Helper()
	token, err := e.jwtService.GenerateToken(context.Background(), account)
	require.NoError(t, err)
	return token
}

// doJSON performs a request with an optional JSON body and bearer token.
func (e *testEnv) doJSON(
	t *testing.T,
	method, path, token string,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a response body into v.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
