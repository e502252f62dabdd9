package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/uservault/uservault-api/internal/api/shared"
	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/platform/logger"
	"github.com/uservault/uservault-api/internal/service"
	"github.com/uservault/uservault-api/internal/service/auth"
	"github.com/uservault/uservault-api/internal/store"
)

// AccountHandler handles account directory API requests.
type AccountHandler struct {
	accountService service.AccountService
	validator      *validator.Validate
}

// NewAccountHandler creates a new AccountHandler with the given dependencies.
func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		validator:      validator.New(),
	}
}

// Create handles POST /api/users. Admin only (enforced by the router).
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	account, err := h.accountService.Create(r.Context(), service.CreateAccountParams{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
		Gender:   req.Gender,
		Birthday: req.Birthday,
		Admin:    req.Admin,
	}, claims.Login)
	if err != nil {
		if errors.Is(err, service.ErrLoginTaken) {
			shared.RespondWithError(w, r, http.StatusConflict, "Login already exists")
			return
		}
		if domain.IsValidationError(err) {
			HandleAPIError(w, r, err, "")
			return
		}
		log.Error("failed to create account", "error", err, "login", req.Login)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create account")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateAccountResponse{ID: account.ID})
}

// ValidateSelf handles GET /api/users/validate. The caller may only check
// their own credentials; a mismatched login is rejected before any lookup.
func (h *AccountHandler) ValidateSelf(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	claims, ok := getClaims(w, r)
	if !ok {
		return
	}

	login := r.URL.Query().Get("login")
	password := r.URL.Query().Get("password")
	if login == "" || password == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "login and password are required")
		return
	}
	if !auth.IsSelf(claims, login) {
		shared.RespondWithError(w, r, http.StatusForbidden, "Insufficient rights")
		return
	}

	account, err := h.accountService.Authenticate(r.Context(), login, password)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error("failed to validate credentials", "error", err, "login", login)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to validate credentials")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewProfileResponse(account))
}

// Rename handles PUT /api/users/{login}/name. Self or admin.
func (h *AccountHandler) Rename(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}
	login, ok := getPathLogin(w, r)
	if !ok {
		return
	}
	if !requireManageRights(w, r, claims, login) {
		return
	}

	var req RenameRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.accountService.Rename(r.Context(), login, req.Name, claims.Login); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /api/users/{login}/password. Self or admin.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}
	login, ok := getPathLogin(w, r)
	if !ok {
		return
	}
	if !requireManageRights(w, r, claims, login) {
		return
	}

	var req ChangePasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.accountService.ChangePassword(r.Context(), login, req.Password, claims.Login); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeLogin handles PUT /api/users/{login}/login. Self or admin. A taken
// new login and a missing or revoked old login both answer 409 so the
// response does not reveal which login exists.
func (h *AccountHandler) ChangeLogin(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}
	login, ok := getPathLogin(w, r)
	if !ok {
		return
	}
	if !requireManageRights(w, r, claims, login) {
		return
	}

	var req ChangeLoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.accountService.ChangeLogin(r.Context(), login, req.NewLogin, claims.Login); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/users. Admin only. Revoked accounts are excluded.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	accounts, err := h.accountService.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list accounts", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewProfileResponses(accounts))
}

// Get handles GET /api/users/{login}. Admin only. Revoked accounts remain
// visible to admins.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	login, ok := getPathLogin(w, r)
	if !ok {
		return
	}

	account, err := h.accountService.GetByLogin(r.Context(), login)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewProfileResponse(account))
}

// ListOlderThan handles GET /api/users/older-than/{age}. Admin only.
func (h *AccountHandler) ListOlderThan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	age, err := strconv.Atoi(chi.URLParam(r, "age"))
	if err != nil || age < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "age must be a non-negative integer")
		return
	}

	accounts, err := h.accountService.ListOlderThan(r.Context(), age)
	if err != nil {
		log.Error("failed to list accounts by age", "error", err, "age", age)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewProfileResponses(accounts))
}

// SoftDelete handles DELETE /api/users/{login}. Admin only.
func (h *AccountHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := getClaims(w, r)
	if !ok {
		return
	}
	login, ok := getPathLogin(w, r)
	if !ok {
		return
	}

	if err := h.accountService.SoftDelete(r.Context(), login, claims.Login); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles PUT /api/users/{login}/restore. Admin only.
func (h *AccountHandler) Restore(w http.ResponseWriter, r *http.Request) {
	login, ok := getPathLogin(w, r)
	if !ok {
		return
	}

	if err := h.accountService.Restore(r.Context(), login); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
