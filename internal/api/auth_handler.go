package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/uservault/uservault-api/internal/api/shared"
	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/platform/logger"
	"github.com/uservault/uservault-api/internal/service"
	"github.com/uservault/uservault-api/internal/service/auth"
	"github.com/uservault/uservault-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	accountService service.AccountService
	jwtService     auth.JWTService
	tokenLifetime  time.Duration
	validator      *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	accountService service.AccountService,
	jwtService auth.JWTService,
	tokenLifetime time.Duration,
) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		jwtService:     jwtService,
		tokenLifetime:  tokenLifetime,
		validator:      validator.New(),
	}
}

// Login handles the /auth/login endpoint. Credentials that do not resolve to
// an active account are rejected without revealing whether the login exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	account, err := h.accountService.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error("failed to authenticate account", "error", err, "login", req.Login)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	h.respondWithTokenPair(w, r, account)
}

// RefreshToken handles the /auth/refresh endpoint. A valid refresh token is
// exchanged for a fresh token pair, provided the account is still active and
// its login has not changed since the token was issued.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	account, err := h.accountService.GetByLogin(r.Context(), claims.Login)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		log.Error("failed to load account for token refresh", "error", err, "login", claims.Login)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to refresh token")
		return
	}
	if !account.IsActive() || account.ID != claims.AccountID {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	h.respondWithTokenPair(w, r, account)
}

func (h *AuthHandler) respondWithTokenPair(w http.ResponseWriter, r *http.Request, account *domain.Account) {
	log := logger.FromContext(r.Context())

	accessToken, err := h.jwtService.GenerateToken(r.Context(), account)
	if err != nil {
		log.Error("failed to generate token", "error", err, "account_id", account.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), account)
	if err != nil {
		log.Error("failed to generate refresh token", "error", err, "account_id", account.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(h.tokenLifetime).UTC().Format(time.RFC3339),
	})
}
