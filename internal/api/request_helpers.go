package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uservault/uservault-api/internal/api/middleware"
	"github.com/uservault/uservault-api/internal/api/shared"
	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/platform/logger"
	"github.com/uservault/uservault-api/internal/service/auth"
)

// getClaims extracts the verified token claims placed in the request context
// by the authentication middleware. It writes a 401 response when absent.
func getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		log := logger.FromContext(r.Context())
		log.Warn("claims not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return claims, true
}

// getPathLogin extracts the login path parameter. The login pattern is
// checked here so malformed identifiers fail with 400 before any lookup.
func getPathLogin(w http.ResponseWriter, r *http.Request) (string, bool) {
	login := chi.URLParam(r, "login")
	if err := domain.ValidateLogin(login); err != nil {
		HandleAPIError(w, r, err, "")
		return "", false
	}
	return login, true
}

// requireManageRights enforces the self-or-admin rule for the target login.
func requireManageRights(w http.ResponseWriter, r *http.Request, claims *auth.Claims, targetLogin string) bool {
	if !auth.CanManageAccount(claims, targetLogin) {
		shared.RespondWithError(w, r, http.StatusForbidden, "Insufficient rights")
		return false
	}
	return true
}
