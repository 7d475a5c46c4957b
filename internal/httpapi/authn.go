package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/carlomkt/codisec-itca/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/api/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// withAuth verifies the bearer token on every non-public route and stores the
// session claims in the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermission writes a 401/403 response and returns false when the
// caller does not hold the given page permission.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, perm string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	if !claims.HasPermission(perm) {
		writeError(w, r, http.StatusForbidden, "missing permission "+perm)
		return false
	}
	return true
}

// ensureAuthenticated only requires a valid session, with no page check.
func (a *API) ensureAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := auth.ClaimsFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
