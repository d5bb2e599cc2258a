package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// Middleware guards admin routes with the access token issued at login.
type Middleware struct {
	Service      *Service
	AccessCookie string
}

// RequireAdmin rejects requests without a valid admin token and stores the
// admin subject on the request context.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticate(r)
		if err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				common.WriteError(w, appErr)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithSubject(r.Context(), subject)))
	})
}

func (m Middleware) authenticate(r *http.Request) (string, error) {
	if m.Service == nil {
		return "", errors.New("auth: service not configured")
	}
	token := m.extractToken(r)
	if token == "" {
		return "", errNoToken
	}
	return m.Service.ParseAccessToken(token)
}

func (m Middleware) extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if m.AccessCookie != "" {
		if cookie, err := r.Cookie(m.AccessCookie); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
	}
	return ""
}
