package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
)

// CSRF protects the cookie-authenticated admin panel using the double-submit
// technique: the token cookie is readable by the panel, which echoes it in
// Header on every write.
type CSRF struct {
	Header string
	Cookie string
	Domain string
	Secure bool
}

func (c CSRF) headerName() string {
	if h := strings.TrimSpace(c.Header); h != "" {
		return h
	}
	return "X-CSRF-Token"
}

func (c CSRF) cookieName() string {
	if n := strings.TrimSpace(c.Cookie); n != "" {
		return n
	}
	return "csrf_token"
}

// Issue mints a fresh token, sets it as a cookie and returns it.
func (c CSRF) Issue(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName(),
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// TokenHandler serves GET /api/v1/admin/csrf-token.
func (c CSRF) TokenHandler(w http.ResponseWriter, r *http.Request) {
	token, err := c.Issue(w)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not issue csrf token", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"csrfToken": token, "header": c.headerName()})
}

// Middleware enforces that non-idempotent requests include a CSRF token header matching the cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := c.headerName()
	cookieName := c.cookieName()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		// bearer clients are not exposed to cross-site form posts
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf token", nil)
			return
		}
		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_MISSING", "missing csrf cookie", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "invalid csrf token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
