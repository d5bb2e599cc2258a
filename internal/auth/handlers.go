package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/common"
	"github.com/noah-isme/catalogo-mayorista/internal/ratelimit"
)

// Default login attempts allowed per client address inside LoginWindow.
const (
	LoginAttempts = 5
	LoginWindow   = time.Minute
)

// Handler exposes the admin session endpoints.
type Handler struct {
	Service          *Service
	Attempts         *ratelimit.SlidingWindow
	MaxAttempts      int
	Window           time.Duration
	Logger           zerolog.Logger
	AccessCookieName string
	CookieDomain     string
	CookieSecure     bool
	CookieSameSite   http.SameSite
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	ip := common.ClientIP(r)
	if h.Attempts != nil {
		decision, err := h.Attempts.Allow(r.Context(), ip, h.window(), h.maxAttempts())
		if err != nil {
			h.Logger.Warn().Err(err).Msg("login limiter unavailable")
		} else if !decision.Allowed {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts", nil)
			return
		}
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Logger.Info().Str("ip", ip).Msg("admin login rejected")
		common.WriteError(w, err)
		return
	}
	if h.Attempts != nil {
		_ = h.Attempts.Reset(r.Context(), ip)
	}
	h.setAccessCookie(w, result.AccessToken, result.AccessExpiry)
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) maxAttempts() int {
	if h.MaxAttempts > 0 {
		return h.MaxAttempts
	}
	return LoginAttempts
}

func (h *Handler) window() time.Duration {
	if h.Window > 0 {
		return h.Window
	}
	return LoginWindow
}

// Logout handles POST /api/v1/admin/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setAccessCookie(w, "", time.Time{})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/admin/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, ok := common.Subject(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": Admin{Email: subject, Role: adminRole}})
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, value string, expires time.Time) {
	if h.AccessCookieName == "" {
		return
	}
	cookie := &http.Cookie{
		Name:     h.AccessCookieName,
		Value:    value,
		Domain:   h.CookieDomain,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
	}
	http.SetCookie(w, cookie)
}
