package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/catalogo-mayorista/internal/ratelimit"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Handler{
		Service:          newTestService(t),
		Attempts:         &ratelimit.SlidingWindow{Client: client, Prefix: "login:"},
		Logger:           zerolog.Nop(),
		AccessCookieName: "access_token",
		CookieSameSite:   http.SameSiteLaxMode,
	}
}

func login(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.5:5555"
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginSetsCookieAndGuardsAdminRoutes(t *testing.T) {
	h := newTestHandler(t)
	rec := login(h, `{"email":"admin@maycam.test","password":"paletas-2025"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data LoginResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "access_token" || cookies[0].Value != resp.Data.AccessToken {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	mw := Middleware{Service: h.Service, AccessCookie: "access_token"}
	guarded := mw.RequireAdmin(http.HandlerFunc(h.Me))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	guarded.ServeHTTP(me, req)
	if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), "admin@maycam.test") {
		t.Fatalf("unexpected me response %d: %s", me.Code, me.Body.String())
	}

	bearer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	bearer.Header.Set("Authorization", "Bearer "+resp.Data.AccessToken)
	me = httptest.NewRecorder()
	guarded.ServeHTTP(me, bearer)
	if me.Code != http.StatusOK {
		t.Fatalf("expected bearer token accepted, got %d", me.Code)
	}

	anon := httptest.NewRecorder()
	guarded.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", anon.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newTestHandler(t)
	rec := login(h, `{"email":"admin@maycam.test","password":"wrong-one"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie on failed login")
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	h := newTestHandler(t)
	for i := 0; i < LoginAttempts; i++ {
		if rec := login(h, `{"email":"admin@maycam.test","password":"wrong-one"}`); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	rec := login(h, `{"email":"admin@maycam.test","password":"paletas-2025"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}
