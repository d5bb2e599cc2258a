package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestCSRFMiddlewareBlocksMissingToken(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareRejectsMismatch(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/1", nil)
	req.Header.Set("X-CSRF-Token", "one")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "two"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestCSRFIssuedTokenRoundTrip(t *testing.T) {
	csrf := CSRF{}
	issue := httptest.NewRecorder()
	csrf.TokenHandler(issue, httptest.NewRequest(http.MethodGet, "/api/v1/admin/csrf-token", nil))
	if issue.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", issue.Code)
	}
	var resp struct {
		Token  string `json:"csrfToken"`
		Header string `json:"header"`
	}
	if err := json.Unmarshal(issue.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cookies := issue.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != resp.Token || cookies[0].HttpOnly {
		t.Fatalf("unexpected cookie %+v", cookies)
	}

	handler := csrf.Middleware(okHandler(http.StatusOK))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", nil)
	req.Header.Set(resp.Header, resp.Token)
	req.AddCookie(cookies[0])
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCSRFMiddlewareSkipsSafeAndBearer(t *testing.T) {
	handler := CSRF{}.Middleware(okHandler(http.StatusAccepted))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", nil)
	req.Header.Set("Authorization", "Bearer abc.def")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for bearer request, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected GET to pass, got %d", rr.Code)
	}
}
