package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dhermica-backend/internal/config"
	"dhermica-backend/internal/validation"
)

func testHandler() *Handler {
	cfg := &config.Config{
		AdminUser:         "admin",
		AdminPassword:     "s3cret",
		JWTSecret:         "test-secret",
		AccessTTLMinutes:  15,
		RefreshTTLMinutes: 60,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(cfg, validation.New(), log)
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginRefreshCookieCoversBothMounts(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest("POST", "/api/admin/login",
		strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	refresh := cookieByName(rec.Result().Cookies(), "dhermica_refresh")
	if refresh == nil {
		t.Fatalf("refresh cookie not set")
	}
	// Routes are mounted under /api and /api/v1; a narrower path would
	// strand the cookie on one of them.
	if refresh.Path != "/api" {
		t.Fatalf("refresh cookie path %q does not reach both mounts", refresh.Path)
	}
	if !refresh.HttpOnly {
		t.Fatalf("refresh cookie must be http-only")
	}

	access := cookieByName(rec.Result().Cookies(), "dhermica_access")
	if access == nil {
		t.Fatalf("access cookie not set")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest("POST", "/api/admin/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookies should be set on a failed login")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := testHandler()
	manager := h.manager()

	access, err := manager.NewAccessToken("admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "dhermica_refresh", Value: access})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != 401 {
		t.Fatalf("an access token must not mint new sessions, got %d", rec.Code)
	}
}

func TestRefreshRotatesCookies(t *testing.T) {
	h := testHandler()
	manager := h.manager()

	refresh, err := manager.NewRefreshToken("admin")
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "dhermica_refresh", Value: refresh})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cookieByName(rec.Result().Cookies(), "dhermica_access") == nil {
		t.Fatalf("refresh must issue a new access cookie")
	}
	if c := cookieByName(rec.Result().Cookies(), "dhermica_refresh"); c == nil || c.Path != "/api" {
		t.Fatalf("refresh must rotate the refresh cookie on the shared path")
	}
}
