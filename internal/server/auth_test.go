package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursebuddy/coursebuddy/config"
)

func TestLoginRedirectsToCanvas(t *testing.T) {
	h := &AuthHandler{Canvas: config.CanvasConfig{
		BaseURL:     "https://canvas.example.edu",
		ClientID:    "client-1",
		RedirectURI: "https://app.example.edu/auth/canvas/callback",
	}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/canvas/login", nil)
	rec := httptest.NewRecorder()
	if err := h.login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "https://canvas.example.edu/login/oauth2/auth?client_id=client-1") {
		t.Fatalf("unexpected redirect target %q", loc)
	}
}

func TestCallbackExchangesCodeAndSetsCookie(t *testing.T) {
	canvas := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/oauth2/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		if r.Form.Get("code") != "abc" || r.Form.Get("grant_type") != "authorization_code" {
			http.Error(w, "bad form", 400)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok",
			"user":         map[string]interface{}{"id": 7, "name": "Ada"},
		})
	}))
	defer canvas.Close()

	h := &AuthHandler{
		Canvas: config.CanvasConfig{
			BaseURL:      canvas.URL,
			ClientID:     "client-1",
			ClientSecret: "secret",
			RedirectURI:  "https://app.example.edu/auth/canvas/callback",
		},
		Secret: []byte("jwt-secret"),
		HTTP:   canvas.Client(),
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/canvas/callback?code=abc", nil)
	rec := httptest.NewRecorder()
	if err := h.callback(e.NewContext(req, rec)); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["user"] != "Ada" || payload["token"] == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, ck := range cookies {
		if ck.Name == "auth" && ck.Value != "" && ck.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatalf("auth cookie not set: %+v", cookies)
	}
}

func TestCallbackRequiresCode(t *testing.T) {
	h := &AuthHandler{Canvas: config.CanvasConfig{BaseURL: "https://canvas.example.edu"}}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/canvas/callback", nil)
	rec := httptest.NewRecorder()
	err := h.callback(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestWithAuthAcceptsSignedToken(t *testing.T) {
	secret := []byte("jwt-secret")
	signed, err := SignJWT("7", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	e := echo.New()
	handler := withAuth(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user_id").(string))
	}, secret)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("withAuth: %v", err)
	}
	if rec.Body.String() != "7" {
		t.Fatalf("subject not propagated, got %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	rec = httptest.NewRecorder()
	err = handler(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}
}
