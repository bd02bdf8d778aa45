package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/mealweek/internal/auth"
)

func newTestVerifier(t *testing.T) (*auth.Verifier, string) {
	t.Helper()
	v := auth.NewVerifier("test-secret", "")
	token, err := v.Issue(auth.AuthContext{UserID: "user-1", Email: "alice@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return v, token
}

func TestRequireAuthNoToken(t *testing.T) {
	v, _ := newTestVerifier(t)

	handler := RequireAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	v, _ := newTestVerifier(t)

	handler := RequireAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	for _, h := range []string{"Bearer invalid-token", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", h)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want %d", h, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	v, token := newTestVerifier(t)

	var gotAC auth.AuthContext
	handler := RequireAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", gotAC.UserID)
	}
	if gotAC.Email != "alice@example.com" {
		t.Errorf("Email = %q, want alice@example.com", gotAC.Email)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	v, token := newTestVerifier(t)

	handler := RequireAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserID(r.Context()) != "user-1" {
			t.Errorf("UserID = %q", auth.UserID(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
