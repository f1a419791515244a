package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("u1", "Ada", "a.png", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := v.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.UserID != "u1" || id.Name != "Ada" || id.Avatar != "a.png" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestParseRejects(t *testing.T) {
	v := NewVerifier("secret")

	t.Run("missing", func(t *testing.T) {
		if _, err := v.Parse(""); !errors.Is(err, ErrMissingToken) {
			t.Fatalf("err = %v, want ErrMissingToken", err)
		}
	})
	t.Run("wrong secret", func(t *testing.T) {
		token, _ := NewVerifier("other").Issue("u1", "", "", time.Minute)
		if _, err := v.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("err = %v, want ErrInvalidToken", err)
		}
	})
	t.Run("expired", func(t *testing.T) {
		token, _ := v.Issue("u1", "", "", -time.Minute)
		if _, err := v.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("err = %v, want ErrInvalidToken", err)
		}
	})
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("secret")
	var seen string
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := FromContext(r.Context()); ok {
			seen = id.UserID
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/presence", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", rec.Code)
	}

	token, _ := v.Issue("u9", "", "", time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "u9" {
		t.Fatalf("status = %d, identity = %q", rec.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	if got := TokenFromRequest(req); got != token {
		t.Fatalf("TokenFromRequest from query = %q", got)
	}
}

func TestDisabledVerifierPassesThrough(t *testing.T) {
	v := NewVerifier("")
	called := false
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || v.Enabled() {
		t.Fatal("disabled verifier should pass requests through")
	}
}
