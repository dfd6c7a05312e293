package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yfeng-ca/fengdock/app/helpers"
)

func protectedHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireManageToken_DisabledWhenUnset(t *testing.T) {
	called := false
	handler := RequireManageToken("", nil)(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("unset hash should disable the gate, got %d", rec.Code)
	}
}

func TestRequireManageToken_RawPassphrase(t *testing.T) {
	secret := "hunter2"
	called := false
	handler := RequireManageToken(helpers.HashSecret(secret), nil)(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/api/links?token="+secret, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("raw passphrase should pass, got %d", rec.Code)
	}
}

func TestRequireManageToken_PrehashedHeader(t *testing.T) {
	hash := helpers.HashSecret("hunter2")
	for _, header := range []string{"X-Private-Token", "X-Loblaws-Token"} {
		called := false
		handler := RequireManageToken(hash, nil)(protectedHandler(&called))

		req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		req.Header.Set(header, hash)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !called || rec.Code != http.StatusOK {
			t.Fatalf("%s with precomputed hash should pass, got %d", header, rec.Code)
		}
	}
}

func TestRequireManageToken_MixedCasePassphrase(t *testing.T) {
	secret := "Hunter2"
	called := false
	handler := RequireManageToken(helpers.HashSecret(secret), nil)(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/api/links?token="+secret, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("mixed-case passphrase should pass against its own hash, got %d", rec.Code)
	}
}

func TestRequireManageToken_WrongToken(t *testing.T) {
	called := false
	handler := RequireManageToken(helpers.HashSecret("hunter2"), nil)(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/api/links?token=wrong", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("handler must not run with a wrong token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("expected JSON error body, got content type %q", ct)
	}
}

func TestRequireManageToken_MissingToken(t *testing.T) {
	called := false
	handler := RequireManageToken(helpers.HashSecret("hunter2"), nil)(protectedHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should 401, got %d", rec.Code)
	}
}
