package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/yfeng-ca/fengdock/app/helpers"
	utilsessions "github.com/yfeng-ca/fengdock/app/utils/sessions"
)

// Headers a request may carry the manage token in, checked after the query
// parameter.
var tokenHeaders = []string{"X-Private-Token", "X-Loblaws-Token"}

// RequireManageToken gates write operations behind possession of the shared
// secret. The configured value is the sha256 hex of the secret; presented
// tokens may be the raw passphrase or the precomputed hash. An empty
// configured hash disables the gate (single-user deployment without a
// secret). A session store, when provided, lets a once-validated browser
// session skip re-presenting the token.
func RequireManageToken(expectedHash string, store utilsessions.SessionStore) func(http.Handler) http.Handler {
	expectedHash = strings.ToLower(strings.TrimSpace(expectedHash))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token != "" {
				tokenHash := helpers.NormalizeToken(token)
				if subtle.ConstantTimeCompare([]byte(tokenHash), []byte(expectedHash)) == 1 {
					if store != nil {
						_ = store.SetManageToken(w, r, tokenHash)
					}
					next.ServeHTTP(w, r)
					return
				}
			} else if store != nil {
				sessionHash := store.GetManageToken(r)
				if sessionHash != "" && subtle.ConstantTimeCompare([]byte(sessionHash), []byte(expectedHash)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
		})
	}
}

func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	for _, header := range tokenHeaders {
		if token := r.Header.Get(header); token != "" {
			return token
		}
	}
	return ""
}
