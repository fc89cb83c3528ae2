// Package api implements the STEMgraph REST API using chi.
package api

import "net/http"

// TokenSource returns the currently configured write token. It is a func so
// the secrets watcher can rotate the token while the server runs.
type TokenSource func() string

// WriteAuth returns middleware that guards write endpoints with an X-API-Key
// header check. An empty configured token rejects every write.
func WriteAuth(token TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			want := token()
			if want == "" || r.Header.Get("X-API-Key") != want {
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid API key - access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
