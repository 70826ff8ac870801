package router

import (
	"crypto/subtle"
	"net/http"
)

// HeaderAPIKey carries the shared secret on protected endpoints.
const HeaderAPIKey = "X-Api-Key"

// middlewareAPIKey rejects requests whose x-api-key header does not match the
// key returned by expected. An empty key rejects every protected request.
func middlewareAPIKey(expected func() []byte, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[matchedRoutePath(r)]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := expected()
			got := []byte(r.Header.Get(HeaderAPIKey))
			if len(key) == 0 || subtle.ConstantTimeCompare(got, key) != 1 {
				writeJSON(w, errorResponse{Message: "Invalid or missing API key"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
