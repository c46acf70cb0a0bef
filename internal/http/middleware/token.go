package middleware

import (
	"net/http"

	"github.com/slotwise/marketplace/internal/marketplace"
)

// ForwardToken copies the caller's Authorization header into the request
// context so marketplace calls carry it upstream unchanged.
func ForwardToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := marketplace.TokenFromHeader(r.Header.Get("Authorization"))
		if token != "" {
			r = r.WithContext(marketplace.WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}
