package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// RequireAuth rejects requests without a valid bearer token and stores the claims on the context.
func (i *Issuer) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := i.FromRequest(r)
		if err != nil {
			msg := "Invalid token"
			switch {
			case errors.Is(err, ErrMissingToken):
				msg = "No token provided"
			case errors.Is(err, ErrTokenExpired):
				msg = "Token expired"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}
