package middleware

import (
	"net/http"
	"strings"

	"github.com/tbeaudouin05/quitcoach/api/logging"
)

// DevOrigins are always allowed.
var DevOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// AllowedOrigins returns the dev origins plus frontendURL when set.
func AllowedOrigins(frontendURL string) []string {
	origins := append([]string(nil), DevOrigins...)
	if u := strings.TrimRight(strings.TrimSpace(frontendURL), "/"); u != "" {
		origins = append(origins, u)
	}
	return origins
}

// CORS allows credentialed requests from origins that equal or extend an
// allowed origin. Requests without an Origin header pass untouched.
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")
			if !originAllowed(origin, allowed) {
				logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("CORS blocked origin")
				if r.Method == http.MethodOptions {
					http.Error(w, "Not allowed by CORS", http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS")
				if h := r.Header.Get("Access-Control-Request-Headers"); h != "" {
					w.Header().Set("Access-Control-Allow-Headers", h)
				} else {
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if origin == a || strings.HasPrefix(origin, a) {
			return true
		}
	}
	return false
}
