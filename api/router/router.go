package router

import (
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/zerolog/log"

	bootstrap "github.com/tbeaudouin05/quitcoach/api/bootstrap"
	"github.com/tbeaudouin05/quitcoach/api/metrics"
	"github.com/tbeaudouin05/quitcoach/api/middleware"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	accountrest "github.com/tbeaudouin05/quitcoach/api/services/account/rest"
	"github.com/tbeaudouin05/quitcoach/api/services/stripe/webhook"
)

// NewRouter returns the central HTTP router for the API using grpc-gateway.
func NewRouter() http.Handler {
	// Initialize app dependencies (non-fatal if it fails here; requests will fail loudly).
	if err := bootstrap.Ensure(); err != nil {
		log.Error().Err(err).Msg("bootstrap ensure failed")
	}
	s := bootstrap.GetServices()
	if s == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		})
	}
	return New(s)
}

// New mounts every route of s behind the shared middleware.
func New(s *bootstrap.Services) http.Handler {
	mux := runtime.NewServeMux(runtime.WithIncomingHeaderMatcher(rpc.HeaderMatcher))

	hook := webhook.NewHandler(s.Config.StripeWebhookSecret, s.Stripe)
	must(mux.HandlePath(http.MethodPost, webhook.Path, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		hook.ServeHTTP(w, r)
	}))
	must(s.RPC.RegisterGateway(mux))
	must(accountrest.New(s.Accounts, s.Issuer).Register(mux))

	must(mux.HandlePath(http.MethodGet, "/health", func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
		writeJSON(w, map[string]string{"status": "ok"})
	}))
	must(mux.HandlePath(http.MethodGet, "/api/status", func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
		writeJSON(w, map[string]string{"status": "ok", "message": "Backend API is running"})
	}))
	promHandler := metrics.Handler()
	must(mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		promHandler.ServeHTTP(w, r)
	}))

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.SecurityHeaders,
		middleware.CORS(middleware.AllowedOrigins(s.Config.FrontendURL)),
		middleware.RateLimit(s.Limiter, s.TrustedProxies...),
	)
}

// must panics on route registration errors, which only happen on malformed patterns.
func must(err error) {
	if err != nil {
		log.Panic().Err(err).Msg("failed to register route")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
