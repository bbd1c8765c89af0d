// Package rest serves the /auth/* endpoints.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/logging"
	"github.com/tbeaudouin05/quitcoach/api/services/account/app"
	"github.com/tbeaudouin05/quitcoach/api/validation"
)

const maxBodyBytes = 64 << 10

// Handlers exposes the account service over plain JSON endpoints.
type Handlers struct {
	svc    app.Service
	issuer *auth.Issuer
}

func New(svc app.Service, issuer *auth.Issuer) *Handlers {
	return &Handlers{svc: svc, issuer: issuer}
}

// Register mounts the auth routes on mux.
func (h *Handlers) Register(mux *runtime.ServeMux) error {
	routes := []struct {
		method, path string
		fn           http.HandlerFunc
	}{
		{http.MethodPost, "/auth/check-email", h.checkEmail},
		{http.MethodPost, "/auth/signup", h.signup},
		{http.MethodPost, "/auth/login", h.login},
		{http.MethodGet, "/auth/me", h.issuer.RequireAuth(http.HandlerFunc(h.me)).ServeHTTP},
		{http.MethodPost, "/auth/logout", h.logout},
	}
	for _, rt := range routes {
		fn := rt.fn
		if err := mux.HandlePath(rt.method, rt.path, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			fn(w, r)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) checkEmail(w http.ResponseWriter, r *http.Request) {
	var req app.CheckEmailRequest
	if !decode(w, r, &req) {
		return
	}
	exists, err := h.svc.CheckEmail(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req app.SignupRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req app.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// logout is stateless: the client discards its token.
func (h *Handlers) logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Request body too large"})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Validation error", "details": verr.Fields})
	case errors.Is(err, app.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already registered. Please use a different email or login."})
	case errors.Is(err, app.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	case errors.Is(err, app.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("auth request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
