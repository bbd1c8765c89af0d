// Package webhook receives Stripe webhook deliveries.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/tbeaudouin05/quitcoach/api/logging"
	"github.com/tbeaudouin05/quitcoach/api/metrics"
)

// Path is where Stripe delivers events.
const Path = "/webhooks/stripe"

const bodyLimit = 1024 * 1024 // 1 MiB

// EventHandler applies a verified event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event stripe.Event) error
}

// Handler verifies the Stripe signature and dispatches the event.
type Handler struct {
	secret string
	events EventHandler
}

type errorResponse struct {
	Error string `json:"error"`
}

type receivedResponse struct {
	Received bool `json:"received"`
}

func NewHandler(secret string, events EventHandler) *Handler {
	return &Handler{secret: secret, events: events}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	eventType := "unknown"
	status := http.StatusOK
	defer func() {
		metrics.WebhookRequestsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
		metrics.WebhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()
	l := logging.Ctx(r.Context())

	if r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse{Error: "method not allowed"})
		return
	}
	if strings.TrimSpace(h.secret) == "" {
		status = http.StatusServiceUnavailable
		writeJSON(w, status, errorResponse{Error: "webhook secret not configured"})
		return
	}

	// The raw bytes are what Stripe signed; nothing may parse them first.
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, bodyLimit))
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "failed to read request body"})
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "No signature provided"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		l.Warn().Err(err).Msg("stripe webhook signature verification failed")
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "Webhook signature verification failed"})
		return
	}
	eventType = string(event.Type)

	if err := h.events.HandleEvent(r.Context(), event); err != nil {
		l.Error().Err(err).
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Msg("stripe webhook processing failed")
		status = http.StatusInternalServerError
		writeJSON(w, status, errorResponse{Error: "Webhook handler failed"})
		return
	}

	writeJSON(w, http.StatusOK, receivedResponse{Received: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
