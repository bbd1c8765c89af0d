package webhook

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

type recordingHandler struct {
	events []stripe.Event
	err    error
}

func (r *recordingHandler) HandleEvent(_ context.Context, event stripe.Event) error {
	r.events = append(r.events, event)
	return r.err
}

func signedRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

var payload = []byte(`{"id":"evt_1","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_1","customer":"cus_1"}}}`)

func TestWebhook_Success(t *testing.T) {
	events := &recordingHandler{}
	rec := httptest.NewRecorder()
	NewHandler(testSecret, events).ServeHTTP(rec, signedRequest(t, payload, testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Len(t, events.events, 1)
	assert.Equal(t, "evt_1", events.events[0].ID)
	assert.Equal(t, stripe.EventType("invoice.payment_failed"), events.events[0].Type)
}

func TestWebhook_InvalidSignature(t *testing.T) {
	events := &recordingHandler{}
	rec := httptest.NewRecorder()
	NewHandler(testSecret, events).ServeHTTP(rec, signedRequest(t, payload, "whsec_someone_else"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature verification failed")
	assert.Empty(t, events.events)
}

func TestWebhook_TamperedBody(t *testing.T) {
	events := &recordingHandler{}
	req := signedRequest(t, payload, testSecret)
	sig := req.Header.Get("Stripe-Signature")
	tampered := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(bytes.Replace(payload, []byte("cus_1"), []byte("cus_2"), 1)))
	tampered.Header.Set("Stripe-Signature", sig)

	rec := httptest.NewRecorder()
	NewHandler(testSecret, events).ServeHTTP(rec, tampered)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, events.events)
}

func TestWebhook_MissingSignature(t *testing.T) {
	events := &recordingHandler{}
	rec := httptest.NewRecorder()
	NewHandler(testSecret, events).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(payload)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No signature provided")
	assert.Empty(t, events.events)
}

func TestWebhook_SecretNotConfigured(t *testing.T) {
	events := &recordingHandler{}
	rec := httptest.NewRecorder()
	NewHandler("", events).ServeHTTP(rec, signedRequest(t, payload, testSecret))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, events.events)
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(testSecret, &recordingHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhook_HandlerError(t *testing.T) {
	events := &recordingHandler{err: errors.New("db down")}
	rec := httptest.NewRecorder()
	NewHandler(testSecret, events).ServeHTTP(rec, signedRequest(t, payload, testSecret))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, events.events, 1)
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("a"), bodyLimit+1)
	req := httptest.NewRequest(http.MethodPost, Path, bytes.NewReader(big))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	NewHandler(testSecret, &recordingHandler{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
