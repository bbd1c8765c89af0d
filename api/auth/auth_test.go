package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	iss := NewIssuer("secret", 7*24*time.Hour, fixedClock(now))

	tok, err := iss.Issue("user-1", "a@example.com")
	require.NoError(t, err)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestIssuer_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := NewIssuer("secret", time.Hour, fixedClock(now)).Issue("u", "e")
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour, fixedClock(now.Add(2*time.Hour))).Parse(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_WrongSecretAndGarbage(t *testing.T) {
	tok, err := NewIssuer("secret", time.Hour, nil).Issue("u", "e")
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour, nil).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewIssuer("secret", time.Hour, nil).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewIssuer("secret", time.Hour, nil).Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = BearerToken("bearer  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingToken, h)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("anything", ""))
}

func TestFromIncomingMetadata(t *testing.T) {
	iss := NewIssuer("secret", time.Hour, nil)
	tok, err := iss.Issue("user-9", "x@example.com")
	require.NoError(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))
	claims, err := iss.FromIncomingMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)

	_, err = iss.FromIncomingMetadata(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestRequireAuth(t *testing.T) {
	iss := NewIssuer("secret", time.Hour, nil)
	tok, err := iss.Issue("user-2", "b@example.com")
	require.NoError(t, err)

	var seen string
	h := iss.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No token provided")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-2", seen)
}
