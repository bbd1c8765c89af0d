package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/client"
	"github.com/tbeaudouin05/quitcoach/api/database/dbtest"
	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	coachingapp "github.com/tbeaudouin05/quitcoach/api/services/coaching/app"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
	coachinggrpc "github.com/tbeaudouin05/quitcoach/api/services/coaching/grpc"
	stripeapp "github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
	stripegrpc "github.com/tbeaudouin05/quitcoach/api/services/stripe/grpc"
	trackingapp "github.com/tbeaudouin05/quitcoach/api/services/tracking/app"
	trackingdb "github.com/tbeaudouin05/quitcoach/api/services/tracking/db"
	trackinggrpc "github.com/tbeaudouin05/quitcoach/api/services/tracking/grpc"
)

var now = time.Date(2025, 5, 5, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*client.Client, *auth.Issuer) {
	t.Helper()
	clock := func() time.Time { return now }
	db := dbtest.Open(t)
	profiles := accountdb.NewStore(db, clock)
	end := entitlement.CalculateTrialEndDate(now)
	_, err := profiles.Create(context.Background(), accountdb.Profile{
		ID: "u1", Email: "u1@example.com", SubscriptionStatus: entitlement.StatusTrialing,
		TrialStartDate: &now, TrialEndDate: &end,
	})
	require.NoError(t, err)

	issuer := auth.NewIssuer("secret", time.Hour, clock)
	billing := stripeapp.NewService(profiles, nil, stripeapp.Settings{Now: clock})
	srv := rpc.NewServer(issuer, billing)
	srv.RegisterHealth(clock)
	stripegrpc.Register(srv, billing)
	coachinggrpc.Register(srv, coachingapp.NewService(coachingdb.NewStore(db, clock), coachingapp.Settings{Now: clock}))
	trackinggrpc.Register(srv, trackingapp.NewService(trackingdb.NewStore(db, clock), trackingapp.Settings{Now: clock}))

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(grpc.UnaryInterceptor(rpc.UnaryServerInterceptor()))
	srv.RegisterGRPC(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	c, err := client.Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, issuer
}

func TestHealth(t *testing.T) {
	c, _ := setup(t)
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.True(t, h.Timestamp.Equal(now))
}

func TestSubscriptionCalls(t *testing.T) {
	c, issuer := setup(t)
	ctx := context.Background()

	_, err := c.SubscriptionStatus(ctx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, err := issuer.Issue("u1", "u1@example.com")
	require.NoError(t, err)
	authed := c.WithToken(tok)

	st, err := authed.SubscriptionStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusTrialing, st.Status)
	assert.True(t, st.HasAccess)

	access, err := authed.CheckAccess(ctx)
	require.NoError(t, err)
	assert.True(t, access.HasAccess)
	assert.Equal(t, entitlement.ReasonNone, access.Reason)

	checkout, err := authed.CreateCheckoutSession(ctx, stripeapp.CheckoutRequest{
		SuccessURL: "https://app.example.com/ok", CancelURL: "https://app.example.com/no",
	})
	require.NoError(t, err)
	assert.True(t, checkout.TestMode)
	assert.Nil(t, checkout.URL)

	_, err = authed.CreateBillingPortalSession(ctx, stripeapp.PortalRequest{ReturnURL: "https://app.example.com"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestCoachingCalls(t *testing.T) {
	c, issuer := setup(t)
	ctx := context.Background()
	tok, err := issuer.Issue("u1", "u1@example.com")
	require.NoError(t, err)
	authed := c.WithToken(tok)

	active, err := authed.ActiveQuitAttempt(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	streak, err := authed.Streak(ctx)
	require.NoError(t, err)
	assert.Zero(t, streak.CurrentStreak)

	_, err = authed.TodayScript(ctx, "6b1f8a52-6c5e-4f43-9d35-0c3b2f1e7a90")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestTrackingCalls(t *testing.T) {
	c, issuer := setup(t)
	ctx := context.Background()
	tok, err := issuer.Issue("u1", "u1@example.com")
	require.NoError(t, err)
	authed := c.WithToken(tok)

	settings, err := authed.Settings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings)

	currency := "GBP"
	saved, err := authed.UpdateSettings(ctx, trackingapp.UpdateSettingsRequest{Currency: &currency})
	require.NoError(t, err)
	assert.Equal(t, "GBP", saved.Currency)
	assert.True(t, saved.NotificationsEnabled)

	_, err = authed.RecentTriggerLogs(ctx, trackingapp.RecentTriggersRequest{QuitAttemptID: "6b1f8a52-6c5e-4f43-9d35-0c3b2f1e7a90"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Settings(ctx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
