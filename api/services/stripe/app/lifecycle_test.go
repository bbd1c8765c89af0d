package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/database/dbtest"
	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	accountapp "github.com/tbeaudouin05/quitcoach/api/services/account/app"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	"github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
	"github.com/tbeaudouin05/quitcoach/api/services/stripe/app/mocks"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type lifecycle struct {
	clock    *fakeClock
	store    *accountdb.Store
	accounts accountapp.Service
	billing  app.Service
	gw       *mocks.MockStripeGateway
}

func newLifecycle(t *testing.T) *lifecycle {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 28, 8, 0, 0, 0, time.UTC)}
	store := accountdb.NewStore(dbtest.Open(t), clock.Now)
	gw := mocks.NewMockStripeGateway(gomock.NewController(t))
	return &lifecycle{
		clock:    clock,
		store:    store,
		accounts: accountapp.NewService(store, auth.NewIssuer("secret", 7*24*time.Hour, clock.Now), accountapp.Settings{Now: clock.Now}),
		billing:  app.NewService(store, gw, app.Settings{Enabled: true, MonthlyPriceID: "price_monthly", Now: clock.Now}),
		gw:       gw,
	}
}

func (l *lifecycle) signup(t *testing.T, email string) string {
	t.Helper()
	sess, err := l.accounts.Signup(context.Background(), accountapp.SignupRequest{Email: email, Password: "password1"})
	require.NoError(t, err)
	return sess.User.ID
}

func TestLifecycle_TrialExpires(t *testing.T) {
	l := newLifecycle(t)
	ctx := context.Background()
	userID := l.signup(t, "trial@example.com")

	got, err := l.billing.CheckAccess(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Decision{HasAccess: true}, got)

	l.clock.Advance(7*24*time.Hour + time.Second)

	got, err = l.billing.CheckAccess(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Decision{HasAccess: false, Reason: entitlement.ReasonTrialExpired}, got)

	status, err := l.billing.GetStatus(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusTrialing, status.Status)
	assert.False(t, status.HasAccess)
}

func TestLifecycle_PaymentFailedRevokesAccess(t *testing.T) {
	l := newLifecycle(t)
	ctx := context.Background()
	userID := l.signup(t, "payer@example.com")
	require.NoError(t, l.store.SetStripeCustomerID(ctx, userID, "cus_payer"))

	require.NoError(t, l.billing.HandleEvent(ctx, event(t, "customer.subscription.updated", map[string]any{
		"id": "sub_1", "customer": "cus_payer", "status": "active", "current_period_end": l.clock.t.AddDate(0, 1, 0).Unix(),
	})))
	got, err := l.billing.CheckAccess(ctx, userID)
	require.NoError(t, err)
	assert.True(t, got.HasAccess)

	require.NoError(t, l.billing.HandleEvent(ctx, event(t, "invoice.payment_failed", map[string]any{
		"id": "in_1", "customer": "cus_payer",
	})))

	p, err := l.store.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusPastDue, p.SubscriptionStatus)

	got, err = l.billing.CheckAccess(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Decision{HasAccess: false, Reason: entitlement.ReasonNoSubscription}, got)
}

func TestLifecycle_RepeatedSubscriptionUpdateIsIdempotent(t *testing.T) {
	l := newLifecycle(t)
	ctx := context.Background()
	userID := l.signup(t, "repeat@example.com")
	require.NoError(t, l.store.SetStripeCustomerID(ctx, userID, "cus_r"))

	ev := event(t, "customer.subscription.updated", map[string]any{
		"id": "sub_r", "customer": "cus_r", "status": "active", "current_period_end": l.clock.t.AddDate(0, 1, 0).Unix(),
	})
	require.NoError(t, l.billing.HandleEvent(ctx, ev))
	once, err := l.store.GetByID(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, l.billing.HandleEvent(ctx, ev))
	twice, err := l.store.GetByID(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, entitlement.StatusActive, twice.SubscriptionStatus)
	assert.Equal(t, "sub_r", twice.StripeSubscriptionID)
}

func TestLifecycle_UnknownCustomerLeavesProfilesUntouched(t *testing.T) {
	l := newLifecycle(t)
	ctx := context.Background()
	userID := l.signup(t, "bystander@example.com")
	before, err := l.store.GetByID(ctx, userID)
	require.NoError(t, err)

	l.clock.Advance(time.Hour)
	require.NoError(t, l.billing.HandleEvent(ctx, event(t, "customer.subscription.deleted", map[string]any{
		"id": "sub_x", "customer": "cus_unknown",
	})))

	after, err := l.store.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
