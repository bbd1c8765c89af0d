package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	"github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
	gw "github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway"
)

func event(t *testing.T, typ string, obj any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	return stripe.Event{ID: "evt_" + typ, Type: stripe.EventType(typ), Data: &stripe.EventData{Raw: raw}}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestHandleEvent_CheckoutCompleted(t *testing.T) {
	svc, store, stripeGW := newMocked(t, true)
	periodEnd := now.AddDate(0, 1, 0)
	trialEnd := now.AddDate(0, 0, 7)

	store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{ID: "u1"}, nil)
	stripeGW.EXPECT().GetSubscription(gomock.Any(), "sub_1").Return(gw.Subscription{
		ID: "sub_1", Status: "trialing", Interval: "month",
		CurrentPeriodEnd: &periodEnd, TrialStart: ptrTime(now), TrialEnd: &trialEnd,
	}, nil)
	store.EXPECT().ApplyBilling(gomock.Any(), "u1", accountdb.BillingUpdate{
		Status:           entitlement.StatusTrialing,
		SubscriptionID:   "sub_1",
		Plan:             entitlement.PlanMonthly,
		CurrentPeriodEnd: &periodEnd,
		TrialStart:       ptrTime(now),
		TrialEnd:         &trialEnd,
	}).Return(nil)

	err := svc.HandleEvent(context.Background(), event(t, "checkout.session.completed", map[string]any{
		"id": "cs_1", "customer": "cus_1", "subscription": map[string]any{"id": "sub_1", "object": "subscription"},
	}))
	require.NoError(t, err)
}

func TestHandleEvent_CheckoutMissingIDsIsNoop(t *testing.T) {
	svc, _, _ := newMocked(t, true)
	err := svc.HandleEvent(context.Background(), event(t, "checkout.session.completed", map[string]any{
		"id": "cs_1", "customer": "cus_1", "subscription": nil,
	}))
	require.NoError(t, err)
}

func TestHandleEvent_SubscriptionUpdated_ItemPeriodFallback(t *testing.T) {
	svc, store, _ := newMocked(t, true)
	periodEnd := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{ID: "u1"}, nil)
	store.EXPECT().ApplyBilling(gomock.Any(), "u1", accountdb.BillingUpdate{
		Status:           entitlement.StatusPastDue,
		SubscriptionID:   "sub_1",
		CurrentPeriodEnd: &periodEnd,
	}).Return(nil)

	err := svc.HandleEvent(context.Background(), event(t, "customer.subscription.updated", map[string]any{
		"id": "sub_1", "customer": "cus_1", "status": "unpaid",
		"items": map[string]any{"data": []any{map[string]any{"current_period_end": periodEnd.Unix()}}},
	}))
	require.NoError(t, err)
}

func TestHandleEvent_UnknownPeriodEndLeavesColumn(t *testing.T) {
	svc, store, _ := newMocked(t, true)
	store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{ID: "u1"}, nil)
	store.EXPECT().ApplyBilling(gomock.Any(), "u1", accountdb.BillingUpdate{
		Status:         entitlement.StatusActive,
		SubscriptionID: "sub_1",
	}).Return(nil)

	err := svc.HandleEvent(context.Background(), event(t, "customer.subscription.created", map[string]any{
		"id": "sub_1", "customer": "cus_1", "status": "active",
	}))
	require.NoError(t, err)
}

func TestHandleEvent_UnknownCustomerIsNoop(t *testing.T) {
	for _, typ := range []string{
		"customer.subscription.updated",
		"customer.subscription.deleted",
		"invoice.payment_failed",
		"invoice.payment_succeeded",
		"checkout.session.completed",
	} {
		t.Run(typ, func(t *testing.T) {
			svc, store, _ := newMocked(t, true)
			store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_ghost").Return(accountdb.Profile{}, accountdb.ErrNotFound)
			// no ApplyBilling and no gateway calls expected
			err := svc.HandleEvent(context.Background(), event(t, typ, map[string]any{
				"id": "obj_1", "customer": "cus_ghost", "subscription": "sub_1", "status": "active",
			}))
			require.NoError(t, err)
		})
	}
}

func TestHandleEvent_InvoicePaymentSucceeded(t *testing.T) {
	svc, store, stripeGW := newMocked(t, true)
	periodEnd := now.AddDate(0, 1, 0)

	store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{ID: "u1"}, nil)
	stripeGW.EXPECT().GetSubscription(gomock.Any(), "sub_9").Return(gw.Subscription{ID: "sub_9", Status: "active", CurrentPeriodEnd: &periodEnd}, nil)
	store.EXPECT().ApplyBilling(gomock.Any(), "u1", accountdb.BillingUpdate{
		Status:           entitlement.StatusActive,
		CurrentPeriodEnd: &periodEnd,
	}).Return(nil)

	// newer API versions nest the subscription under parent.subscription_details
	err := svc.HandleEvent(context.Background(), event(t, "invoice.payment_succeeded", map[string]any{
		"id": "in_1", "customer": "cus_1",
		"parent": map[string]any{"subscription_details": map[string]any{"subscription": "sub_9"}},
	}))
	require.NoError(t, err)
}

func TestHandleEvent_InvoiceWithoutSubscriptionIsNoop(t *testing.T) {
	svc, _, _ := newMocked(t, true)
	err := svc.HandleEvent(context.Background(), event(t, "invoice.payment_succeeded", map[string]any{
		"id": "in_1", "customer": "cus_1",
	}))
	require.NoError(t, err)
}

func TestHandleEvent_DeletedAndFailed(t *testing.T) {
	cases := map[string]entitlement.Status{
		"customer.subscription.deleted": entitlement.StatusCanceled,
		"invoice.payment_failed":        entitlement.StatusPastDue,
	}
	for typ, want := range cases {
		t.Run(typ, func(t *testing.T) {
			svc, store, _ := newMocked(t, true)
			store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{ID: "u1"}, nil)
			store.EXPECT().ApplyBilling(gomock.Any(), "u1", accountdb.BillingUpdate{Status: want}).Return(nil)
			require.NoError(t, svc.HandleEvent(context.Background(), event(t, typ, map[string]any{"id": "x", "customer": "cus_1"})))
		})
	}
}

func TestHandleEvent_Errors(t *testing.T) {
	svc, store, stripeGW := newMocked(t, true)
	ctx := context.Background()

	err := svc.HandleEvent(ctx, stripe.Event{ID: "evt_bad", Type: "invoice.payment_failed", Data: &stripe.EventData{Raw: []byte(`{"customer": 12}`)}})
	assert.ErrorIs(t, err, app.ErrBadEvent)

	store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{}, errors.New("db down"))
	err = svc.HandleEvent(ctx, event(t, "invoice.payment_failed", map[string]any{"customer": "cus_1"}))
	assert.ErrorIs(t, err, app.ErrDatabase)

	store.EXPECT().GetByStripeCustomerID(gomock.Any(), "cus_1").Return(accountdb.Profile{ID: "u1"}, nil)
	stripeGW.EXPECT().GetSubscription(gomock.Any(), "sub_1").Return(gw.Subscription{}, fmt.Errorf("timeout"))
	err = svc.HandleEvent(ctx, event(t, "checkout.session.completed", map[string]any{"customer": "cus_1", "subscription": "sub_1"}))
	assert.ErrorIs(t, err, app.ErrGateway)
}

func TestHandleEvent_UnhandledTypeIgnored(t *testing.T) {
	svc, _, _ := newMocked(t, true)
	require.NoError(t, svc.HandleEvent(context.Background(), event(t, "charge.refunded", map[string]any{"id": "ch_1"})))
}
