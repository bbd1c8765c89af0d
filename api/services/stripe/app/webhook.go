package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	"github.com/tbeaudouin05/quitcoach/api/logging"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
)

// HandleEvent applies a verified Stripe event to the matching profile.
// Every branch overwrites state, so redelivery is harmless. Events for
// customers without a profile are logged and acknowledged.
func (s serviceImpl) HandleEvent(ctx context.Context, event stripe.Event) error {
	l := logging.Ctx(ctx).With().Str("event_id", event.ID).Str("type", string(event.Type)).Logger()
	ctx = l.WithContext(ctx)

	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	switch event.Type {
	case "checkout.session.completed":
		var session checkoutSessionObject
		if err := decode(raw, &session); err != nil {
			return err
		}
		return s.handleCheckoutCompleted(ctx, session)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub subscriptionObject
		if err := decode(raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionUpdated(ctx, sub)

	case "customer.subscription.deleted":
		var sub subscriptionObject
		if err := decode(raw, &sub); err != nil {
			return err
		}
		return s.apply(ctx, string(sub.Customer), accountdb.BillingUpdate{Status: entitlement.StatusCanceled}, "subscription canceled")

	case "invoice.payment_succeeded":
		var inv invoiceObject
		if err := decode(raw, &inv); err != nil {
			return err
		}
		return s.handlePaymentSucceeded(ctx, inv)

	case "invoice.payment_failed":
		var inv invoiceObject
		if err := decode(raw, &inv); err != nil {
			return err
		}
		return s.apply(ctx, string(inv.Customer), accountdb.BillingUpdate{Status: entitlement.StatusPastDue}, "payment failed")

	default:
		l.Info().Msg("unhandled webhook event")
		return nil
	}
}

func (s serviceImpl) handleCheckoutCompleted(ctx context.Context, session checkoutSessionObject) error {
	l := zerolog.Ctx(ctx)
	if session.Customer == "" || session.Subscription == "" {
		l.Error().Str("session_id", session.ID).Msg("missing customer or subscription id in checkout session")
		return nil
	}
	p, ok, err := s.profileFor(ctx, string(session.Customer))
	if !ok || err != nil {
		return err
	}

	sub, err := s.gw.GetSubscription(ctx, string(session.Subscription))
	if err != nil {
		return fmt.Errorf("%w: error fetching subscription: %v", ErrGateway, err)
	}
	update := accountdb.BillingUpdate{
		Status:           entitlement.StatusFromStripe(sub.Status),
		SubscriptionID:   string(session.Subscription),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		TrialStart:       sub.TrialStart,
		TrialEnd:         sub.TrialEnd,
	}
	if sub.Interval != "" {
		update.Plan = entitlement.PlanFromInterval(sub.Interval)
	}
	if err := s.store.ApplyBilling(ctx, p.ID, update); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	l.Info().Str("user_id", p.ID).Str("subscription_id", update.SubscriptionID).Str("status", string(update.Status)).Msg("subscription activated")
	return nil
}

func (s serviceImpl) handleSubscriptionUpdated(ctx context.Context, sub subscriptionObject) error {
	return s.apply(ctx, string(sub.Customer), accountdb.BillingUpdate{
		Status:           entitlement.StatusFromStripe(sub.Status),
		SubscriptionID:   sub.ID,
		CurrentPeriodEnd: sub.periodEnd(),
	}, "subscription updated")
}

func (s serviceImpl) handlePaymentSucceeded(ctx context.Context, inv invoiceObject) error {
	subID := inv.subscriptionID()
	if subID == "" {
		zerolog.Ctx(ctx).Debug().Str("invoice_id", inv.ID).Msg("invoice without subscription, ignoring")
		return nil
	}
	p, ok, err := s.profileFor(ctx, string(inv.Customer))
	if !ok || err != nil {
		return err
	}
	sub, err := s.gw.GetSubscription(ctx, subID)
	if err != nil {
		return fmt.Errorf("%w: error fetching subscription: %v", ErrGateway, err)
	}
	if err := s.store.ApplyBilling(ctx, p.ID, accountdb.BillingUpdate{
		Status:           entitlement.StatusActive,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	zerolog.Ctx(ctx).Info().Str("user_id", p.ID).Msg("payment succeeded")
	return nil
}

// apply writes update to the profile linked to customerID.
func (s serviceImpl) apply(ctx context.Context, customerID string, update accountdb.BillingUpdate, msg string) error {
	p, ok, err := s.profileFor(ctx, customerID)
	if !ok || err != nil {
		return err
	}
	if err := s.store.ApplyBilling(ctx, p.ID, update); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	ev := zerolog.Ctx(ctx).Info()
	if update.Status == entitlement.StatusPastDue {
		ev = zerolog.Ctx(ctx).Warn()
	}
	ev.Str("user_id", p.ID).Str("status", string(update.Status)).Msg(msg)
	return nil
}

// profileFor resolves the profile of a Stripe customer. ok is false, with a
// nil error, when no profile is linked.
func (s serviceImpl) profileFor(ctx context.Context, customerID string) (accountdb.Profile, bool, error) {
	p, err := s.store.GetByStripeCustomerID(ctx, customerID)
	if errors.Is(err, accountdb.ErrNotFound) {
		zerolog.Ctx(ctx).Error().Str("customer_id", customerID).Msg("user not found for stripe customer")
		return accountdb.Profile{}, false, nil
	}
	if err != nil {
		return accountdb.Profile{}, false, fmt.Errorf("%w: error looking up customer: %v", ErrDatabase, err)
	}
	return p, true, nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty event object", ErrBadEvent)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	return nil
}
