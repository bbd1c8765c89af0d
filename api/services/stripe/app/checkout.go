package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	"github.com/tbeaudouin05/quitcoach/api/logging"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	gw "github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway"
)

// CreateCheckoutSession starts a subscription checkout with a trial.
// The Stripe customer is created on first use and reused afterwards.
func (s serviceImpl) CreateCheckoutSession(ctx context.Context, userID string, req CheckoutRequest) (CheckoutResponse, error) {
	p, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, accountdb.ErrNotFound) {
		return CheckoutResponse{}, ErrNotFound
	}
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("%w: error retrieving profile: %v", ErrDatabase, err)
	}

	if !s.settings.Enabled {
		logging.Ctx(ctx).Info().Str("user_id", userID).Msg("stripe not configured, returning test checkout session")
		return CheckoutResponse{SessionID: TestModeSessionID, TestMode: true}, nil
	}

	customerID := p.StripeCustomerID
	if customerID == "" {
		customerID, err = s.gw.CreateCustomer(ctx, p.Email, p.ID)
		if err != nil {
			return CheckoutResponse{}, fmt.Errorf("%w: error creating customer: %v", ErrGateway, err)
		}
		if err := s.store.SetStripeCustomerID(ctx, p.ID, customerID); err != nil {
			return CheckoutResponse{}, fmt.Errorf("%w: error saving customer id: %v", ErrDatabase, err)
		}
		logging.Ctx(ctx).Info().Str("user_id", p.ID).Str("customer_id", customerID).Msg("stripe customer created")
	}

	session, err := s.gw.CreateCheckoutSession(ctx, gw.CheckoutRequest{
		CustomerID: customerID,
		PriceID:    s.settings.MonthlyPriceID,
		TrialDays:  entitlement.TrialDays,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		UserID:     p.ID,
	})
	if err != nil {
		return CheckoutResponse{}, fmt.Errorf("%w: error creating checkout session: %v", ErrGateway, err)
	}
	resp := CheckoutResponse{SessionID: session.ID}
	if session.URL != "" {
		url := session.URL
		resp.URL = &url
	}
	return resp, nil
}

// CreateBillingPortalSession opens the hosted portal for a linked customer.
func (s serviceImpl) CreateBillingPortalSession(ctx context.Context, userID string, req PortalRequest) (PortalResponse, error) {
	p, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, accountdb.ErrNotFound) {
		return PortalResponse{}, ErrNotFound
	}
	if err != nil {
		return PortalResponse{}, fmt.Errorf("%w: error retrieving profile: %v", ErrDatabase, err)
	}
	if p.StripeCustomerID == "" {
		return PortalResponse{}, ErrNoBillingAccount
	}
	url, err := s.gw.CreateBillingPortalSession(ctx, p.StripeCustomerID, req.ReturnURL)
	if err != nil {
		return PortalResponse{}, fmt.Errorf("%w: error creating billing portal session: %v", ErrGateway, err)
	}
	return PortalResponse{URL: url}, nil
}
