package app

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	gw "github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway"
)

// ProfileStore is the profile persistence used by billing.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (accountdb.Profile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (accountdb.Profile, error)
	SetStripeCustomerID(ctx context.Context, id, customerID string) error
	ApplyBilling(ctx context.Context, id string, u accountdb.BillingUpdate) error
}

// Service defines the business operations for the Stripe domain.
type Service interface {
	GetStatus(ctx context.Context, userID string) (StatusResponse, error)
	CheckAccess(ctx context.Context, userID string) (AccessResponse, error)
	CreateCheckoutSession(ctx context.Context, userID string, req CheckoutRequest) (CheckoutResponse, error)
	CreateBillingPortalSession(ctx context.Context, userID string, req PortalRequest) (PortalResponse, error)
	HandleEvent(ctx context.Context, event stripe.Event) error
}

// Settings carry Stripe configuration and the clock.
type Settings struct {
	// Enabled is false when no Stripe secret key is configured (test mode).
	Enabled        bool
	MonthlyPriceID string
	Now            func() time.Time
}

type serviceImpl struct {
	store    ProfileStore
	gw       gw.StripeGateway
	settings Settings
}

func NewService(store ProfileStore, g gw.StripeGateway, settings Settings) Service {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return serviceImpl{store: store, gw: g, settings: settings}
}
