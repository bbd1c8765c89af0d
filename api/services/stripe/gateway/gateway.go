package gateway

import (
	"context"
	"time"
)

// Subscription is the subset of a Stripe subscription the app layer reads.
// Timestamps are nil when Stripe does not report them.
type Subscription struct {
	ID               string
	CustomerID       string
	Status           string
	PriceID          string
	Interval         string
	CurrentPeriodEnd *time.Time
	TrialStart       *time.Time
	TrialEnd         *time.Time
}

// CheckoutRequest describes a subscription-mode checkout session.
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	TrialDays  int64
	SuccessURL string
	CancelURL  string
	UserID     string
}

// CheckoutSession is the created session.
type CheckoutSession struct {
	ID  string
	URL string
}

// StripeGateway abstracts Stripe SDK operations needed by the app layer.
// Methods return values (not pointers) to respect the project's preference
// to avoid pointer types in public interfaces.
type StripeGateway interface {
	GetSubscription(ctx context.Context, id string) (Subscription, error)
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}
