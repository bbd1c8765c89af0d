package stripegw

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"

	gw "github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway"
)

// SetKey configures the Stripe SDK key once during bootstrap.
func SetKey(key string) { stripe.Key = key }

// client is the Stripe SDK-backed implementation of the gateway.
type client struct{}

// New returns a StripeGateway backed by the official Stripe SDK.
func New() gw.StripeGateway { return client{} }

func (client) GetSubscription(ctx context.Context, id string) (gw.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price")
	sub, err := subscription.Get(id, params)
	if err != nil {
		return gw.Subscription{}, err
	}
	if sub == nil {
		return gw.Subscription{}, nil
	}
	return FromSDK(sub), nil
}

func (client) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata("userId", userID)
	c, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (client) CreateCheckoutSession(ctx context.Context, req gw.CheckoutRequest) (gw.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(req.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(req.TrialDays),
			TrialSettings: &stripe.CheckoutSessionSubscriptionDataTrialSettingsParams{
				EndBehavior: &stripe.CheckoutSessionSubscriptionDataTrialSettingsEndBehaviorParams{
					MissingPaymentMethod: stripe.String("cancel"),
				},
			},
		},
		PaymentMethodCollection: stripe.String(string(stripe.CheckoutSessionPaymentMethodCollectionAlways)),
		SuccessURL:              stripe.String(req.SuccessURL),
		CancelURL:               stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)
	s, err := checkoutsession.New(params)
	if err != nil {
		return gw.CheckoutSession{}, err
	}
	return gw.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (client) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := portalsession.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// FromSDK maps an SDK subscription. The period end is read from the first
// item carrying one, which is where current API versions report it.
func FromSDK(sub *stripe.Subscription) gw.Subscription {
	out := gw.Subscription{
		ID:         sub.ID,
		Status:     string(sub.Status),
		TrialStart: unixPtr(sub.TrialStart),
		TrialEnd:   unixPtr(sub.TrialEnd),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil {
				continue
			}
			if out.CurrentPeriodEnd == nil {
				out.CurrentPeriodEnd = unixPtr(item.CurrentPeriodEnd)
			}
			if out.PriceID == "" && item.Price != nil {
				out.PriceID = item.Price.ID
				if item.Price.Recurring != nil {
					out.Interval = string(item.Price.Recurring.Interval)
				}
			}
		}
	}
	return out
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
