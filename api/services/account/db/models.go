package db

import (
	"time"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
)

// Profile is one row of the profiles table.
// Nullable text columns surface as "" and nullable timestamps as nil.
type Profile struct {
	ID                   string
	Email                string
	Username             string
	PasswordHash         string
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStatus   entitlement.Status
	SubscriptionPlan     entitlement.Plan
	TrialStartDate       *time.Time
	TrialEndDate         *time.Time
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// BillingUpdate is the set of columns a billing event may overwrite.
// Empty SubscriptionID/Plan and nil timestamps keep the stored value.
type BillingUpdate struct {
	Status           entitlement.Status
	SubscriptionID   string
	Plan             entitlement.Plan
	CurrentPeriodEnd *time.Time
	TrialStart       *time.Time
	TrialEnd         *time.Time
}
