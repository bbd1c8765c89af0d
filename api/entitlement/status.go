package entitlement

import (
	"encoding/json"
	"strings"
)

// Status is the persisted subscription status of a profile.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether s is one of the five persisted statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIncomplete, StatusTrialing, StatusActive, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// StatusFromStripe maps a Stripe subscription status onto the persisted set.
// Unknown values fail closed.
func StatusFromStripe(stripeStatus string) Status {
	switch strings.ToLower(strings.TrimSpace(stripeStatus)) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due", "unpaid", "paused":
		return StatusPastDue
	case "canceled", "incomplete_expired":
		return StatusCanceled
	default:
		return StatusIncomplete
	}
}

// Reason explains a denied decision. The zero value means access was granted
// and encodes as JSON null.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonTrialExpired   Reason = "trial_expired"
	ReasonNoSubscription Reason = "no_subscription"
	ReasonUserNotFound   Reason = "user_not_found"
)

func (r Reason) MarshalJSON() ([]byte, error) {
	if r == ReasonNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *Reason) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ReasonNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = Reason(s)
	return nil
}

// Plan is the billing plan recorded on a profile.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// PlanFromInterval derives the plan from a Stripe price recurring interval.
func PlanFromInterval(interval string) Plan {
	if strings.EqualFold(interval, "year") {
		return PlanYearly
	}
	return PlanMonthly
}
