// Package entitlement decides whether a subscription or trial grants access.
// Every function is pure: the current time is always passed in.
package entitlement

import "time"

// TrialDays is the length of the free trial in calendar days.
const TrialDays = 7

// Decision is the derived, never cached, access outcome for one request.
type Decision struct {
	HasAccess bool   `json:"hasAccess"`
	Reason    Reason `json:"reason"`
}

// HasTrialExpired reports whether trialEnd lies strictly before now.
// A nil trial end never expires.
func HasTrialExpired(trialEnd *time.Time, now time.Time) bool {
	if trialEnd == nil {
		return false
	}
	return trialEnd.Before(now)
}

// HasActiveSubscription grants access to active subscriptions and to trials
// that have not yet expired.
func HasActiveSubscription(status Status, trialEnd *time.Time, now time.Time) bool {
	switch status {
	case StatusActive:
		return true
	case StatusTrialing:
		return !HasTrialExpired(trialEnd, now)
	default:
		return false
	}
}

// CalculateTrialEndDate adds TrialDays calendar days to start, keeping the
// time of day and location.
func CalculateTrialEndDate(start time.Time) time.Time {
	return start.AddDate(0, 0, TrialDays)
}

// Decide evaluates the policy and names the reason for a denial.
func Decide(status Status, trialEnd *time.Time, now time.Time) Decision {
	if HasActiveSubscription(status, trialEnd, now) {
		return Decision{HasAccess: true}
	}
	if status == StatusTrialing {
		return Decision{Reason: ReasonTrialExpired}
	}
	return Decision{Reason: ReasonNoSubscription}
}

// Denied returns a denial for reason, used when there is nothing to evaluate.
func Denied(reason Reason) Decision {
	return Decision{Reason: reason}
}
