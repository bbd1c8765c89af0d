package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	"github.com/tbeaudouin05/quitcoach/api/logging"
	"github.com/tbeaudouin05/quitcoach/api/metrics"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
)

// AccessResponse is the entitlement decision returned to clients.
type AccessResponse = entitlement.Decision

// GetStatus returns the caller's subscription state.
func (s serviceImpl) GetStatus(ctx context.Context, userID string) (StatusResponse, error) {
	p, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, accountdb.ErrNotFound) {
		return StatusResponse{}, ErrNotFound
	}
	if err != nil {
		return StatusResponse{}, fmt.Errorf("%w: error retrieving profile: %v", ErrDatabase, err)
	}
	resp := StatusResponse{
		Status:           p.SubscriptionStatus,
		TrialStartDate:   p.TrialStartDate,
		TrialEndDate:     p.TrialEndDate,
		CurrentPeriodEnd: p.CurrentPeriodEnd,
		HasAccess:        entitlement.HasActiveSubscription(p.SubscriptionStatus, p.TrialEndDate, s.settings.Now()),
	}
	if p.SubscriptionPlan != "" {
		plan := p.SubscriptionPlan
		resp.Plan = &plan
	}
	return resp, nil
}

// CheckAccess decides whether the caller may use gated features.
// A missing profile is a denial, not an error.
func (s serviceImpl) CheckAccess(ctx context.Context, userID string) (AccessResponse, error) {
	p, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, accountdb.ErrNotFound) {
		logging.Ctx(ctx).Warn().Str("user_id", userID).Msg("access check for unknown user")
		return record(entitlement.Denied(entitlement.ReasonUserNotFound)), nil
	}
	if err != nil {
		return AccessResponse{}, fmt.Errorf("%w: error retrieving profile: %v", ErrDatabase, err)
	}
	return record(entitlement.Decide(p.SubscriptionStatus, p.TrialEndDate, s.settings.Now())), nil
}

func record(d entitlement.Decision) entitlement.Decision {
	label := "granted"
	if !d.HasAccess {
		label = string(d.Reason)
	}
	metrics.EntitlementDecisions.WithLabelValues(label).Inc()
	return d
}
