package app

import (
	"time"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
)

// TestModeSessionID is returned by checkout when Stripe is not configured.
const TestModeSessionID = "cs_test_mock_session_id"

// StatusResponse is the domain response of getStatus.
// Keep value types where possible; nullable fields are pointers so they encode as null.
type StatusResponse struct {
	Status           entitlement.Status `json:"status"`
	Plan             *entitlement.Plan  `json:"plan"`
	TrialStartDate   *time.Time         `json:"trialStartDate"`
	TrialEndDate     *time.Time         `json:"trialEndDate"`
	CurrentPeriodEnd *time.Time         `json:"currentPeriodEnd"`
	HasAccess        bool               `json:"hasAccess"`
}

// CheckoutRequest is the input of createCheckoutSession.
type CheckoutRequest struct {
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl" validate:"required,url"`
}

// CheckoutResponse carries a null URL in test mode.
type CheckoutResponse struct {
	SessionID string  `json:"sessionId"`
	URL       *string `json:"url"`
	TestMode  bool    `json:"testMode"`
}

// PortalRequest is the input of createBillingPortalSession.
type PortalRequest struct {
	ReturnURL string `json:"returnUrl" validate:"required,url"`
}

// PortalResponse holds the hosted billing portal URL.
type PortalResponse struct {
	URL string `json:"url"`
}
