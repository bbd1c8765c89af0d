package app

import (
	"bytes"
	"encoding/json"
	"time"
)

// expandableID decodes a Stripe reference that is either an id string or an
// expanded object carrying an "id".
type expandableID string

func (e *expandableID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*e = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

// unixTime is a Stripe epoch-seconds timestamp; zero and null mean unknown.
type unixTime int64

func (u unixTime) ptr() *time.Time {
	if u <= 0 {
		return nil
	}
	t := time.Unix(int64(u), 0).UTC()
	return &t
}

type checkoutSessionObject struct {
	ID           string            `json:"id"`
	Customer     expandableID      `json:"customer"`
	Subscription expandableID      `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionItem struct {
	CurrentPeriodEnd unixTime `json:"current_period_end"`
	Price            *struct {
		ID        string `json:"id"`
		Recurring *struct {
			Interval string `json:"interval"`
		} `json:"recurring"`
	} `json:"price"`
}

type subscriptionObject struct {
	ID               string       `json:"id"`
	Customer         expandableID `json:"customer"`
	Status           string       `json:"status"`
	CurrentPeriodEnd unixTime     `json:"current_period_end"`
	TrialStart       unixTime     `json:"trial_start"`
	TrialEnd         unixTime     `json:"trial_end"`
	Items            struct {
		Data []subscriptionItem `json:"data"`
	} `json:"items"`
}

// periodEnd prefers the legacy top-level field and falls back to the first
// item that reports one.
func (s subscriptionObject) periodEnd() *time.Time {
	if t := s.CurrentPeriodEnd.ptr(); t != nil {
		return t
	}
	for _, item := range s.Items.Data {
		if t := item.CurrentPeriodEnd.ptr(); t != nil {
			return t
		}
	}
	return nil
}

type invoiceObject struct {
	ID           string       `json:"id"`
	Customer     expandableID `json:"customer"`
	Subscription expandableID `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription expandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (i invoiceObject) subscriptionID() string {
	if i.Subscription != "" {
		return string(i.Subscription)
	}
	if i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		return string(i.Parent.SubscriptionDetails.Subscription)
	}
	return ""
}
