// Package gate derives what the app shell may render from the subscription
// status and access-check results, and schedules the one-time trial upsell.
// It is a convenience for clients; the server-side access check is what
// actually protects data.
package gate

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	stripeapp "github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
)

// State is what the shell renders.
type State string

const (
	StateLoading        State = "loading"
	StateMustStartTrial State = "must-start-trial"
	StateNoAccess       State = "no-access"
	StateActive         State = "active"
)

const (
	// UpsellDelay is how long an active trial waits before the upsell shows.
	UpsellDelay = 2 * time.Second
	// UpsellFlag is the session key recording that the upsell was shown.
	UpsellFlag = "trialUpsellShown"
)

// View is the derived shell state.
type View struct {
	State State `json:"state"`

	// Reason is the payment wall variant; set only in StateNoAccess.
	Reason        entitlement.Reason `json:"reason,omitempty"`
	Trialing      bool               `json:"trialing"`
	DaysRemaining int                `json:"daysRemaining"`
}

// Source supplies the two polled queries. *client.Client satisfies it.
type Source interface {
	SubscriptionStatus(ctx context.Context) (stripeapp.StatusResponse, error)
	CheckAccess(ctx context.Context) (stripeapp.AccessResponse, error)
}

// Session stores per-session flags.
type Session interface {
	Get(key string) bool
	Set(key string)
}

// MemorySession is a Session that lives as long as the process.
type MemorySession struct {
	mu    sync.Mutex
	flags map[string]bool
}

func NewMemorySession() *MemorySession {
	return &MemorySession{flags: make(map[string]bool)}
}

func (m *MemorySession) Get(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[key]
}

func (m *MemorySession) Set(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = true
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. f must run on another goroutine.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option customises a Shell.
type Option func(*Shell)

// WithAfterFunc replaces the scheduler (tests).
func WithAfterFunc(fn AfterFunc) Option { return func(s *Shell) { s.afterFunc = fn } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Shell) { s.now = now } }

// Shell tracks the gate state for one signed-in session.
type Shell struct {
	mu        sync.Mutex
	session   Session
	onUpsell  func()
	afterFunc AfterFunc
	now       func() time.Time

	view    View
	pending Timer
	gen     uint64
	closed  bool
}

// New returns a Shell in StateLoading. onUpsell may be nil.
func New(session Session, onUpsell func(), opts ...Option) *Shell {
	s := &Shell{
		session:   session,
		onUpsell:  onUpsell,
		afterFunc: realAfterFunc,
		now:       time.Now,
		view:      View{State: StateLoading},
	}
	for _, o := range opts {
		o(s)
	}
	if s.session == nil {
		s.session = NewMemorySession()
	}
	return s
}

// View returns the last derived state.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Derive computes the view without side effects. A nil argument means that
// query has not resolved yet.
func Derive(status *stripeapp.StatusResponse, access *stripeapp.AccessResponse, now time.Time) View {
	if status == nil || access == nil {
		return View{State: StateLoading}
	}
	v := View{
		Trialing:      status.Status == entitlement.StatusTrialing,
		DaysRemaining: DaysRemaining(status.TrialEndDate, now),
	}
	switch {
	case status.Status == entitlement.StatusIncomplete:
		v.State = StateMustStartTrial
	case !access.HasAccess:
		v.State = StateNoAccess
		v.Reason = PaywallReason(access.Reason)
	default:
		v.State = StateActive
	}
	return v
}

// PaywallReason picks the payment wall variant. Only no_subscription has its
// own wall; every other denial shows the expired trial wall.
func PaywallReason(r entitlement.Reason) entitlement.Reason {
	if r == entitlement.ReasonNoSubscription {
		return r
	}
	return entitlement.ReasonTrialExpired
}

// DaysRemaining rounds the time left in the trial up to whole days.
func DaysRemaining(trialEnd *time.Time, now time.Time) int {
	if trialEnd == nil {
		return 0
	}
	left := trialEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// Update derives the view from the latest query results and schedules or
// cancels the upsell accordingly.
func (s *Shell) Update(status *stripeapp.StatusResponse, access *stripeapp.AccessResponse) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.view
	}
	s.view = Derive(status, access, s.now())
	if s.upsellEligible() {
		s.scheduleLocked()
	} else {
		s.cancelLocked()
	}
	return s.view
}

// Refresh polls both queries and updates the view. On error the view is left
// unchanged.
func (s *Shell) Refresh(ctx context.Context, src Source) (View, error) {
	status, err := src.SubscriptionStatus(ctx)
	if err != nil {
		return s.View(), fmt.Errorf("subscription status: %w", err)
	}
	access, err := src.CheckAccess(ctx)
	if err != nil {
		return s.View(), fmt.Errorf("check access: %w", err)
	}
	return s.Update(&status, &access), nil
}

// Close cancels a pending upsell. The Shell ignores updates afterwards.
func (s *Shell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
}

func (s *Shell) upsellEligible() bool {
	return s.view.State == StateActive &&
		s.view.Trialing &&
		s.view.DaysRemaining > 0 &&
		!s.session.Get(UpsellFlag)
}

func (s *Shell) scheduleLocked() {
	if s.pending != nil {
		return
	}
	s.gen++
	gen := s.gen
	s.pending = s.afterFunc(UpsellDelay, func() { s.fire(gen) })
}

func (s *Shell) cancelLocked() {
	if s.pending == nil {
		return
	}
	s.pending.Stop()
	s.pending = nil
	s.gen++
}

func (s *Shell) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.session.Get(UpsellFlag) {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.session.Set(UpsellFlag)
	cb := s.onUpsell
	s.mu.Unlock()

	log.Debug().Int("days_remaining", s.View().DaysRemaining).Msg("showing trial upsell")
	if cb != nil {
		cb()
	}
}
