package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tbeaudouin05/quitcoach/api/database"
	"github.com/tbeaudouin05/quitcoach/api/entitlement"
)

var (
	// ErrNotFound is returned when no profile matches.
	ErrNotFound = errors.New("profile not found")
	// ErrEmailTaken is returned when inserting a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

const profileColumns = `id, email, username, password_hash, stripe_customer_id, stripe_subscription_id,
	subscription_status, subscription_plan, trial_start_date, trial_end_date, current_period_end,
	created_at, updated_at`

// Store persists profiles.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore returns a Store. A nil clock uses time.Now.
func NewStore(db *database.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new profile. CreatedAt/UpdatedAt are set when zero.
func (s *Store) Create(ctx context.Context, p Profile) (Profile, error) {
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	p.Email = NormalizeEmail(p.Email)

	exists, err := s.EmailExists(ctx, p.Email)
	if err != nil {
		return Profile{}, err
	}
	if exists {
		return Profile{}, ErrEmailTaken
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO profiles (
		id, email, username, password_hash, subscription_status, subscription_plan,
		trial_start_date, trial_end_date, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Email, nullString(p.Username), nullString(p.PasswordHash), string(p.SubscriptionStatus),
		nullString(string(p.SubscriptionPlan)), database.TimeArg(p.TrialStartDate), database.TimeArg(p.TrialEndDate),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return Profile{}, ErrEmailTaken
		}
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

// GetByID loads a profile by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (Profile, error) {
	return s.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
}

// GetByEmail loads a profile by (normalized) email.
func (s *Store) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return s.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE email = $1", NormalizeEmail(email))
}

// GetByStripeCustomerID loads the profile linked to a Stripe customer.
func (s *Store) GetByStripeCustomerID(ctx context.Context, customerID string) (Profile, error) {
	if customerID == "" {
		return Profile{}, ErrNotFound
	}
	return s.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE stripe_customer_id = $1", customerID)
}

// EmailExists reports whether a profile uses email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles WHERE email = $1", NormalizeEmail(email)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count profiles by email: %w", err)
	}
	return n > 0, nil
}

// SetStripeCustomerID links a profile to its Stripe customer.
func (s *Store) SetStripeCustomerID(ctx context.Context, id, customerID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET stripe_customer_id = $1, updated_at = $2 WHERE id = $3",
		customerID, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set stripe customer id: %w", err)
	}
	return requireRow(res)
}

// ApplyBilling overwrites the billing columns of a profile. Repeating the same
// update leaves the row in the same state.
func (s *Store) ApplyBilling(ctx context.Context, id string, u BillingUpdate) error {
	if !u.Status.Valid() {
		return fmt.Errorf("invalid subscription status %q", u.Status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET
		subscription_status = $1,
		stripe_subscription_id = COALESCE($2, stripe_subscription_id),
		subscription_plan = COALESCE($3, subscription_plan),
		current_period_end = COALESCE($4, current_period_end),
		trial_start_date = COALESCE($5, trial_start_date),
		trial_end_date = COALESCE($6, trial_end_date),
		updated_at = $7
	WHERE id = $8`,
		string(u.Status), nullString(u.SubscriptionID), nullString(string(u.Plan)),
		database.TimeArg(u.CurrentPeriodEnd), database.TimeArg(u.TrialStart), database.TimeArg(u.TrialEnd),
		s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("apply billing update: %w", err)
	}
	return requireRow(res)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (Profile, error) {
	var (
		p                               Profile
		username, hash, cust, sub, plan sql.NullString
		status                          string
		trialStart, trialEnd, periodEnd database.NullTime
		createdAt, updatedAt            database.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Email, &username, &hash, &cust, &sub,
		&status, &plan, &trialStart, &trialEnd, &periodEnd,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p.Username = username.String
	p.PasswordHash = hash.String
	p.StripeCustomerID = cust.String
	p.StripeSubscriptionID = sub.String
	p.SubscriptionStatus = entitlement.Status(status)
	p.SubscriptionPlan = entitlement.Plan(plan.String)
	p.TrialStartDate = trialStart.Ptr()
	p.TrialEndDate = trialEnd.Ptr()
	p.CurrentPeriodEnd = periodEnd.Ptr()
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
