package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("not found")

const quitAttemptColumns = `id, user_id, quit_date, product_type, daily_usage, cost, reasons, triggers, is_active, created_at`

// Store persists quit attempts, coaching scripts and daily commitments.
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

// CreateQuitAttempt inserts a new active attempt.
func (s *Store) CreateQuitAttempt(ctx context.Context, q QuitAttempt) (QuitAttempt, error) {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now().UTC()
	}
	if q.Reasons == nil {
		q.Reasons = []string{}
	}
	if q.Triggers == nil {
		q.Triggers = []string{}
	}
	q.IsActive = true
	reasons, err := json.Marshal(q.Reasons)
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("encode reasons: %w", err)
	}
	triggers, err := json.Marshal(q.Triggers)
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("encode triggers: %w", err)
	}
	var cost any
	if q.Cost != nil {
		cost = *q.Cost
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quit_attempts (
		id, user_id, quit_date, product_type, daily_usage, cost, reasons, triggers, is_active, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		q.ID, q.UserID, q.QuitDate.UTC(), q.ProductType, q.DailyUsage, cost,
		string(reasons), string(triggers), q.IsActive, q.CreatedAt.UTC())
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("insert quit attempt: %w", err)
	}
	q.QuitDate = q.QuitDate.UTC()
	return q, nil
}

// ActiveQuitAttempt returns the user's first active attempt.
func (s *Store) ActiveQuitAttempt(ctx context.Context, userID string) (QuitAttempt, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+quitAttemptColumns+
		" FROM quit_attempts WHERE user_id = $1 AND is_active = $2 ORDER BY created_at DESC LIMIT 1", userID, true)
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("query active quit attempt: %w", err)
	}
	list, err := scanQuitAttempts(rows)
	if err != nil {
		return QuitAttempt{}, err
	}
	if len(list) == 0 {
		return QuitAttempt{}, ErrNotFound
	}
	return list[0], nil
}

// QuitAttempt loads one of the user's attempts.
func (s *Store) QuitAttempt(ctx context.Context, userID, id string) (QuitAttempt, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+quitAttemptColumns+
		" FROM quit_attempts WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("query quit attempt: %w", err)
	}
	list, err := scanQuitAttempts(rows)
	if err != nil {
		return QuitAttempt{}, err
	}
	if len(list) == 0 {
		return QuitAttempt{}, ErrNotFound
	}
	return list[0], nil
}

// QuitAttempts lists the user's attempts, newest first.
func (s *Store) QuitAttempts(ctx context.Context, userID string) ([]QuitAttempt, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+quitAttemptColumns+
		" FROM quit_attempts WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query quit attempts: %w", err)
	}
	return scanQuitAttempts(rows)
}

// DeactivateQuitAttempt marks one of the user's attempts inactive and returns it.
func (s *Store) DeactivateQuitAttempt(ctx context.Context, userID, id string) (QuitAttempt, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE quit_attempts SET is_active = $1 WHERE id = $2 AND user_id = $3", false, id, userID)
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("deactivate quit attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return QuitAttempt{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return QuitAttempt{}, ErrNotFound
	}
	return s.QuitAttempt(ctx, userID, id)
}

func scanQuitAttempts(rows *sql.Rows) ([]QuitAttempt, error) {
	defer rows.Close()
	list := []QuitAttempt{}
	for rows.Next() {
		var (
			q                 QuitAttempt
			quitDate, created database.NullTime
			cost              sql.NullFloat64
			reasons, triggers []byte
		)
		if err := rows.Scan(&q.ID, &q.UserID, &quitDate, &q.ProductType, &q.DailyUsage, &cost,
			&reasons, &triggers, &q.IsActive, &created); err != nil {
			return nil, fmt.Errorf("scan quit attempt: %w", err)
		}
		q.QuitDate = quitDate.Time
		q.CreatedAt = created.Time
		if cost.Valid {
			c := cost.Float64
			q.Cost = &c
		}
		if err := decodeList(reasons, &q.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons: %w", err)
		}
		if err := decodeList(triggers, &q.Triggers); err != nil {
			return nil, fmt.Errorf("decode triggers: %w", err)
		}
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quit attempts: %w", err)
	}
	return list, nil
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
