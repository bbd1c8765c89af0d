package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

// ErrNotFound is returned when no row matches for the user.
var ErrNotFound = errors.New("not found")

// Store persists the per-attempt logs and per-user records. Every read and
// write is scoped to the owning user.
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

// OwnsQuitAttempt reports whether the attempt exists and belongs to userID.
func (s *Store) OwnsQuitAttempt(ctx context.Context, userID, quitAttemptID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM quit_attempts WHERE id = $1 AND user_id = $2", quitAttemptID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query quit attempt owner: %w", err)
	}
	return n > 0, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
