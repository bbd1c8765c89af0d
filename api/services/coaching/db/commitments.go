package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

const commitmentColumns = `id, user_id, quit_attempt_id, commitment_date, morning_committed, morning_committed_at,
	evening_reflected, evening_reflected_at, day_success, evening_notes, created_at`

// CommitmentOn loads the user's commitment for date (YYYY-MM-DD).
func (s *Store) CommitmentOn(ctx context.Context, userID, date string) (Commitment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+commitmentColumns+
		" FROM daily_commitments WHERE user_id = $1 AND commitment_date = $2", userID, date)
	if err != nil {
		return Commitment{}, fmt.Errorf("query commitment: %w", err)
	}
	list, err := scanCommitments(rows)
	if err != nil {
		return Commitment{}, err
	}
	if len(list) == 0 {
		return Commitment{}, ErrNotFound
	}
	return list[0], nil
}

// CommitMorning records the morning commitment for date, creating the day's
// row or updating it in place.
func (s *Store) CommitMorning(ctx context.Context, userID string, quitAttemptID *string, date string) (Commitment, error) {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_commitments (
		id, user_id, quit_attempt_id, commitment_date, morning_committed, morning_committed_at, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, commitment_date) DO UPDATE SET
		morning_committed = excluded.morning_committed,
		morning_committed_at = excluded.morning_committed_at`,
		uuid.NewString(), userID, quitAttemptID, date, true, now, now)
	if err != nil {
		return Commitment{}, fmt.Errorf("upsert morning commitment: %w", err)
	}
	return s.CommitmentOn(ctx, userID, date)
}

// ReflectEvening records the evening reflection for date. Absent notes keep
// previously saved ones.
func (s *Store) ReflectEvening(ctx context.Context, userID, date string, success bool, notes *string) (Commitment, error) {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_commitments (
		id, user_id, commitment_date, evening_reflected, evening_reflected_at, day_success, evening_notes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, commitment_date) DO UPDATE SET
		evening_reflected = excluded.evening_reflected,
		evening_reflected_at = excluded.evening_reflected_at,
		day_success = excluded.day_success,
		evening_notes = COALESCE(excluded.evening_notes, daily_commitments.evening_notes)`,
		uuid.NewString(), userID, date, true, now, success, notes, now)
	if err != nil {
		return Commitment{}, fmt.Errorf("upsert evening reflection: %w", err)
	}
	return s.CommitmentOn(ctx, userID, date)
}

// MorningCommitmentDates lists the dates the user committed on, newest first.
func (s *Store) MorningCommitmentDates(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT commitment_date FROM daily_commitments
		WHERE user_id = $1 AND morning_committed = $2 ORDER BY commitment_date DESC`, userID, true)
	if err != nil {
		return nil, fmt.Errorf("query commitment dates: %w", err)
	}
	defer rows.Close()
	var dates []string
	for rows.Next() {
		var d database.NullTime
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan commitment date: %w", err)
		}
		dates = append(dates, d.Time.Format(DateLayout))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitment dates: %w", err)
	}
	return dates, nil
}

// Commitments lists the user's most recent commitments.
func (s *Store) Commitments(ctx context.Context, userID string, limit int) ([]Commitment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+commitmentColumns+
		" FROM daily_commitments WHERE user_id = $1 ORDER BY commitment_date DESC LIMIT $2", userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query commitments: %w", err)
	}
	return scanCommitments(rows)
}

func scanCommitments(rows *sql.Rows) ([]Commitment, error) {
	defer rows.Close()
	list := []Commitment{}
	for rows.Next() {
		var (
			c                  Commitment
			attemptID, notes   sql.NullString
			date, created      database.NullTime
			morningAt, evening database.NullTime
			success            sql.NullBool
		)
		if err := rows.Scan(&c.ID, &c.UserID, &attemptID, &date, &c.MorningCommitted, &morningAt,
			&c.EveningReflected, &evening, &success, &notes, &created); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		c.QuitAttemptID = stringPtr(attemptID)
		c.EveningNotes = stringPtr(notes)
		c.CommitmentDate = date.Time.Format(DateLayout)
		c.MorningCommittedAt = morningAt.Ptr()
		c.EveningReflectedAt = evening.Ptr()
		if success.Valid {
			v := success.Bool
			c.DaySuccess = &v
		}
		c.CreatedAt = created.Time
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitments: %w", err)
	}
	return list, nil
}
