package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

const (
	progressColumns = `l.id, l.quit_attempt_id, l.log_date, l.cravings_count, l.mood_rating, l.notes, l.created_at`

	triggerColumns = `l.id, l.quit_attempt_id, l.trigger_type, l.intensity, l.location, l.coping_strategy,
	l.was_successful, l.occurred_at, l.notes`

	slipColumns = `l.id, l.quit_attempt_id, l.occurred_at, l.quantity, l.trigger_type, l.circumstances,
	l.feelings, l.lesson_learned, l.created_at`

	// ownedBy joins a log table aliased l to its attempt's owner.
	ownedBy = ` l JOIN quit_attempts q ON q.id = l.quit_attempt_id WHERE l.quit_attempt_id = $1 AND q.user_id = $2`
)

// CreateProgressLog inserts a check-in. The caller checks attempt ownership.
func (s *Store) CreateProgressLog(ctx context.Context, p ProgressLog) (ProgressLog, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO progress_logs (
		id, quit_attempt_id, log_date, cravings_count, mood_rating, notes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.QuitAttemptID, p.LogDate, p.CravingsCount, p.MoodRating, p.Notes, p.CreatedAt.UTC())
	if err != nil {
		return ProgressLog{}, fmt.Errorf("insert progress log: %w", err)
	}
	return p, nil
}

// ProgressLogs lists the user's check-ins for an attempt, latest day first.
func (s *Store) ProgressLogs(ctx context.Context, userID, quitAttemptID string) ([]ProgressLog, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+progressColumns+" FROM progress_logs"+ownedBy+
		" ORDER BY l.log_date DESC, l.created_at DESC", quitAttemptID, userID)
	if err != nil {
		return nil, fmt.Errorf("query progress logs: %w", err)
	}
	defer rows.Close()
	list := []ProgressLog{}
	for rows.Next() {
		var (
			p             ProgressLog
			date, created database.NullTime
			mood          sql.NullInt64
			notes         sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.QuitAttemptID, &date, &p.CravingsCount, &mood, &notes, &created); err != nil {
			return nil, fmt.Errorf("scan progress log: %w", err)
		}
		p.LogDate = date.Time.Format(DateLayout)
		p.MoodRating = intPtr(mood)
		p.Notes = stringPtr(notes)
		p.CreatedAt = created.Time
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress logs: %w", err)
	}
	return list, nil
}

// CreateTriggerLog inserts a craving record. The caller checks attempt ownership.
func (s *Store) CreateTriggerLog(ctx context.Context, t TriggerLog) (TriggerLog, error) {
	if t.OccurredAt.IsZero() {
		t.OccurredAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO trigger_logs (
		id, quit_attempt_id, trigger_type, intensity, location, coping_strategy, was_successful, occurred_at, notes
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.QuitAttemptID, t.TriggerType, t.Intensity, t.Location, t.CopingStrategy,
		t.WasSuccessful, t.OccurredAt.UTC(), t.Notes)
	if err != nil {
		return TriggerLog{}, fmt.Errorf("insert trigger log: %w", err)
	}
	return t, nil
}

// TriggerLogs lists the user's craving records for an attempt, newest first.
// A limit of zero or less returns all of them.
func (s *Store) TriggerLogs(ctx context.Context, userID, quitAttemptID string, limit int) ([]TriggerLog, error) {
	query := "SELECT " + triggerColumns + " FROM trigger_logs" + ownedBy + " ORDER BY l.occurred_at DESC"
	args := []any{quitAttemptID, userID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trigger logs: %w", err)
	}
	defer rows.Close()
	list := []TriggerLog{}
	for rows.Next() {
		var (
			t               TriggerLog
			location, notes sql.NullString
			occurred        database.NullTime
		)
		if err := rows.Scan(&t.ID, &t.QuitAttemptID, &t.TriggerType, &t.Intensity, &location,
			&t.CopingStrategy, &t.WasSuccessful, &occurred, &notes); err != nil {
			return nil, fmt.Errorf("scan trigger log: %w", err)
		}
		t.Location = stringPtr(location)
		t.Notes = stringPtr(notes)
		t.OccurredAt = occurred.Time
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trigger logs: %w", err)
	}
	return list, nil
}

// CreateSlipLog inserts a slip. The caller checks attempt ownership.
func (s *Store) CreateSlipLog(ctx context.Context, sl SlipLog) (SlipLog, error) {
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO slip_logs (
		id, quit_attempt_id, occurred_at, quantity, trigger_type, circumstances, feelings, lesson_learned, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sl.ID, sl.QuitAttemptID, sl.OccurredAt.UTC(), sl.Quantity, sl.TriggerType, sl.Circumstances,
		sl.Feelings, sl.LessonLearned, sl.CreatedAt.UTC())
	if err != nil {
		return SlipLog{}, fmt.Errorf("insert slip log: %w", err)
	}
	sl.OccurredAt = sl.OccurredAt.UTC()
	return sl, nil
}

// SlipLogs lists the user's slips for an attempt, newest first.
func (s *Store) SlipLogs(ctx context.Context, userID, quitAttemptID string) ([]SlipLog, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+slipColumns+" FROM slip_logs"+ownedBy+
		" ORDER BY l.occurred_at DESC", quitAttemptID, userID)
	if err != nil {
		return nil, fmt.Errorf("query slip logs: %w", err)
	}
	defer rows.Close()
	list := []SlipLog{}
	for rows.Next() {
		var (
			sl                  SlipLog
			occurred, created   database.NullTime
			quantity            sql.NullInt64
			triggerType, lesson sql.NullString
		)
		if err := rows.Scan(&sl.ID, &sl.QuitAttemptID, &occurred, &quantity, &triggerType,
			&sl.Circumstances, &sl.Feelings, &lesson, &created); err != nil {
			return nil, fmt.Errorf("scan slip log: %w", err)
		}
		sl.OccurredAt = occurred.Time
		sl.Quantity = intPtr(quantity)
		sl.TriggerType = stringPtr(triggerType)
		sl.LessonLearned = stringPtr(lesson)
		sl.CreatedAt = created.Time
		list = append(list, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slip logs: %w", err)
	}
	return list, nil
}
