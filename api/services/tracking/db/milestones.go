package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

const milestoneColumns = `l.id, l.quit_attempt_id, l.milestone_type, l.achieved_at, l.celebrated, l.shared_publicly`

// CreateMilestone records an achievement. The caller checks attempt ownership.
func (s *Store) CreateMilestone(ctx context.Context, m Milestone) (Milestone, error) {
	if m.AchievedAt.IsZero() {
		m.AchievedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO milestones (
		id, quit_attempt_id, milestone_type, achieved_at, celebrated, shared_publicly
	) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.QuitAttemptID, m.MilestoneType, m.AchievedAt.UTC(), m.Celebrated, m.SharedPublicly)
	if err != nil {
		return Milestone{}, fmt.Errorf("insert milestone: %w", err)
	}
	return m, nil
}

// Milestones lists the user's achievements for an attempt, newest first.
func (s *Store) Milestones(ctx context.Context, userID, quitAttemptID string) ([]Milestone, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+milestoneColumns+" FROM milestones"+ownedBy+
		" ORDER BY l.achieved_at DESC", quitAttemptID, userID)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	return scanMilestones(rows)
}

// MarkCelebrated flags one of the user's milestones as celebrated.
func (s *Store) MarkCelebrated(ctx context.Context, userID, id string) (Milestone, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE milestones SET celebrated = $1
		WHERE id = $2 AND quit_attempt_id IN (SELECT id FROM quit_attempts WHERE user_id = $3)`,
		true, id, userID)
	if err != nil {
		return Milestone{}, fmt.Errorf("mark milestone celebrated: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return Milestone{}, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+milestoneColumns+
		" FROM milestones l JOIN quit_attempts q ON q.id = l.quit_attempt_id WHERE l.id = $1 AND q.user_id = $2",
		id, userID)
	if err != nil {
		return Milestone{}, fmt.Errorf("query milestone: %w", err)
	}
	list, err := scanMilestones(rows)
	if err != nil {
		return Milestone{}, err
	}
	if len(list) == 0 {
		return Milestone{}, ErrNotFound
	}
	return list[0], nil
}

func scanMilestones(rows *sql.Rows) ([]Milestone, error) {
	defer rows.Close()
	list := []Milestone{}
	for rows.Next() {
		var (
			m        Milestone
			achieved database.NullTime
		)
		if err := rows.Scan(&m.ID, &m.QuitAttemptID, &m.MilestoneType, &achieved, &m.Celebrated, &m.SharedPublicly); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		m.AchievedAt = achieved.Time
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestones: %w", err)
	}
	return list, nil
}
