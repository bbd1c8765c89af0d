package db

import (
	"context"
	"fmt"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

// CompleteLesson records a finished lesson.
func (s *Store) CompleteLesson(ctx context.Context, c LessonCompletion) (LessonCompletion, error) {
	if c.CompletedAt.IsZero() {
		c.CompletedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO education_progress (id, user_id, module_id, lesson_id, completed_at) VALUES ($1, $2, $3, $4, $5)",
		c.ID, c.UserID, c.ModuleID, c.LessonID, c.CompletedAt.UTC())
	if err != nil {
		return LessonCompletion{}, fmt.Errorf("insert lesson completion: %w", err)
	}
	return c, nil
}

// LessonCompletions lists the user's finished lessons, newest first.
func (s *Store) LessonCompletions(ctx context.Context, userID string) ([]LessonCompletion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, module_id, lesson_id, completed_at
		FROM education_progress WHERE user_id = $1 ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query lesson completions: %w", err)
	}
	defer rows.Close()
	list := []LessonCompletion{}
	for rows.Next() {
		var (
			c         LessonCompletion
			completed database.NullTime
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.ModuleID, &c.LessonID, &completed); err != nil {
			return nil, fmt.Errorf("scan lesson completion: %w", err)
		}
		c.CompletedAt = completed.Time
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson completions: %w", err)
	}
	return list, nil
}
