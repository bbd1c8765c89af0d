package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

const notificationColumns = `id, user_id, notification_type, scheduled_for, title, message, trigger_type,
	sent, sent_at, created_at`

// ScheduleNotification queues a reminder for the user.
func (s *Store) ScheduleNotification(ctx context.Context, n Notification) (Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO scheduled_notifications (
		id, user_id, notification_type, scheduled_for, title, message, trigger_type, sent, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, n.NotificationType, n.ScheduledFor.UTC(), n.Title, n.Message, n.TriggerType,
		n.Sent, n.CreatedAt.UTC())
	if err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	n.ScheduledFor = n.ScheduledFor.UTC()
	return n, nil
}

// PendingNotifications lists the user's unsent reminders due after after,
// soonest first.
func (s *Store) PendingNotifications(ctx context.Context, userID string, after time.Time) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+notificationColumns+
		" FROM scheduled_notifications WHERE user_id = $1 AND sent = $2 AND scheduled_for > $3 ORDER BY scheduled_for",
		userID, false, after.UTC())
	if err != nil {
		return nil, fmt.Errorf("query pending notifications: %w", err)
	}
	return scanNotifications(rows)
}

// MarkNotificationSent flags one of the user's reminders as delivered.
func (s *Store) MarkNotificationSent(ctx context.Context, userID, id string) (Notification, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_notifications SET sent = $1, sent_at = $2 WHERE id = $3 AND user_id = $4",
		true, s.now().UTC(), id, userID)
	if err != nil {
		return Notification{}, fmt.Errorf("mark notification sent: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return Notification{}, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+notificationColumns+
		" FROM scheduled_notifications WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return Notification{}, fmt.Errorf("query notification: %w", err)
	}
	list, err := scanNotifications(rows)
	if err != nil {
		return Notification{}, err
	}
	if len(list) == 0 {
		return Notification{}, ErrNotFound
	}
	return list[0], nil
}

func scanNotifications(rows *sql.Rows) ([]Notification, error) {
	defer rows.Close()
	list := []Notification{}
	for rows.Next() {
		var (
			n                        Notification
			scheduled, sent, created database.NullTime
			triggerType              sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.NotificationType, &scheduled, &n.Title, &n.Message,
			&triggerType, &n.Sent, &sent, &created); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ScheduledFor = scheduled.Time
		n.TriggerType = stringPtr(triggerType)
		n.SentAt = sent.Ptr()
		n.CreatedAt = created.Time
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return list, nil
}
