package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

const settingsColumns = `user_id, notifications_enabled, notification_times, theme, currency,
	cigarette_cost, cigarettes_per_day, updated_at`

// Settings loads the user's preferences.
func (s *Store) Settings(ctx context.Context, userID string) (UserSettings, error) {
	var (
		u       UserSettings
		times   []byte
		cost    sql.NullFloat64
		perDay  sql.NullInt64
		updated database.NullTime
	)
	err := s.db.QueryRowContext(ctx, "SELECT "+settingsColumns+" FROM user_settings WHERE user_id = $1", userID).
		Scan(&u.UserID, &u.NotificationsEnabled, &times, &u.Theme, &u.Currency, &cost, &perDay, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return UserSettings{}, ErrNotFound
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("query settings: %w", err)
	}
	u.NotificationTimes = []string{}
	if len(times) > 0 {
		if err := json.Unmarshal(times, &u.NotificationTimes); err != nil {
			return UserSettings{}, fmt.Errorf("decode notification times: %w", err)
		}
	}
	if cost.Valid {
		c := cost.Float64
		u.CigaretteCost = &c
	}
	u.CigarettesPerDay = intPtr(perDay)
	u.UpdatedAt = updated.Time
	return u, nil
}

// UpdateSettings creates the user's row with defaults when missing, then
// applies the non-nil fields of p.
func (s *Store) UpdateSettings(ctx context.Context, userID string, p SettingsPatch) (UserSettings, error) {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_settings (user_id, updated_at) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING",
		userID, now)
	if err != nil {
		return UserSettings{}, fmt.Errorf("insert settings: %w", err)
	}
	var times any
	if p.NotificationTimes != nil {
		b, err := json.Marshal(p.NotificationTimes)
		if err != nil {
			return UserSettings{}, fmt.Errorf("encode notification times: %w", err)
		}
		times = string(b)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE user_settings SET
		notifications_enabled = COALESCE($1, notifications_enabled),
		notification_times = COALESCE($2, notification_times),
		theme = COALESCE($3, theme),
		currency = COALESCE($4, currency),
		cigarette_cost = COALESCE($5, cigarette_cost),
		cigarettes_per_day = COALESCE($6, cigarettes_per_day),
		updated_at = $7
	WHERE user_id = $8`,
		p.NotificationsEnabled, times, p.Theme, p.Currency, p.CigaretteCost, p.CigarettesPerDay, now, userID)
	if err != nil {
		return UserSettings{}, fmt.Errorf("update settings: %w", err)
	}
	return s.Settings(ctx, userID)
}
