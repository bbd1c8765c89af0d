package db

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tbeaudouin05/quitcoach/api/database"
)

//go:embed seed/scripts.json
var defaultScripts []byte

const scriptColumns = `id, day_number, title, message, action_step, identity_reminder, category, created_at`

// DefaultScripts returns the bundled coaching content.
func DefaultScripts() ([]Script, error) {
	var scripts []Script
	if err := json.Unmarshal(defaultScripts, &scripts); err != nil {
		return nil, fmt.Errorf("decode bundled scripts: %w", err)
	}
	return scripts, nil
}

// ScriptByDay loads the script for dayNumber.
func (s *Store) ScriptByDay(ctx context.Context, dayNumber int) (Script, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+scriptColumns+
		" FROM daily_coaching_scripts WHERE day_number = $1", dayNumber)
	if err != nil {
		return Script{}, fmt.Errorf("query script: %w", err)
	}
	list, err := scanScripts(rows)
	if err != nil {
		return Script{}, err
	}
	if len(list) == 0 {
		return Script{}, ErrNotFound
	}
	return list[0], nil
}

// Scripts lists every script by day.
func (s *Store) Scripts(ctx context.Context) ([]Script, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+scriptColumns+
		" FROM daily_coaching_scripts ORDER BY day_number")
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}
	return scanScripts(rows)
}

// ReplaceScripts swaps the whole script table for scripts in one transaction.
func (s *Store) ReplaceScripts(ctx context.Context, scripts []Script) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM daily_coaching_scripts"); err != nil {
		return fmt.Errorf("clear scripts: %w", err)
	}
	insert := s.db.Rebind(`INSERT INTO daily_coaching_scripts (
		id, day_number, title, message, action_step, identity_reminder, category, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	now := s.now().UTC()
	for _, sc := range scripts {
		if sc.DayNumber < MinDay || sc.DayNumber > MaxDay {
			return fmt.Errorf("script day %d out of range", sc.DayNumber)
		}
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		if _, err = tx.ExecContext(ctx, insert, sc.ID, sc.DayNumber, sc.Title, sc.Message,
			sc.ActionStep, sc.IdentityReminder, sc.Category, now); err != nil {
			return fmt.Errorf("insert script day %d: %w", sc.DayNumber, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Coaching content covers the first year.
const (
	MinDay = 1
	MaxDay = 365
)

func scanScripts(rows *sql.Rows) ([]Script, error) {
	defer rows.Close()
	list := []Script{}
	for rows.Next() {
		var (
			sc                      Script
			action, identity, categ sql.NullString
			created                 database.NullTime
		)
		if err := rows.Scan(&sc.ID, &sc.DayNumber, &sc.Title, &sc.Message,
			&action, &identity, &categ, &created); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		sc.ActionStep = stringPtr(action)
		sc.IdentityReminder = stringPtr(identity)
		sc.Category = stringPtr(categ)
		sc.CreatedAt = created.Time
		list = append(list, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scripts: %w", err)
	}
	return list, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
