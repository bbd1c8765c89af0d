package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime accepts the textual timestamp forms produced by Postgres and SQLite.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// NullTime scans nullable timestamps regardless of how the driver represents them.
type NullTime struct {
	Time  time.Time
	Valid bool
}

func (n *NullTime) Scan(src any) error {
	n.Time, n.Valid = time.Time{}, false
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		n.Time = v.UTC()
	case string:
		t, err := ParseTime(v)
		if err != nil {
			return err
		}
		n.Time = t
	case []byte:
		t, err := ParseTime(string(v))
		if err != nil {
			return err
		}
		n.Time = t
	case int64:
		n.Time = time.Unix(v, 0).UTC()
	default:
		return fmt.Errorf("cannot scan %T into NullTime", src)
	}
	n.Valid = true
	return nil
}

func (n NullTime) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Time.UTC(), nil
}

// Ptr returns nil for NULL.
func (n NullTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// TimeArg converts an optional time into a driver argument.
func TimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
