package app

import (
	"math"
	"time"

	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
)

// DayNumber is the 1-based day of a quit attempt, clamped to the scripted year.
// A quit date in the future counts as day one.
func DayNumber(quitDate, now time.Time) int {
	days := math.Floor(now.Sub(quitDate).Hours()/24) + 1
	switch {
	case days < coachingdb.MinDay:
		return coachingdb.MinDay
	case days > coachingdb.MaxDay:
		return coachingdb.MaxDay
	}
	return int(days)
}

// Today is the UTC calendar date of now.
func Today(now time.Time) string {
	return now.UTC().Format(coachingdb.DateLayout)
}

// Streak counts consecutive committed days ending today. dates must be
// sorted newest first; a gap or a missing today ends the streak.
func Streak(dates []string, now time.Time) int {
	today := now.UTC()
	streak := 0
	for _, d := range dates {
		if d != today.AddDate(0, 0, -streak).Format(coachingdb.DateLayout) {
			break
		}
		streak++
	}
	return streak
}
