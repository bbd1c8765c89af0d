package db

import "time"

// QuitAttempt is one row of quit_attempts. Cost is nil when not given.
type QuitAttempt struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	QuitDate    time.Time `json:"quitDate"`
	ProductType string    `json:"productType"`
	DailyUsage  int       `json:"dailyUsage"`
	Cost        *float64  `json:"cost"`
	Reasons     []string  `json:"reasons"`
	Triggers    []string  `json:"triggers"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Script is the coaching content for one day of a quit attempt.
type Script struct {
	ID               string    `json:"id"`
	DayNumber        int       `json:"dayNumber"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	ActionStep       *string   `json:"actionStep"`
	IdentityReminder *string   `json:"identityReminder"`
	Category         *string   `json:"category"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Commitment is a user's morning/evening record for one calendar day.
// CommitmentDate is formatted YYYY-MM-DD.
type Commitment struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	QuitAttemptID      *string    `json:"quitAttemptId"`
	CommitmentDate     string     `json:"commitmentDate"`
	MorningCommitted   bool       `json:"morningCommitted"`
	MorningCommittedAt *time.Time `json:"morningCommittedAt"`
	EveningReflected   bool       `json:"eveningReflected"`
	EveningReflectedAt *time.Time `json:"eveningReflectedAt"`
	DaySuccess         *bool      `json:"daySuccess"`
	EveningNotes       *string    `json:"eveningNotes"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// DateLayout formats commitment dates.
const DateLayout = "2006-01-02"
