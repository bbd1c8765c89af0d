package app

import coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"

// ProductTypes accepted for a quit attempt.
var ProductTypes = []string{"cigarettes", "vape_disposable", "vape_refillable", "pouches", "dip", "multiple"}

// Triggers accepted for a quit attempt.
var Triggers = []string{
	"coffee", "after_meals", "driving", "work", "stress", "boredom", "social",
	"before_bed", "waking_up", "alcohol", "outside", "phone", "emotional", "other",
}

// DefaultCommitmentLimit bounds commitments.getAll when no limit is given.
const DefaultCommitmentLimit = 30

type CreateQuitAttemptRequest struct {
	QuitDate    string   `json:"quitDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ProductType string   `json:"productType" validate:"required,oneof=cigarettes vape_disposable vape_refillable pouches dip multiple"`
	DailyUsage  *int     `json:"dailyUsage" validate:"required,min=0"`
	Cost        *float64 `json:"cost" validate:"omitempty,min=0"`
	Reasons     []string `json:"reasons" validate:"required,dive,max=500"`
	Triggers    []string `json:"triggers" validate:"required,dive,oneof=coffee after_meals driving work stress boredom social before_bed waking_up alcohol outside phone emotional other"`
}

type IDRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type TodayScriptRequest struct {
	QuitAttemptID string `json:"quitAttemptId" validate:"required,uuid"`
}

type DayRequest struct {
	DayNumber int `json:"dayNumber" validate:"min=1,max=365"`
}

type MorningRequest struct {
	QuitAttemptID *string `json:"quitAttemptId" validate:"omitempty,uuid"`
}

type EveningRequest struct {
	DaySuccess   *bool   `json:"daySuccess" validate:"required"`
	EveningNotes *string `json:"eveningNotes" validate:"omitempty,max=2000"`
}

type ListRequest struct {
	Limit *int `json:"limit" validate:"omitempty,min=1,max=365"`
}

// TodayScript is the script for the caller's current day; Script is nil when
// no content exists for that day.
type TodayScript struct {
	DayNumber int                `json:"dayNumber"`
	Script    *coachingdb.Script `json:"script"`
}

type StreakResponse struct {
	CurrentStreak    int `json:"currentStreak"`
	TotalCommitments int `json:"totalCommitments"`
}
