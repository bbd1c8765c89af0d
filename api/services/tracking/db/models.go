package db

import "time"

// ProgressLog is a daily check-in. LogDate is formatted YYYY-MM-DD.
type ProgressLog struct {
	ID            string    `json:"id"`
	QuitAttemptID string    `json:"quitAttemptId"`
	LogDate       string    `json:"logDate"`
	CravingsCount int       `json:"cravingsCount"`
	MoodRating    *int      `json:"moodRating"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TriggerLog records one craving and how it was handled.
type TriggerLog struct {
	ID             string    `json:"id"`
	QuitAttemptID  string    `json:"quitAttemptId"`
	TriggerType    string    `json:"triggerType"`
	Intensity      int       `json:"intensity"`
	Location       *string   `json:"location"`
	CopingStrategy string    `json:"copingStrategy"`
	WasSuccessful  bool      `json:"wasSuccessful"`
	OccurredAt     time.Time `json:"occurredAt"`
	Notes          *string   `json:"notes"`
}

type SlipLog struct {
	ID            string    `json:"id"`
	QuitAttemptID string    `json:"quitAttemptId"`
	OccurredAt    time.Time `json:"occurredAt"`
	Quantity      *int      `json:"quantity"`
	TriggerType   *string   `json:"triggerType"`
	Circumstances string    `json:"circumstances"`
	Feelings      string    `json:"feelings"`
	LessonLearned *string   `json:"lessonLearned"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Milestone struct {
	ID             string    `json:"id"`
	QuitAttemptID  string    `json:"quitAttemptId"`
	MilestoneType  string    `json:"milestoneType"`
	AchievedAt     time.Time `json:"achievedAt"`
	Celebrated     bool      `json:"celebrated"`
	SharedPublicly bool      `json:"sharedPublicly"`
}

// UserSettings is the one row of preferences per user.
type UserSettings struct {
	UserID               string    `json:"userId"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	NotificationTimes    []string  `json:"notificationTimes"`
	Theme                string    `json:"theme"`
	Currency             string    `json:"currency"`
	CigaretteCost        *float64  `json:"cigaretteCost"`
	CigarettesPerDay     *int      `json:"cigarettesPerDay"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// SettingsPatch holds the fields to change; nil fields keep their value.
type SettingsPatch struct {
	NotificationsEnabled *bool
	NotificationTimes    []string
	Theme                *string
	Currency             *string
	CigaretteCost        *float64
	CigarettesPerDay     *int
}

type LessonCompletion struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ModuleID    string    `json:"moduleId"`
	LessonID    string    `json:"lessonId"`
	CompletedAt time.Time `json:"completedAt"`
}

type Notification struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	NotificationType string     `json:"notificationType"`
	ScheduledFor     time.Time  `json:"scheduledFor"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	TriggerType      *string    `json:"triggerType"`
	Sent             bool       `json:"sent"`
	SentAt           *time.Time `json:"sentAt"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// DateLayout formats progress log dates.
const DateLayout = "2006-01-02"
