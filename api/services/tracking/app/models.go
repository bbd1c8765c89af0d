package app

// DefaultRecentTriggers bounds triggerLogs.getRecent when no limit is given.
const DefaultRecentTriggers = 10

type AttemptRequest struct {
	QuitAttemptID string `json:"quitAttemptId" validate:"required,uuid"`
}

type IDRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type CreateProgressLogRequest struct {
	QuitAttemptID string  `json:"quitAttemptId" validate:"required,uuid"`
	LogDate       string  `json:"logDate" validate:"required,datetime=2006-01-02"`
	CravingsCount *int    `json:"cravingsCount" validate:"omitempty,min=0"`
	MoodRating    *int    `json:"moodRating" validate:"omitempty,min=1,max=5"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

type CreateTriggerLogRequest struct {
	QuitAttemptID  string  `json:"quitAttemptId" validate:"required,uuid"`
	TriggerType    string  `json:"triggerType" validate:"required,oneof=coffee after_meals driving work stress boredom social before_bed waking_up alcohol outside phone emotional other"`
	Intensity      int     `json:"intensity" validate:"min=1,max=5"`
	Location       *string `json:"location" validate:"omitempty,max=200"`
	CopingStrategy string  `json:"copingStrategy" validate:"min=10,max=500"`
	WasSuccessful  *bool   `json:"wasSuccessful" validate:"required"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

type RecentTriggersRequest struct {
	QuitAttemptID string `json:"quitAttemptId" validate:"required,uuid"`
	Limit         *int   `json:"limit" validate:"omitempty,min=1,max=100"`
}

type CreateSlipLogRequest struct {
	QuitAttemptID string  `json:"quitAttemptId" validate:"required,uuid"`
	OccurredAt    string  `json:"occurredAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Quantity      *int    `json:"quantity" validate:"omitempty,min=0"`
	TriggerType   *string `json:"triggerType" validate:"omitempty,oneof=coffee after_meals driving work stress boredom social before_bed waking_up alcohol outside phone emotional other"`
	Circumstances *string `json:"circumstances" validate:"required,max=500"`
	Feelings      *string `json:"feelings" validate:"required,max=500"`
	LessonLearned *string `json:"lessonLearned" validate:"omitempty,max=500"`
}

type CreateMilestoneRequest struct {
	QuitAttemptID string `json:"quitAttemptId" validate:"required,uuid"`
	MilestoneType string `json:"milestoneType" validate:"required,max=50"`
}

// UpdateSettingsRequest changes only the fields that are present.
type UpdateSettingsRequest struct {
	NotificationsEnabled *bool    `json:"notificationsEnabled"`
	NotificationTimes    []string `json:"notificationTimes" validate:"omitempty,max=24,dive,datetime=15:04"`
	Theme                *string  `json:"theme" validate:"omitempty,oneof=light dark system"`
	Currency             *string  `json:"currency" validate:"omitempty,len=3"`
	CigaretteCost        *float64 `json:"cigaretteCost" validate:"omitempty,min=0"`
	CigarettesPerDay     *int     `json:"cigarettesPerDay" validate:"omitempty,min=0"`
}

type CompleteLessonRequest struct {
	ModuleID string `json:"moduleId" validate:"required,max=50"`
	LessonID string `json:"lessonId" validate:"required,max=50"`
}

type ScheduleNotificationRequest struct {
	NotificationType string  `json:"notificationType" validate:"required,max=50"`
	ScheduledFor     string  `json:"scheduledFor" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Title            string  `json:"title" validate:"required,max=200"`
	Message          string  `json:"message" validate:"required"`
	TriggerType      *string `json:"triggerType" validate:"omitempty,max=50"`
}
