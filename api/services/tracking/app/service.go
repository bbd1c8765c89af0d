package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tbeaudouin05/quitcoach/api/logging"
	trackingdb "github.com/tbeaudouin05/quitcoach/api/services/tracking/db"
)

// Store is the persistence used by the tracking service.
type Store interface {
	OwnsQuitAttempt(ctx context.Context, userID, quitAttemptID string) (bool, error)
	CreateProgressLog(ctx context.Context, p trackingdb.ProgressLog) (trackingdb.ProgressLog, error)
	ProgressLogs(ctx context.Context, userID, quitAttemptID string) ([]trackingdb.ProgressLog, error)
	CreateTriggerLog(ctx context.Context, t trackingdb.TriggerLog) (trackingdb.TriggerLog, error)
	TriggerLogs(ctx context.Context, userID, quitAttemptID string, limit int) ([]trackingdb.TriggerLog, error)
	CreateSlipLog(ctx context.Context, s trackingdb.SlipLog) (trackingdb.SlipLog, error)
	SlipLogs(ctx context.Context, userID, quitAttemptID string) ([]trackingdb.SlipLog, error)
	CreateMilestone(ctx context.Context, m trackingdb.Milestone) (trackingdb.Milestone, error)
	Milestones(ctx context.Context, userID, quitAttemptID string) ([]trackingdb.Milestone, error)
	MarkCelebrated(ctx context.Context, userID, id string) (trackingdb.Milestone, error)
	Settings(ctx context.Context, userID string) (trackingdb.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, p trackingdb.SettingsPatch) (trackingdb.UserSettings, error)
	CompleteLesson(ctx context.Context, c trackingdb.LessonCompletion) (trackingdb.LessonCompletion, error)
	LessonCompletions(ctx context.Context, userID string) ([]trackingdb.LessonCompletion, error)
	ScheduleNotification(ctx context.Context, n trackingdb.Notification) (trackingdb.Notification, error)
	PendingNotifications(ctx context.Context, userID string, after time.Time) ([]trackingdb.Notification, error)
	MarkNotificationSent(ctx context.Context, userID, id string) (trackingdb.Notification, error)
}

// Settings carry the clock and id generator.
type Settings struct {
	Now   func() time.Time
	NewID func() string
}

// Service implements the progress, trigger and slip logs, milestones, user
// settings, lesson progress and reminders. Every call acts for one user.
type Service struct {
	store    Store
	settings Settings
}

func NewService(store Store, settings Settings) *Service {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.NewID == nil {
		settings.NewID = uuid.NewString
	}
	return &Service{store: store, settings: settings}
}

// ownAttempt returns ErrNotFound unless userID owns the attempt.
func (s *Service) ownAttempt(ctx context.Context, userID, quitAttemptID string) error {
	ok, err := s.store.OwnsQuitAttempt(ctx, userID, quitAttemptID)
	if err != nil {
		return fmt.Errorf("%w: error retrieving quit attempt: %v", ErrDatabase, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateProgressLog(ctx context.Context, userID string, req CreateProgressLogRequest) (trackingdb.ProgressLog, error) {
	if _, err := time.Parse(trackingdb.DateLayout, req.LogDate); err != nil {
		return trackingdb.ProgressLog{}, fmt.Errorf("%w: logDate: %v", ErrValidation, err)
	}
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return trackingdb.ProgressLog{}, err
	}
	cravings := 0
	if req.CravingsCount != nil {
		cravings = *req.CravingsCount
	}
	p, err := s.store.CreateProgressLog(ctx, trackingdb.ProgressLog{
		ID:            s.settings.NewID(),
		QuitAttemptID: req.QuitAttemptID,
		LogDate:       req.LogDate,
		CravingsCount: cravings,
		MoodRating:    req.MoodRating,
		Notes:         req.Notes,
		CreatedAt:     s.settings.Now().UTC(),
	})
	if err != nil {
		return trackingdb.ProgressLog{}, fmt.Errorf("%w: error creating progress log: %v", ErrDatabase, err)
	}
	return p, nil
}

func (s *Service) ProgressLogs(ctx context.Context, userID string, req AttemptRequest) ([]trackingdb.ProgressLog, error) {
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return nil, err
	}
	list, err := s.store.ProgressLogs(ctx, userID, req.QuitAttemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing progress logs: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) CreateTriggerLog(ctx context.Context, userID string, req CreateTriggerLogRequest) (trackingdb.TriggerLog, error) {
	if req.WasSuccessful == nil {
		return trackingdb.TriggerLog{}, fmt.Errorf("%w: wasSuccessful is required", ErrValidation)
	}
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return trackingdb.TriggerLog{}, err
	}
	t, err := s.store.CreateTriggerLog(ctx, trackingdb.TriggerLog{
		ID:             s.settings.NewID(),
		QuitAttemptID:  req.QuitAttemptID,
		TriggerType:    req.TriggerType,
		Intensity:      req.Intensity,
		Location:       req.Location,
		CopingStrategy: req.CopingStrategy,
		WasSuccessful:  *req.WasSuccessful,
		OccurredAt:     s.settings.Now().UTC(),
		Notes:          req.Notes,
	})
	if err != nil {
		return trackingdb.TriggerLog{}, fmt.Errorf("%w: error creating trigger log: %v", ErrDatabase, err)
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("trigger_type", t.TriggerType).
		Bool("was_successful", t.WasSuccessful).Msg("trigger logged")
	return t, nil
}

func (s *Service) TriggerLogs(ctx context.Context, userID string, req AttemptRequest) ([]trackingdb.TriggerLog, error) {
	return s.triggerLogs(ctx, userID, req.QuitAttemptID, 0)
}

// RecentTriggerLogs returns the newest trigger logs, DefaultRecentTriggers
// unless a limit is given.
func (s *Service) RecentTriggerLogs(ctx context.Context, userID string, req RecentTriggersRequest) ([]trackingdb.TriggerLog, error) {
	limit := DefaultRecentTriggers
	if req.Limit != nil {
		limit = *req.Limit
	}
	return s.triggerLogs(ctx, userID, req.QuitAttemptID, limit)
}

func (s *Service) triggerLogs(ctx context.Context, userID, quitAttemptID string, limit int) ([]trackingdb.TriggerLog, error) {
	if err := s.ownAttempt(ctx, userID, quitAttemptID); err != nil {
		return nil, err
	}
	list, err := s.store.TriggerLogs(ctx, userID, quitAttemptID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing trigger logs: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) CreateSlipLog(ctx context.Context, userID string, req CreateSlipLogRequest) (trackingdb.SlipLog, error) {
	occurred, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		return trackingdb.SlipLog{}, fmt.Errorf("%w: occurredAt: %v", ErrValidation, err)
	}
	if req.Circumstances == nil || req.Feelings == nil {
		return trackingdb.SlipLog{}, fmt.Errorf("%w: circumstances and feelings are required", ErrValidation)
	}
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return trackingdb.SlipLog{}, err
	}
	sl, err := s.store.CreateSlipLog(ctx, trackingdb.SlipLog{
		ID:            s.settings.NewID(),
		QuitAttemptID: req.QuitAttemptID,
		OccurredAt:    occurred,
		Quantity:      req.Quantity,
		TriggerType:   req.TriggerType,
		Circumstances: *req.Circumstances,
		Feelings:      *req.Feelings,
		LessonLearned: req.LessonLearned,
		CreatedAt:     s.settings.Now().UTC(),
	})
	if err != nil {
		return trackingdb.SlipLog{}, fmt.Errorf("%w: error creating slip log: %v", ErrDatabase, err)
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Str("quit_attempt_id", sl.QuitAttemptID).Msg("slip logged")
	return sl, nil
}

func (s *Service) SlipLogs(ctx context.Context, userID string, req AttemptRequest) ([]trackingdb.SlipLog, error) {
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return nil, err
	}
	list, err := s.store.SlipLogs(ctx, userID, req.QuitAttemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing slip logs: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) CreateMilestone(ctx context.Context, userID string, req CreateMilestoneRequest) (trackingdb.Milestone, error) {
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return trackingdb.Milestone{}, err
	}
	m, err := s.store.CreateMilestone(ctx, trackingdb.Milestone{
		ID:            s.settings.NewID(),
		QuitAttemptID: req.QuitAttemptID,
		MilestoneType: req.MilestoneType,
		AchievedAt:    s.settings.Now().UTC(),
	})
	if err != nil {
		return trackingdb.Milestone{}, fmt.Errorf("%w: error creating milestone: %v", ErrDatabase, err)
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Str("milestone_type", m.MilestoneType).Msg("milestone reached")
	return m, nil
}

func (s *Service) Milestones(ctx context.Context, userID string, req AttemptRequest) ([]trackingdb.Milestone, error) {
	if err := s.ownAttempt(ctx, userID, req.QuitAttemptID); err != nil {
		return nil, err
	}
	list, err := s.store.Milestones(ctx, userID, req.QuitAttemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing milestones: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) MarkCelebrated(ctx context.Context, userID string, req IDRequest) (trackingdb.Milestone, error) {
	m, err := s.store.MarkCelebrated(ctx, userID, req.ID)
	if errors.Is(err, trackingdb.ErrNotFound) {
		return trackingdb.Milestone{}, ErrMilestoneNotFound
	}
	if err != nil {
		return trackingdb.Milestone{}, fmt.Errorf("%w: error updating milestone: %v", ErrDatabase, err)
	}
	return m, nil
}

// Settings returns nil until the caller saves settings once.
func (s *Service) Settings(ctx context.Context, userID string) (*trackingdb.UserSettings, error) {
	u, err := s.store.Settings(ctx, userID)
	if errors.Is(err, trackingdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error retrieving settings: %v", ErrDatabase, err)
	}
	return &u, nil
}

func (s *Service) UpdateSettings(ctx context.Context, userID string, req UpdateSettingsRequest) (trackingdb.UserSettings, error) {
	u, err := s.store.UpdateSettings(ctx, userID, trackingdb.SettingsPatch{
		NotificationsEnabled: req.NotificationsEnabled,
		NotificationTimes:    req.NotificationTimes,
		Theme:                req.Theme,
		Currency:             req.Currency,
		CigaretteCost:        req.CigaretteCost,
		CigarettesPerDay:     req.CigarettesPerDay,
	})
	if err != nil {
		return trackingdb.UserSettings{}, fmt.Errorf("%w: error saving settings: %v", ErrDatabase, err)
	}
	return u, nil
}

func (s *Service) CompleteLesson(ctx context.Context, userID string, req CompleteLessonRequest) (trackingdb.LessonCompletion, error) {
	c, err := s.store.CompleteLesson(ctx, trackingdb.LessonCompletion{
		ID:          s.settings.NewID(),
		UserID:      userID,
		ModuleID:    req.ModuleID,
		LessonID:    req.LessonID,
		CompletedAt: s.settings.Now().UTC(),
	})
	if err != nil {
		return trackingdb.LessonCompletion{}, fmt.Errorf("%w: error saving lesson progress: %v", ErrDatabase, err)
	}
	return c, nil
}

func (s *Service) LessonProgress(ctx context.Context, userID string) ([]trackingdb.LessonCompletion, error) {
	list, err := s.store.LessonCompletions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing lesson progress: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) ScheduleNotification(ctx context.Context, userID string, req ScheduleNotificationRequest) (trackingdb.Notification, error) {
	at, err := time.Parse(time.RFC3339, req.ScheduledFor)
	if err != nil {
		return trackingdb.Notification{}, fmt.Errorf("%w: scheduledFor: %v", ErrValidation, err)
	}
	n, err := s.store.ScheduleNotification(ctx, trackingdb.Notification{
		ID:               s.settings.NewID(),
		UserID:           userID,
		NotificationType: req.NotificationType,
		ScheduledFor:     at,
		Title:            req.Title,
		Message:          req.Message,
		TriggerType:      req.TriggerType,
		CreatedAt:        s.settings.Now().UTC(),
	})
	if err != nil {
		return trackingdb.Notification{}, fmt.Errorf("%w: error scheduling notification: %v", ErrDatabase, err)
	}
	return n, nil
}

// PendingNotifications lists the caller's unsent reminders still in the future.
func (s *Service) PendingNotifications(ctx context.Context, userID string) ([]trackingdb.Notification, error) {
	list, err := s.store.PendingNotifications(ctx, userID, s.settings.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: error listing notifications: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) MarkNotificationSent(ctx context.Context, userID string, req IDRequest) (trackingdb.Notification, error) {
	n, err := s.store.MarkNotificationSent(ctx, userID, req.ID)
	if errors.Is(err, trackingdb.ErrNotFound) {
		return trackingdb.Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return trackingdb.Notification{}, fmt.Errorf("%w: error updating notification: %v", ErrDatabase, err)
	}
	return n, nil
}
