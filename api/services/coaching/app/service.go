package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tbeaudouin05/quitcoach/api/logging"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
)

// Store is the persistence used by the coaching service.
type Store interface {
	CreateQuitAttempt(ctx context.Context, q coachingdb.QuitAttempt) (coachingdb.QuitAttempt, error)
	ActiveQuitAttempt(ctx context.Context, userID string) (coachingdb.QuitAttempt, error)
	QuitAttempt(ctx context.Context, userID, id string) (coachingdb.QuitAttempt, error)
	QuitAttempts(ctx context.Context, userID string) ([]coachingdb.QuitAttempt, error)
	DeactivateQuitAttempt(ctx context.Context, userID, id string) (coachingdb.QuitAttempt, error)
	ScriptByDay(ctx context.Context, dayNumber int) (coachingdb.Script, error)
	Scripts(ctx context.Context) ([]coachingdb.Script, error)
	CommitmentOn(ctx context.Context, userID, date string) (coachingdb.Commitment, error)
	CommitMorning(ctx context.Context, userID string, quitAttemptID *string, date string) (coachingdb.Commitment, error)
	ReflectEvening(ctx context.Context, userID, date string, success bool, notes *string) (coachingdb.Commitment, error)
	MorningCommitmentDates(ctx context.Context, userID string) ([]string, error)
	Commitments(ctx context.Context, userID string, limit int) ([]coachingdb.Commitment, error)
}

// Settings carry the clock and id generator.
type Settings struct {
	Now   func() time.Time
	NewID func() string
}

// Service implements quit attempts, daily coaching and commitments.
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

func (s *Service) CreateQuitAttempt(ctx context.Context, userID string, req CreateQuitAttemptRequest) (coachingdb.QuitAttempt, error) {
	quitDate, err := time.Parse(time.RFC3339, req.QuitDate)
	if err != nil {
		return coachingdb.QuitAttempt{}, fmt.Errorf("%w: quitDate: %v", ErrValidation, err)
	}
	if req.DailyUsage == nil {
		return coachingdb.QuitAttempt{}, fmt.Errorf("%w: dailyUsage is required", ErrValidation)
	}
	q, err := s.store.CreateQuitAttempt(ctx, coachingdb.QuitAttempt{
		ID:          s.settings.NewID(),
		UserID:      userID,
		QuitDate:    quitDate,
		ProductType: req.ProductType,
		DailyUsage:  *req.DailyUsage,
		Cost:        req.Cost,
		Reasons:     req.Reasons,
		Triggers:    req.Triggers,
		CreatedAt:   s.settings.Now().UTC(),
	})
	if err != nil {
		return coachingdb.QuitAttempt{}, fmt.Errorf("%w: error creating quit attempt: %v", ErrDatabase, err)
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Str("quit_attempt_id", q.ID).Msg("quit attempt created")
	return q, nil
}

// ActiveQuitAttempt returns nil when the caller has none.
func (s *Service) ActiveQuitAttempt(ctx context.Context, userID string) (*coachingdb.QuitAttempt, error) {
	q, err := s.store.ActiveQuitAttempt(ctx, userID)
	if errors.Is(err, coachingdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error retrieving active quit attempt: %v", ErrDatabase, err)
	}
	return &q, nil
}

func (s *Service) QuitAttempts(ctx context.Context, userID string) ([]coachingdb.QuitAttempt, error) {
	list, err := s.store.QuitAttempts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing quit attempts: %v", ErrDatabase, err)
	}
	return list, nil
}

func (s *Service) DeactivateQuitAttempt(ctx context.Context, userID string, req IDRequest) (coachingdb.QuitAttempt, error) {
	q, err := s.store.DeactivateQuitAttempt(ctx, userID, req.ID)
	if errors.Is(err, coachingdb.ErrNotFound) {
		return coachingdb.QuitAttempt{}, ErrNotFound
	}
	if err != nil {
		return coachingdb.QuitAttempt{}, fmt.Errorf("%w: error deactivating quit attempt: %v", ErrDatabase, err)
	}
	return q, nil
}

// TodayScript picks the script for the caller's current day of the attempt.
func (s *Service) TodayScript(ctx context.Context, userID string, req TodayScriptRequest) (TodayScript, error) {
	q, err := s.store.QuitAttempt(ctx, userID, req.QuitAttemptID)
	if errors.Is(err, coachingdb.ErrNotFound) {
		return TodayScript{}, ErrNotFound
	}
	if err != nil {
		return TodayScript{}, fmt.Errorf("%w: error retrieving quit attempt: %v", ErrDatabase, err)
	}
	day := DayNumber(q.QuitDate, s.settings.Now())
	script, err := s.ScriptByDay(ctx, DayRequest{DayNumber: day})
	if err != nil {
		return TodayScript{}, err
	}
	return TodayScript{DayNumber: day, Script: script}, nil
}

// ScriptByDay returns nil when no script exists for the day.
func (s *Service) ScriptByDay(ctx context.Context, req DayRequest) (*coachingdb.Script, error) {
	if req.DayNumber < coachingdb.MinDay || req.DayNumber > coachingdb.MaxDay {
		return nil, fmt.Errorf("%w: dayNumber %d out of range", ErrValidation, req.DayNumber)
	}
	sc, err := s.store.ScriptByDay(ctx, req.DayNumber)
	if errors.Is(err, coachingdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error retrieving script: %v", ErrDatabase, err)
	}
	return &sc, nil
}

func (s *Service) Scripts(ctx context.Context) ([]coachingdb.Script, error) {
	list, err := s.store.Scripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing scripts: %v", ErrDatabase, err)
	}
	return list, nil
}

// TodayCommitment returns nil before anything was recorded today.
func (s *Service) TodayCommitment(ctx context.Context, userID string) (*coachingdb.Commitment, error) {
	c, err := s.store.CommitmentOn(ctx, userID, Today(s.settings.Now()))
	if errors.Is(err, coachingdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error retrieving commitment: %v", ErrDatabase, err)
	}
	return &c, nil
}

// CommitMorning records today's morning commitment, optionally linked to one
// of the caller's quit attempts.
func (s *Service) CommitMorning(ctx context.Context, userID string, req MorningRequest) (coachingdb.Commitment, error) {
	if req.QuitAttemptID != nil {
		_, err := s.store.QuitAttempt(ctx, userID, *req.QuitAttemptID)
		if errors.Is(err, coachingdb.ErrNotFound) {
			return coachingdb.Commitment{}, ErrNotFound
		}
		if err != nil {
			return coachingdb.Commitment{}, fmt.Errorf("%w: error retrieving quit attempt: %v", ErrDatabase, err)
		}
	}
	c, err := s.store.CommitMorning(ctx, userID, req.QuitAttemptID, Today(s.settings.Now()))
	if err != nil {
		return coachingdb.Commitment{}, fmt.Errorf("%w: error saving morning commitment: %v", ErrDatabase, err)
	}
	return c, nil
}

// ReflectEvening records today's evening reflection.
func (s *Service) ReflectEvening(ctx context.Context, userID string, req EveningRequest) (coachingdb.Commitment, error) {
	if req.DaySuccess == nil {
		return coachingdb.Commitment{}, fmt.Errorf("%w: daySuccess is required", ErrValidation)
	}
	c, err := s.store.ReflectEvening(ctx, userID, Today(s.settings.Now()), *req.DaySuccess, req.EveningNotes)
	if err != nil {
		return coachingdb.Commitment{}, fmt.Errorf("%w: error saving evening reflection: %v", ErrDatabase, err)
	}
	return c, nil
}

func (s *Service) Streak(ctx context.Context, userID string) (StreakResponse, error) {
	dates, err := s.store.MorningCommitmentDates(ctx, userID)
	if err != nil {
		return StreakResponse{}, fmt.Errorf("%w: error retrieving commitments: %v", ErrDatabase, err)
	}
	return StreakResponse{
		CurrentStreak:    Streak(dates, s.settings.Now()),
		TotalCommitments: len(dates),
	}, nil
}

func (s *Service) Commitments(ctx context.Context, userID string, req ListRequest) ([]coachingdb.Commitment, error) {
	limit := DefaultCommitmentLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	list, err := s.store.Commitments(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing commitments: %v", ErrDatabase, err)
	}
	return list, nil
}
