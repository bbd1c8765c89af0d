// Package grpcserver exposes progress, trigger and slip logs, milestones,
// settings, lesson progress and reminders on the shared rpc table. Every
// procedure requires access and acts only on the caller's rows.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	"github.com/tbeaudouin05/quitcoach/api/services/tracking/app"
	trackingdb "github.com/tbeaudouin05/quitcoach/api/services/tracking/db"
)

const (
	ProgressLogService  = "ProgressLogService"
	TriggerLogService   = "TriggerLogService"
	SlipLogService      = "SlipLogService"
	MilestoneService    = "MilestoneService"
	SettingsService     = "SettingsService"
	EducationService    = "EducationService"
	NotificationService = "NotificationService"
)

type server struct {
	svc *app.Service
}

// Register adds the progressLogs, triggerLogs, slipLogs, milestones,
// settings, education and notifications routers to srv.
func Register(srv *rpc.Server, svc *app.Service) {
	s := server{svc: svc}
	srv.Register(ProgressLogService,
		rpc.Mutation("progressLogs", "create", rpc.Entitled, s.createProgressLog),
		rpc.Query("progressLogs", "getByAttempt", rpc.Entitled, s.progressLogs),
	)
	srv.Register(TriggerLogService,
		rpc.Mutation("triggerLogs", "create", rpc.Entitled, s.createTriggerLog),
		rpc.Query("triggerLogs", "getByAttempt", rpc.Entitled, s.triggerLogs),
		rpc.Query("triggerLogs", "getRecent", rpc.Entitled, s.recentTriggerLogs),
	)
	srv.Register(SlipLogService,
		rpc.Mutation("slipLogs", "create", rpc.Entitled, s.createSlipLog),
		rpc.Query("slipLogs", "getByAttempt", rpc.Entitled, s.slipLogs),
	)
	srv.Register(MilestoneService,
		rpc.Mutation("milestones", "create", rpc.Entitled, s.createMilestone),
		rpc.Query("milestones", "getByAttempt", rpc.Entitled, s.milestones),
		rpc.Mutation("milestones", "markCelebrated", rpc.Entitled, s.markCelebrated),
	)
	srv.Register(SettingsService,
		rpc.Query("settings", "get", rpc.Entitled, s.settings),
		rpc.Mutation("settings", "update", rpc.Entitled, s.updateSettings),
	)
	srv.Register(EducationService,
		rpc.Mutation("education", "complete", rpc.Entitled, s.completeLesson),
		rpc.Query("education", "getProgress", rpc.Entitled, s.lessonProgress),
	)
	srv.Register(NotificationService,
		rpc.Mutation("notifications", "schedule", rpc.Entitled, s.scheduleNotification),
		rpc.Query("notifications", "getPending", rpc.Entitled, s.pendingNotifications),
		rpc.Mutation("notifications", "markSent", rpc.Entitled, s.markNotificationSent),
	)
}

func (s server) createProgressLog(ctx context.Context, in app.CreateProgressLogRequest) (trackingdb.ProgressLog, error) {
	out, err := s.svc.CreateProgressLog(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) progressLogs(ctx context.Context, in app.AttemptRequest) ([]trackingdb.ProgressLog, error) {
	out, err := s.svc.ProgressLogs(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) createTriggerLog(ctx context.Context, in app.CreateTriggerLogRequest) (trackingdb.TriggerLog, error) {
	out, err := s.svc.CreateTriggerLog(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) triggerLogs(ctx context.Context, in app.AttemptRequest) ([]trackingdb.TriggerLog, error) {
	out, err := s.svc.TriggerLogs(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) recentTriggerLogs(ctx context.Context, in app.RecentTriggersRequest) ([]trackingdb.TriggerLog, error) {
	out, err := s.svc.RecentTriggerLogs(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) createSlipLog(ctx context.Context, in app.CreateSlipLogRequest) (trackingdb.SlipLog, error) {
	out, err := s.svc.CreateSlipLog(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) slipLogs(ctx context.Context, in app.AttemptRequest) ([]trackingdb.SlipLog, error) {
	out, err := s.svc.SlipLogs(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) createMilestone(ctx context.Context, in app.CreateMilestoneRequest) (trackingdb.Milestone, error) {
	out, err := s.svc.CreateMilestone(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) milestones(ctx context.Context, in app.AttemptRequest) ([]trackingdb.Milestone, error) {
	out, err := s.svc.Milestones(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) markCelebrated(ctx context.Context, in app.IDRequest) (trackingdb.Milestone, error) {
	out, err := s.svc.MarkCelebrated(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) settings(ctx context.Context, _ rpc.Empty) (*trackingdb.UserSettings, error) {
	out, err := s.svc.Settings(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) updateSettings(ctx context.Context, in app.UpdateSettingsRequest) (trackingdb.UserSettings, error) {
	out, err := s.svc.UpdateSettings(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) completeLesson(ctx context.Context, in app.CompleteLessonRequest) (trackingdb.LessonCompletion, error) {
	out, err := s.svc.CompleteLesson(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) lessonProgress(ctx context.Context, _ rpc.Empty) ([]trackingdb.LessonCompletion, error) {
	out, err := s.svc.LessonProgress(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) scheduleNotification(ctx context.Context, in app.ScheduleNotificationRequest) (trackingdb.Notification, error) {
	out, err := s.svc.ScheduleNotification(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) pendingNotifications(ctx context.Context, _ rpc.Empty) ([]trackingdb.Notification, error) {
	out, err := s.svc.PendingNotifications(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) markNotificationSent(ctx context.Context, in app.IDRequest) (trackingdb.Notification, error) {
	out, err := s.svc.MarkNotificationSent(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, "Quit attempt not found")
	case errors.Is(err, app.ErrMilestoneNotFound):
		return status.Error(codes.NotFound, "Milestone not found")
	case errors.Is(err, app.ErrNotificationNotFound):
		return status.Error(codes.NotFound, "Notification not found")
	case errors.Is(err, app.ErrValidation):
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), app.ErrValidation.Error()+": "))
	default:
		return err
	}
}
