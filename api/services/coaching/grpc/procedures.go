// Package grpcserver exposes quit attempts, coaching scripts and daily
// commitments on the shared rpc table. Every procedure requires access.
package grpcserver

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	"github.com/tbeaudouin05/quitcoach/api/services/coaching/app"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
)

const (
	QuitAttemptService = "QuitAttemptService"
	CoachingService    = "CoachingService"
	CommitmentService  = "CommitmentService"
)

type server struct {
	svc *app.Service
}

// Register adds the quitAttempts, coaching and commitments routers to srv.
func Register(srv *rpc.Server, svc *app.Service) {
	s := server{svc: svc}
	srv.Register(QuitAttemptService,
		rpc.Mutation("quitAttempts", "create", rpc.Entitled, s.createQuitAttempt),
		rpc.Query("quitAttempts", "getActive", rpc.Entitled, s.activeQuitAttempt),
		rpc.Query("quitAttempts", "getAll", rpc.Entitled, s.quitAttempts),
		rpc.Mutation("quitAttempts", "deactivate", rpc.Entitled, s.deactivateQuitAttempt),
	)
	srv.Register(CoachingService,
		rpc.Query("coaching", "getToday", rpc.Entitled, s.todayScript),
		rpc.Query("coaching", "getByDay", rpc.Entitled, s.scriptByDay),
		rpc.Query("coaching", "getAll", rpc.Entitled, s.scripts),
	)
	srv.Register(CommitmentService,
		rpc.Query("commitments", "getToday", rpc.Entitled, s.todayCommitment),
		rpc.Mutation("commitments", "makeMorningCommitment", rpc.Entitled, s.commitMorning),
		rpc.Mutation("commitments", "makeEveningReflection", rpc.Entitled, s.reflectEvening),
		rpc.Query("commitments", "getStreak", rpc.Entitled, s.streak),
		rpc.Query("commitments", "getAll", rpc.Entitled, s.commitments),
	)
}

func (s server) createQuitAttempt(ctx context.Context, in app.CreateQuitAttemptRequest) (coachingdb.QuitAttempt, error) {
	out, err := s.svc.CreateQuitAttempt(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) activeQuitAttempt(ctx context.Context, _ rpc.Empty) (*coachingdb.QuitAttempt, error) {
	out, err := s.svc.ActiveQuitAttempt(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) quitAttempts(ctx context.Context, _ rpc.Empty) ([]coachingdb.QuitAttempt, error) {
	out, err := s.svc.QuitAttempts(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) deactivateQuitAttempt(ctx context.Context, in app.IDRequest) (coachingdb.QuitAttempt, error) {
	out, err := s.svc.DeactivateQuitAttempt(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) todayScript(ctx context.Context, in app.TodayScriptRequest) (app.TodayScript, error) {
	out, err := s.svc.TodayScript(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) scriptByDay(ctx context.Context, in app.DayRequest) (*coachingdb.Script, error) {
	out, err := s.svc.ScriptByDay(ctx, in)
	return out, toStatus(err)
}

func (s server) scripts(ctx context.Context, _ rpc.Empty) ([]coachingdb.Script, error) {
	out, err := s.svc.Scripts(ctx)
	return out, toStatus(err)
}

func (s server) todayCommitment(ctx context.Context, _ rpc.Empty) (*coachingdb.Commitment, error) {
	out, err := s.svc.TodayCommitment(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) commitMorning(ctx context.Context, in app.MorningRequest) (coachingdb.Commitment, error) {
	out, err := s.svc.CommitMorning(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) reflectEvening(ctx context.Context, in app.EveningRequest) (coachingdb.Commitment, error) {
	out, err := s.svc.ReflectEvening(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) streak(ctx context.Context, _ rpc.Empty) (app.StreakResponse, error) {
	out, err := s.svc.Streak(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) commitments(ctx context.Context, in app.ListRequest) ([]coachingdb.Commitment, error) {
	out, err := s.svc.Commitments(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, "Quit attempt not found")
	case errors.Is(err, app.ErrValidation):
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), app.ErrValidation.Error()+": "))
	default:
		return err
	}
}
