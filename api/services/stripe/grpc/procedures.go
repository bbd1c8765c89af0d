// Package grpcserver exposes the subscription procedures on the shared rpc table.
package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	stripeapp "github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
)

// ServiceName is the gRPC service carrying the subscription router.
const ServiceName = "SubscriptionService"

const router = "subscription"

type server struct {
	svc stripeapp.Service
}

// Register adds the subscription procedures to srv.
func Register(srv *rpc.Server, svc stripeapp.Service) {
	s := server{svc: svc}
	srv.Register(ServiceName,
		rpc.Query(router, "getStatus", rpc.Authenticated, s.getStatus),
		rpc.Query(router, "checkAccess", rpc.Authenticated, s.checkAccess),
		rpc.Mutation(router, "createCheckoutSession", rpc.Authenticated, s.createCheckoutSession),
		rpc.Mutation(router, "createBillingPortalSession", rpc.Authenticated, s.createBillingPortalSession),
	)
}

func (s server) getStatus(ctx context.Context, _ rpc.Empty) (stripeapp.StatusResponse, error) {
	out, err := s.svc.GetStatus(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) checkAccess(ctx context.Context, _ rpc.Empty) (stripeapp.AccessResponse, error) {
	out, err := s.svc.CheckAccess(ctx, auth.UserID(ctx))
	return out, toStatus(err)
}

func (s server) createCheckoutSession(ctx context.Context, in stripeapp.CheckoutRequest) (stripeapp.CheckoutResponse, error) {
	out, err := s.svc.CreateCheckoutSession(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

func (s server) createBillingPortalSession(ctx context.Context, in stripeapp.PortalRequest) (stripeapp.PortalResponse, error) {
	out, err := s.svc.CreateBillingPortalSession(ctx, auth.UserID(ctx), in)
	return out, toStatus(err)
}

// toStatus maps app errors to gRPC statuses. Unmapped errors stay opaque.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stripeapp.ErrNotFound):
		return status.Error(codes.NotFound, "User not found")
	case errors.Is(err, stripeapp.ErrNoBillingAccount):
		return status.Error(codes.FailedPrecondition, "No active subscription found")
	case errors.Is(err, stripeapp.ErrGateway):
		return status.Error(codes.Unavailable, "Payment provider unavailable")
	default:
		return err
	}
}
