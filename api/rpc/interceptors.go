package rpc

import (
	"context"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/quitcoach/api/logging"
)

// UnaryServerInterceptor tags each call with a request id, logs its outcome
// and turns panics into Internal errors.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		var requestID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		ctx, requestID = logging.WithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs("x-request-id", requestID))

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logging.Ctx(ctx).Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Str("method", info.FullMethod).
					Msg("grpc handler panic")
				resp, err = nil, status.Error(codes.Internal, "Internal server error")
			}
			logging.Ctx(ctx).Debug().
				Str("method", info.FullMethod).
				Str("code", status.Code(err).String()).
				Dur("duration", time.Since(start)).
				Msg("grpc call")
		}()
		return handler(ctx, req)
	}
}
