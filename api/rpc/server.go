// Package rpc serves typed procedures over gRPC (JSON codec) and over HTTP
// through the grpc-gateway mux under /trpc/<router>.<procedure>.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/entitlement"
	"github.com/tbeaudouin05/quitcoach/api/logging"
	"github.com/tbeaudouin05/quitcoach/api/metrics"
	"github.com/tbeaudouin05/quitcoach/api/validation"
)

// ServicePrefix qualifies every gRPC service name.
const ServicePrefix = "quitcoach.v1."

// Authenticator resolves the caller from incoming metadata.
type Authenticator interface {
	FromIncomingMetadata(ctx context.Context) (*auth.Claims, error)
}

// AccessChecker evaluates the entitlement policy for a user.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userID string) (entitlement.Decision, error)
}

type service struct {
	name  string
	procs []Procedure
}

// Server holds the procedure table shared by both transports.
type Server struct {
	authn    Authenticator
	access   AccessChecker
	services []*service
	byPath   map[string]registered
}

type registered struct {
	Procedure
	method string
}

// NewServer returns an empty procedure table.
func NewServer(authn Authenticator, access AccessChecker) *Server {
	return &Server{authn: authn, access: access, byPath: map[string]registered{}}
}

// Register adds procedures under the gRPC service quitcoach.v1.<name>.
func (s *Server) Register(name string, procs ...Procedure) {
	svc := &service{name: ServicePrefix + name}
	for _, p := range procs {
		if _, dup := s.byPath[p.Path()]; dup {
			panic(fmt.Sprintf("rpc: duplicate procedure %s", p.Path()))
		}
		s.byPath[p.Path()] = registered{Procedure: p, method: FullMethod(name, p.Name)}
		svc.procs = append(svc.procs, p)
	}
	s.services = append(s.services, svc)
}

// FullMethod is the gRPC method name of a procedure.
func FullMethod(service, procedure string) string {
	return "/" + ServicePrefix + service + "/" + procedure
}

// Paths lists registered procedure paths in order.
func (s *Server) Paths() []string {
	paths := make([]string, 0, len(s.byPath))
	for p := range s.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// call runs one procedure: guard, decode, validate, invoke.
func (s *Server) call(ctx context.Context, p Procedure, transport string, decode func(any) error) (out any, err error) {
	defer func() {
		metrics.RPCRequestsTotal.WithLabelValues(p.Path(), transport, status.Code(err).String()).Inc()
	}()

	ctx, err = s.guard(ctx, p)
	if err != nil {
		return nil, err
	}

	in := p.newInput()
	if err := decode(in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid input: %v", err)
	}
	if err := validation.Struct(in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return nil, status.Error(codes.InvalidArgument, verr.Error())
		}
		logging.Ctx(ctx).Error().Err(err).Str("path", p.Path()).Msg("input validation")
		return nil, status.Error(codes.Internal, "Internal server error")
	}

	out, err = p.invoke(ctx, in)
	if err != nil {
		norm := normalize(err)
		if status.Code(norm) == codes.Internal {
			logging.Ctx(ctx).Error().Err(err).Str("path", p.Path()).Msg("procedure failed")
		}
		return nil, norm
	}
	return out, nil
}

func (s *Server) guard(ctx context.Context, p Procedure) (context.Context, error) {
	if p.Access == Public {
		return ctx, nil
	}
	claims, err := s.authn.FromIncomingMetadata(ctx)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "UNAUTHORIZED")
	}
	ctx = auth.WithClaims(ctx, claims)
	if p.Access != Entitled {
		return ctx, nil
	}
	decision, err := s.access.CheckAccess(ctx, claims.UserID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", claims.UserID).Msg("entitlement check failed")
		return ctx, status.Error(codes.Internal, "Internal server error")
	}
	if !decision.HasAccess {
		return ctx, status.Error(codes.PermissionDenied, string(decision.Reason))
	}
	return ctx, nil
}

// handlerType is satisfied by the value registered for every service.
type handlerType interface{ procedureTable() *Server }

func (s *Server) procedureTable() *Server { return s }

// RegisterGRPC installs one ServiceDesc per registered service on reg.
func (s *Server) RegisterGRPC(reg grpc.ServiceRegistrar) {
	for _, svc := range s.services {
		desc := grpc.ServiceDesc{
			ServiceName: svc.name,
			HandlerType: (*handlerType)(nil),
			Metadata:    svc.name,
		}
		for _, p := range svc.procs {
			desc.Methods = append(desc.Methods, grpc.MethodDesc{
				MethodName: p.Name,
				Handler:    s.grpcHandler(svc.name, p),
			})
		}
		reg.RegisterService(&desc, s)
	}
}

func (s *Server) grpcHandler(serviceName string, p Procedure) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/" + serviceName + "/" + p.Name}
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		// Decoding is deferred so the guard runs before the input is read.
		var raw rawMessage
		if err := dec(&raw); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid input: %v", err)
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return s.call(ctx, p, "grpc", req.(*rawMessage).decode)
		}
		if interceptor == nil {
			return handler(ctx, &raw)
		}
		return interceptor(ctx, &raw, info, handler)
	}
}
