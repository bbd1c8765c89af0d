package auth

import (
	"context"
	"net/http"

	"google.golang.org/grpc/metadata"
)

type ctxKey struct{}

// WithClaims stores the authenticated caller on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// ClaimsFrom returns the authenticated caller, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

// UserID returns the authenticated user id or "".
func UserID(ctx context.Context) string {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.UserID
	}
	return ""
}

// FromIncomingMetadata authenticates a gRPC call from its authorization metadata.
func (i *Issuer) FromIncomingMetadata(ctx context.Context) (*Claims, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, ErrMissingToken
	}
	token, err := BearerToken(values[0])
	if err != nil {
		return nil, err
	}
	return i.Parse(token)
}

// FromRequest authenticates an HTTP request from its Authorization header.
func (i *Issuer) FromRequest(r *http.Request) (*Claims, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return i.Parse(token)
}
