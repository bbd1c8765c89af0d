// Package client calls the quitcoach procedures over gRPC with the JSON codec.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/tbeaudouin05/quitcoach/api/rpc"
	coachingapp "github.com/tbeaudouin05/quitcoach/api/services/coaching/app"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
	coachinggrpc "github.com/tbeaudouin05/quitcoach/api/services/coaching/grpc"
	stripeapp "github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
	stripegrpc "github.com/tbeaudouin05/quitcoach/api/services/stripe/grpc"
	trackingapp "github.com/tbeaudouin05/quitcoach/api/services/tracking/app"
	trackingdb "github.com/tbeaudouin05/quitcoach/api/services/tracking/db"
	trackinggrpc "github.com/tbeaudouin05/quitcoach/api/services/tracking/grpc"
)

// Client is safe for concurrent use; WithToken returns a copy.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Dial connects to target without TLS. Extra options are appended.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.CodecName)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// WithToken returns a client that sends token as the bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, service, procedure string, in, out any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	if in == nil {
		in = rpc.Empty{}
	}
	return c.conn.Invoke(ctx, rpc.FullMethod(service, procedure), in, out)
}

func (c *Client) Health(ctx context.Context) (rpc.HealthResponse, error) {
	var out rpc.HealthResponse
	err := c.invoke(ctx, rpc.HealthService, "health", nil, &out)
	return out, err
}

func (c *Client) SubscriptionStatus(ctx context.Context) (stripeapp.StatusResponse, error) {
	var out stripeapp.StatusResponse
	err := c.invoke(ctx, stripegrpc.ServiceName, "getStatus", nil, &out)
	return out, err
}

func (c *Client) CheckAccess(ctx context.Context) (stripeapp.AccessResponse, error) {
	var out stripeapp.AccessResponse
	err := c.invoke(ctx, stripegrpc.ServiceName, "checkAccess", nil, &out)
	return out, err
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req stripeapp.CheckoutRequest) (stripeapp.CheckoutResponse, error) {
	var out stripeapp.CheckoutResponse
	err := c.invoke(ctx, stripegrpc.ServiceName, "createCheckoutSession", req, &out)
	return out, err
}

func (c *Client) CreateBillingPortalSession(ctx context.Context, req stripeapp.PortalRequest) (stripeapp.PortalResponse, error) {
	var out stripeapp.PortalResponse
	err := c.invoke(ctx, stripegrpc.ServiceName, "createBillingPortalSession", req, &out)
	return out, err
}

// ActiveQuitAttempt returns nil when the caller has none.
func (c *Client) ActiveQuitAttempt(ctx context.Context) (*coachingdb.QuitAttempt, error) {
	var out *coachingdb.QuitAttempt
	err := c.invoke(ctx, coachinggrpc.QuitAttemptService, "getActive", nil, &out)
	return out, err
}

func (c *Client) TodayScript(ctx context.Context, quitAttemptID string) (coachingapp.TodayScript, error) {
	var out coachingapp.TodayScript
	err := c.invoke(ctx, coachinggrpc.CoachingService, "getToday",
		coachingapp.TodayScriptRequest{QuitAttemptID: quitAttemptID}, &out)
	return out, err
}

func (c *Client) Streak(ctx context.Context) (coachingapp.StreakResponse, error) {
	var out coachingapp.StreakResponse
	err := c.invoke(ctx, coachinggrpc.CommitmentService, "getStreak", nil, &out)
	return out, err
}

func (c *Client) RecentTriggerLogs(ctx context.Context, req trackingapp.RecentTriggersRequest) ([]trackingdb.TriggerLog, error) {
	var out []trackingdb.TriggerLog
	err := c.invoke(ctx, trackinggrpc.TriggerLogService, "getRecent", req, &out)
	return out, err
}

// Settings returns nil until the caller saves settings once.
func (c *Client) Settings(ctx context.Context) (*trackingdb.UserSettings, error) {
	var out *trackingdb.UserSettings
	err := c.invoke(ctx, trackinggrpc.SettingsService, "get", nil, &out)
	return out, err
}

func (c *Client) UpdateSettings(ctx context.Context, req trackingapp.UpdateSettingsRequest) (trackingdb.UserSettings, error) {
	var out trackingdb.UserSettings
	err := c.invoke(ctx, trackinggrpc.SettingsService, "update", req, &out)
	return out, err
}
