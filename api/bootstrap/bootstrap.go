package bootstrap

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbeaudouin05/quitcoach/api/auth"
	"github.com/tbeaudouin05/quitcoach/api/config"
	"github.com/tbeaudouin05/quitcoach/api/database"
	"github.com/tbeaudouin05/quitcoach/api/middleware"
	"github.com/tbeaudouin05/quitcoach/api/rpc"
	accountapp "github.com/tbeaudouin05/quitcoach/api/services/account/app"
	accountdb "github.com/tbeaudouin05/quitcoach/api/services/account/db"
	coachingapp "github.com/tbeaudouin05/quitcoach/api/services/coaching/app"
	coachingdb "github.com/tbeaudouin05/quitcoach/api/services/coaching/db"
	coachinggrpc "github.com/tbeaudouin05/quitcoach/api/services/coaching/grpc"
	stripeapp "github.com/tbeaudouin05/quitcoach/api/services/stripe/app"
	gw "github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway"
	stripegw "github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway/stripe"
	stripegrpc "github.com/tbeaudouin05/quitcoach/api/services/stripe/grpc"
	trackingapp "github.com/tbeaudouin05/quitcoach/api/services/tracking/app"
	trackingdb "github.com/tbeaudouin05/quitcoach/api/services/tracking/db"
	trackinggrpc "github.com/tbeaudouin05/quitcoach/api/services/tracking/grpc"
)

// Services is the wired application.
type Services struct {
	Config   *config.Config
	DB       *database.DB
	Issuer   *auth.Issuer
	Accounts accountapp.Service
	Stripe   stripeapp.Service
	Coaching *coachingapp.Service
	Tracking *trackingapp.Service
	RPC      *rpc.Server
	Limiter  middleware.Limiter

	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
}

var services *Services
var initOnce sync.Once
var initErr error

// Init initializes config, database, and third-party clients, and wires services.
func Init() error {
	// If services have already been injected (e.g., tests), do not override or init heavy deps.
	if services != nil {
		return nil
	}
	var err error
	if config.AppConfig == nil {
		config.AppConfig, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := database.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	stripegw.SetKey(config.AppConfig.StripeSecretKey)

	services = Build(config.AppConfig, database.GetDB(), stripegw.New(), time.Now)
	services.Limiter = newLimiter(config.AppConfig)
	return nil
}

// Build wires every service on top of db. The limiter is in-memory; Init
// swaps in Redis when configured.
func Build(cfg *config.Config, db *database.DB, stripeGateway gw.StripeGateway, now func() time.Time) *Services {
	profiles := accountdb.NewStore(db, now)
	issuer := auth.NewIssuer(cfg.JWTSecret, config.TokenLifetime, now)

	accounts := accountapp.NewService(profiles, issuer, accountapp.Settings{
		RequiresCheckout: cfg.RequiresCheckout(),
		Now:              now,
	})
	billing := stripeapp.NewService(profiles, stripeGateway, stripeapp.Settings{
		Enabled:        cfg.StripeEnabled(),
		MonthlyPriceID: cfg.StripeMonthlyPriceID,
		Now:            now,
	})
	coaching := coachingapp.NewService(coachingdb.NewStore(db, now), coachingapp.Settings{Now: now})
	tracking := trackingapp.NewService(trackingdb.NewStore(db, now), trackingapp.Settings{Now: now})

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring trusted proxies")
		proxies = nil
	}

	srv := rpc.NewServer(issuer, billing)
	srv.RegisterHealth(now)
	stripegrpc.Register(srv, billing)
	coachinggrpc.Register(srv, coaching)
	trackinggrpc.Register(srv, tracking)

	return &Services{
		Config:   cfg,
		DB:       db,
		Issuer:   issuer,
		Accounts: accounts,
		Stripe:   billing,
		Coaching: coaching,
		Tracking: tracking,
		RPC:      srv,
		Limiter:  middleware.NewMemoryLimiter(config.RateLimitRequests, config.RateLimitWindow, now),

		TrustedProxies: proxies,
	}
}

func newLimiter(cfg *config.Config) middleware.Limiter {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(config.RateLimitRequests, config.RateLimitWindow, nil)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l, err := middleware.NewRedisLimiter(ctx, cfg.RedisURL, config.RateLimitRequests, config.RateLimitWindow)
	if err != nil {
		log.Warn().Err(err).Msg("redis rate limiter unavailable, falling back to in-memory")
		return middleware.NewMemoryLimiter(config.RateLimitRequests, config.RateLimitWindow, nil)
	}
	return l
}

func GetServices() *Services { return services }

// SetServices allows tests to inject a prebuilt application.
func SetServices(s *Services) { services = s }

// Ensure runs Init() once per process and returns any initialization error.
func Ensure() error {
	initOnce.Do(func() {
		initErr = Init()
	})
	return initErr
}
