package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds the global application configuration
var AppConfig *Config

// Config holds the application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	// Stripe. An empty secret key runs checkout in test mode.
	StripeSecretKey       string
	StripeWebhookSecret   string
	StripeMonthlyPriceID  string
	StripeLifetimePriceID string
	// Optional: base URL for running remote HTTP integration tests (e.g., https://api.example.com)
	IntegrationBaseURL string
	// Server ports
	HTTPPort string
	GRPCPort string
	// Optional shared rate limit store
	RedisURL string
	// Logging
	LogLevel  string
	LogFormat string
	// Extra CORS origin
	FrontendURL string
	// Comma-separated proxy IPs or CIDRs whose X-Forwarded-For is believed
	TrustedProxies string
	// "true" makes signup create an incomplete profile that must go through checkout
	SignupRequiresCheckout string
}

// StripeEnabled reports whether real Stripe calls can be made.
func (c *Config) StripeEnabled() bool { return c.StripeSecretKey != "" }

// RequiresCheckout reports whether new profiles start incomplete.
func (c *Config) RequiresCheckout() bool {
	return strings.EqualFold(strings.TrimSpace(c.SignupRequiresCheckout), "true")
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(c.TrustedProxies, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", part, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", part, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	// Try to load .env file from current directory and parent directories
	currentDir, _ := os.Getwd()
	for currentDir != "/" && currentDir != "." {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			err = godotenv.Load(envPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	requiredVars := []struct {
		name     string
		envVar   string
		display  string
		required bool
	}{
		{"DatabaseURL", "DATABASE_URL", "Database URL", true},
		{"JWTSecret", "JWT_SECRET", "JWT Secret", true},
		{"StripeSecretKey", "STRIPE_SECRET_KEY", "Stripe Secret Key", false},
		{"StripeWebhookSecret", "STRIPE_WEBHOOK_SECRET", "Stripe Webhook Secret", false},
		{"StripeMonthlyPriceID", "STRIPE_MONTHLY_PRICE_ID", "Stripe Monthly Price ID", false},
		{"StripeLifetimePriceID", "STRIPE_LIFETIME_PRICE_ID", "Stripe Lifetime Price ID", false},
		{"IntegrationBaseURL", "INTEGRATION_BASE_URL", "Integration Base URL", false},
		{"HTTPPort", "PORT", "HTTP Port", false},
		{"GRPCPort", "GRPC_PORT", "gRPC Port", false},
		{"RedisURL", "REDIS_URL", "Redis URL", false},
		{"LogLevel", "LOG_LEVEL", "Log Level", false},
		{"LogFormat", "LOG_FORMAT", "Log Format", false},
		{"FrontendURL", "FRONTEND_URL", "Frontend URL", false},
		{"TrustedProxies", "TRUSTED_PROXIES", "Trusted Proxies", false},
		{"SignupRequiresCheckout", "SIGNUP_REQUIRES_CHECKOUT", "Signup Requires Checkout", false},
	}

	for _, v := range requiredVars {
		value := strings.TrimSpace(os.Getenv(v.envVar))
		if v.required && value == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", v.display)
		}
		configField := reflect.ValueOf(config).Elem().FieldByName(v.name)
		configField.SetString(value)
	}

	if _, err := config.TrustedProxyPrefixes(); err != nil {
		return nil, err
	}

	// Defaults
	if config.HTTPPort == "" {
		config.HTTPPort = "8080"
	}
	if config.GRPCPort == "" {
		config.GRPCPort = "50051"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "auto"
	}

	return config, nil
}
