package config

import (
	"log"
	"strings"
	"time"
)

const (
	// ProdDbId is the identifier for the production database
	ProdDbId = "quitcoach-prod"

	// Currency used for every Stripe price
	Currency = "usd"

	// MonthlyPriceAmount is $19.95 in cents
	MonthlyPriceAmount = 1995
	// LifetimePriceAmount is $49.00 in cents
	LifetimePriceAmount = 4900

	// TokenLifetime is how long an issued session token stays valid
	TokenLifetime = 7 * 24 * time.Hour

	// PasswordMinLength applies to signup
	PasswordMinLength = 8

	// RateLimitRequests per RateLimitWindow per client IP
	RateLimitRequests = 100
	RateLimitWindow   = 15 * time.Minute
)

// CheckNotProdDB aborts immediately if the configured database URL contains ProdDbId.
// This should be called at the start of any test that interacts with the database.
func CheckNotProdDB() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DatabaseURL is not configured")
	}
	if strings.Contains(cfg.DatabaseURL, ProdDbId) {
		log.Fatalf("Tests aborted: DatabaseURL contains production identifier %s", ProdDbId)
	}
}
