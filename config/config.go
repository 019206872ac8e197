package config

import (
	"os"
	"strconv"
	"time"
)

// HoldPolicy selects the capacity check used when creating a pre-booking.
type HoldPolicy string

const (
	// HoldPolicyLegacy rejects a hold when totalCheckouts >= availableQuantity.
	// This compares a lifetime counter against a live gauge, so any title with
	// enough accumulated checkouts stops accepting holds regardless of current
	// stock. Kept as the default because it is what the original application
	// does; switch to HoldPolicyStrict for a live-capacity check.
	HoldPolicyLegacy HoldPolicy = "legacy"

	// HoldPolicyStrict rejects a hold when currentlyBorrowed + pendingHolds
	// would reach quantity.
	HoldPolicyStrict HoldPolicy = "strict"
)

type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string

	// Bootstrap librarian credentials, accepted when no user exists yet.
	AuthEmail string
	AuthPass  string

	LoanPeriodDays int
	HoldWindow     time.Duration
	LateFeePerDay  int64
	SweepInterval  time.Duration
	HoldPolicy     HoldPolicy
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("MONGODB_DB", "circulation"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		AuthEmail:      getEnv("AUTH_EMAIL", "librarian@example.com"),
		AuthPass:       getEnv("AUTH_PASSWORD", "password"),
		LoanPeriodDays: getEnvInt("LOAN_PERIOD_DAYS", 14),
		HoldWindow:     time.Duration(getEnvInt("HOLD_WINDOW_HOURS", 3)) * time.Hour,
		LateFeePerDay:  int64(getEnvInt("LATE_FEE_PER_DAY", 2)),
		SweepInterval:  time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		HoldPolicy:     HoldPolicyLegacy,
	}
	if p := getEnv("HOLD_CAPACITY_POLICY", ""); p == string(HoldPolicyStrict) {
		cfg.HoldPolicy = HoldPolicyStrict
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
