package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Sliding window for the per-user API rate limit
const RateLimitWindow = time.Minute

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// OAuth state lifetime between redirect and callback
const OAuthStateTTL = 10 * time.Minute

// Completion API settings
const (
	ChatTemperature = 0.7
	ChatTimeout     = 2 * time.Minute
)
