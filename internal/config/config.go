package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	// Persistence
	StoreBackend      string // "mongo" or "memory"
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool // requires a replica set

	// Optional; enables cross-instance notification fan-out
	RedisURL string

	// Credentials
	JWTSecret string
	JWTExpiry time.Duration

	AllowedOrigins string

	MaxUploadBytes int
	OTPTTL         time.Duration

	IdentityCacheTTL          time.Duration
	StatisticsRefreshInterval time.Duration

	// First admin, created at startup when no admin exists
	AdminSeedName     string
	AdminSeedEmail    string
	AdminSeedPassword string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),

		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		MongoURI:          getEnv("MONGODB_URI", ""),
		MongoDatabase:     getEnv("MONGODB_DATABASE", ""),
		MongoTransactions: getBoolEnv("MONGODB_TRANSACTIONS", true),

		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getDurationEnv("JWT_EXPIRY", 24*time.Hour),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),

		MaxUploadBytes: getIntEnv("MAX_UPLOAD_BYTES", 10*1024*1024),
		OTPTTL:         getDurationEnv("OTP_TTL", 15*time.Minute),

		IdentityCacheTTL:          getDurationEnv("IDENTITY_CACHE_TTL", 30*time.Second),
		StatisticsRefreshInterval: getDurationEnv("STATISTICS_REFRESH_INTERVAL", 15*time.Minute),

		AdminSeedName:     getEnv("ADMIN_SEED_NAME", "Administrator"),
		AdminSeedEmail:    strings.ToLower(getEnv("ADMIN_SEED_EMAIL", "")),
		AdminSeedPassword: getEnv("ADMIN_SEED_PASSWORD", ""),
	}
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate reports settings the process cannot start without
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when STORE_BACKEND=mongo"))
		}
	case StoreMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORE_BACKEND=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	if c.JWTSecret == "" && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.StatisticsRefreshInterval <= 0 {
		errs = append(errs, errors.New("STATISTICS_REFRESH_INTERVAL must be positive"))
	}
	if (c.AdminSeedEmail == "") != (c.AdminSeedPassword == "") {
		errs = append(errs, errors.New("ADMIN_SEED_EMAIL and ADMIN_SEED_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
