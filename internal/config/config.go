package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Progress engine
	UserLockTTL     time.Duration
	UserLockWait    time.Duration
	LeaderboardSize int

	// Background workers
	WorkerCount          int
	ReminderPollInterval time.Duration

	// Rate limiting on auth endpoints, requests per window per client
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		DatabaseURL:     mustGetEnv("DATABASE_URL"),
		MigrationsDir:   getEnvOrDefault("MIGRATIONS_DIR", "./migrations"),
		RedisURL:        mustGetEnv("REDIS_URL"),
		JWTSecret:       mustGetEnv("JWT_SECRET"),
		UserLockTTL:     getEnvAsDurationOrDefault("USER_LOCK_TTL", 10*time.Second),
		UserLockWait:    getEnvAsDurationOrDefault("USER_LOCK_WAIT", 5*time.Second),
		LeaderboardSize: getEnvAsIntOrDefault("LEADERBOARD_SIZE", 10),
		FrontendURL:     getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),

		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 2),
		ReminderPollInterval: getEnvAsDurationOrDefault("REMINDER_POLL_INTERVAL", 30*time.Second),
		AuthRateLimit:        getEnvAsIntOrDefault("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:       getEnvAsDurationOrDefault("AUTH_RATE_WINDOW", time.Minute),
	}

	return cfg
}

// IsProduction reports whether the service runs with production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
