package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Video room provider (Daily-style REST API)
	RoomAPIKey       string
	RoomAPIBaseURL   string
	RoomAPITimeout   time.Duration
	RoomTTLMargin    time.Duration
	RoomLanguage     string
	RoomSweepEnabled bool
	RoomSweepEvery   time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Appointment config cache
	ConfigCacheTTL time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RoomAPIKey:       getEnv("ROOM_API_KEY", ""),
		RoomAPIBaseURL:   getEnv("ROOM_API_BASE_URL", "https://api.daily.co/v1"),
		RoomAPITimeout:   getEnvAsDuration("ROOM_API_TIMEOUT", 5*time.Second),
		RoomTTLMargin:    getEnvAsDuration("ROOM_TTL_MARGIN", 30*time.Minute),
		RoomLanguage:     getEnv("ROOM_LANGUAGE", "en"),
		RoomSweepEnabled: getEnvAsBool("ROOM_SWEEP_ENABLED", false),
		RoomSweepEvery:   getEnvAsDuration("ROOM_SWEEP_INTERVAL", 1*time.Hour),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CoachDesk"),

		ConfigCacheTTL: getEnvAsDuration("CONFIG_CACHE_TTL", 10*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
