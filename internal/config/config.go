package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// UseMock selects the in-memory backend instead of the remote atelier API.
	UseMock bool

	APIBaseURL      string
	APITimeout      time.Duration
	AdminAPIBaseURL string
	AdminAPITimeout time.Duration

	MessagingHost   string
	WhatsAppContact string
	Timezone        string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionCookie string
	SessionTTL    time.Duration
	CookieSecure  bool

	DatabaseURL string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	MockTokenSecret string
	SearchDebounce  time.Duration

	// Studio alert email
	EmailProvider       string
	StudioAlertEmail    string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		UseMock: getEnvAsBool("USE_MOCK", true),

		APIBaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001/api"), "/"),
		APITimeout:      getEnvAsDuration("API_TIMEOUT", 10*time.Second),
		AdminAPIBaseURL: strings.TrimRight(getEnv("ADMIN_API_BASE_URL", "http://localhost:5261/api"), "/"),
		AdminAPITimeout: getEnvAsDuration("ADMIN_API_TIMEOUT", 15*time.Second),

		MessagingHost:   getEnv("MESSAGING_HOST", "wa.me"),
		WhatsAppContact: getEnv("WHATSAPP_CONTACT", "5521982495227"),
		Timezone:        getEnv("TIMEZONE", "America/Sao_Paulo"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionCookie: getEnv("SESSION_COOKIE", "atelier_sid"),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		CookieSecure:  getEnvAsBool("COOKIE_SECURE", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		MockTokenSecret: getEnv("MOCK_TOKEN_SECRET", "atelier-dev-secret"),
		SearchDebounce:  getEnvAsDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		StudioAlertEmail:    getEnv("STUDIO_ALERT_EMAIL", ""),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Atelier Carvalho"),
		AWSRegion:           getEnv("AWS_REGION", "sa-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
