// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MailProviderDev        = "dev"
	MailProviderMailerSend = "mailersend"
	MailProviderGmail      = "gmail"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Redis
	RedisURL     string
	FeedCacheTTL time.Duration

	// NATS
	NATSURL string

	// Property
	PropertySlug     string
	PropertySeedFile string
	Timezone         string

	// Scheduler
	ReconcileCron string
	FeedWarmCron  string

	// Auth
	JWTSecret       string
	JWTTTL          time.Duration
	VerificationTTL time.Duration
	InviteTTL       time.Duration
	PublicBaseURL   string
	CORSOrigins     []string

	// Mail
	MailProvider     string
	MailerSendAPIKey string
	MailFromName     string
	MailFromEmail    string

	// Gmail
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "villa"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		FeedCacheTTL: getEnvAsDuration("FEED_CACHE_TTL", 15*time.Minute),

		NATSURL: getEnv("NATS_URL", ""),

		PropertySlug:     getEnv("PROPERTY_SLUG", "villa"),
		PropertySeedFile: getEnv("PROPERTY_SEED_FILE", ""),
		Timezone:         getEnv("TIMEZONE", "UTC"),

		ReconcileCron: getEnv("RECONCILE_CRON", "5 0 * * *"),
		FeedWarmCron:  getEnv("FEED_WARM_CRON", "*/15 * * * *"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTTTL:          getEnvAsDuration("JWT_TTL", 12*time.Hour),
		VerificationTTL: getEnvAsDuration("VERIFICATION_TTL", 48*time.Hour),
		InviteTTL:       getEnvAsDuration("INVITE_TTL", 14*24*time.Hour),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"*"}),

		MailProvider:     strings.ToLower(getEnv("MAIL_PROVIDER", MailProviderDev)),
		MailerSendAPIKey: getEnv("MAILERSEND_API_KEY", ""),
		MailFromName:     getEnv("MAIL_FROM_NAME", "Villa Reservations"),
		MailFromEmail:    getEnv("MAIL_FROM_EMAIL", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
	}

	return config, nil
}

// Validate checks the settings the API server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.MailProvider {
	case MailProviderDev:
	case MailProviderMailerSend:
		if c.MailerSendAPIKey == "" || c.MailFromEmail == "" {
			return errors.New("MAILERSEND_API_KEY and MAIL_FROM_EMAIL are required for the mailersend provider")
		}
	case MailProviderGmail:
		if c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "" || c.MailFromEmail == "" {
			return errors.New("GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET, GMAIL_REFRESH_TOKEN and MAIL_FROM_EMAIL are required for the gmail provider")
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}
	return nil
}

// Location resolves TIMEZONE, the zone in which "today" is evaluated
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("15m", "48h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
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
