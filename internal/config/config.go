// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	BillingReturnURL    string // where checkout/portal sessions send the browser back

	// Security
	OwnerBootstrapUserID string // user granted platform_owner on first boot (optional)
	SweepSecret          string // shared secret the trial-expiry scheduler presents
	AdminSecret          string // break-glass platform admin secret

	// Chat
	TrialDays      int
	RateLimitRPM   int // IP-level limit on the public widget surface
	OTLPEndpoint   string
	WidgetOrigins  []string // extra origins allowed on the widget surface (dev)
	GeneratorModel string
}

// Defaults
const (
	DefaultPort      = "8080"
	DefaultEnv       = "development"
	DefaultLogLevel  = "info"
	DefaultTrialDays = 14
	DefaultRateLimit = 120
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", DefaultPort),
		Env:                  getEnv("ENV", DefaultEnv),
		LogLevel:             getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:          os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BillingReturnURL:     getEnv("BILLING_RETURN_URL", "http://localhost:3000/settings/billing"),
		OwnerBootstrapUserID: os.Getenv("OWNER_BOOTSTRAP_USER_ID"),
		SweepSecret:          os.Getenv("SWEEP_SECRET"),
		AdminSecret:          os.Getenv("ADMIN_SECRET"),
		TrialDays:            getEnvInt("TRIAL_DAYS", DefaultTrialDays),
		RateLimitRPM:         getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		WidgetOrigins:        splitCSV(os.Getenv("WIDGET_ORIGINS")),
		GeneratorModel:       getEnv("GENERATOR_MODEL", "sales-assistant-v1"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.TrialDays <= 0 {
		return fmt.Errorf("TRIAL_DAYS must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	if c.StripeWebhookSecret != "" && c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required when STRIPE_WEBHOOK_SECRET is set")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
