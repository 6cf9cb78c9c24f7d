package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "TRIAL_DAYS", "")
	setEnv(t, "STRIPE_WEBHOOK_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DefaultTrialDays, cfg.TrialDays)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimitRPM)
	assert.Equal(t, DefaultEnv, cfg.Env)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:    "valid config",
			config:  Config{TrialDays: 14, RateLimitRPM: 120},
			wantErr: "",
		},
		{
			name:    "non-positive trial days",
			config:  Config{TrialDays: 0, RateLimitRPM: 120},
			wantErr: "TRIAL_DAYS must be positive",
		},
		{
			name:    "non-positive rate limit",
			config:  Config{TrialDays: 14, RateLimitRPM: 0},
			wantErr: "RATE_LIMIT_RPM must be positive",
		},
		{
			name: "webhook secret without api key",
			config: Config{
				TrialDays:           14,
				RateLimitRPM:        120,
				StripeWebhookSecret: "whsec_123",
			},
			wantErr: "STRIPE_SECRET_KEY is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvInt(t *testing.T) {
	setEnv(t, "TEST_INT_VAL", "42")
	assert.Equal(t, 42, getEnvInt("TEST_INT_VAL", 7))

	setEnv(t, "TEST_INT_VAL", "not-a-number")
	assert.Equal(t, 7, getEnvInt("TEST_INT_VAL", 7))

	os.Unsetenv("TEST_INT_VAL")
	assert.Equal(t, 7, getEnvInt("TEST_INT_VAL", 7))
}
