package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("AUTH_BASE_URL", "https://auth.example.com")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYMENT_PROVIDER", "")
	t.Setenv("LINK_SECRET", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("ALLOW_ELEVATED_PARTICIPATION", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL, "trailing slash trimmed")
	assert.Equal(t, "checkout", cfg.PaymentProvider)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.AllowElevatedParticipation)
}

func TestFromEnvMissingRequired(t *testing.T) {
	cases := []string{"TELEGRAM_BOT_TOKEN", "API_BASE_URL", "AUTH_BASE_URL"}
	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestFromEnvElevatedParticipationFlag(t *testing.T) {
	for _, raw := range []string{"1", "true", "YES", "on"} {
		t.Run(raw, func(t *testing.T) {
			setRequired(t)
			t.Setenv("ALLOW_ELEVATED_PARTICIPATION", raw)
			cfg, err := FromEnv()
			require.NoError(t, err)
			assert.True(t, cfg.AllowElevatedParticipation)
		})
	}
	for _, raw := range []string{"0", "false", "nah"} {
		t.Run(raw, func(t *testing.T) {
			setRequired(t)
			t.Setenv("ALLOW_ELEVATED_PARTICIPATION", raw)
			cfg, err := FromEnv()
			require.NoError(t, err)
			assert.False(t, cfg.AllowElevatedParticipation)
		})
	}
}
