package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"secretKey": map[string]any{
			"access":            "",
			"emailVerification": "",
			"passwordReset":     "",
		},
		"smtp": map[string]any{
			"fromEmail": "",
		},
		"rateLimit": map[string]any{
			"auth": map[string]any{"max": 3},
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "SECRETKEY_EMAILVERIFICATION", want: "secretKey.emailVerification"},
		{envKey: "SECRETKEY_PASSWORDRESET", want: "secretKey.passwordReset"},
		{envKey: "SMTP_FROMEMAIL", want: "smtp.fromEmail"},
		{envKey: "RATELIMIT_AUTH_MAX", want: "rateLimit.auth.max"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	require.NotNil(t, cfg.Auth)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RememberMeSessionTTL)
	assert.Equal(t, 30*time.Second, cfg.Auth.WSAuthGrace)

	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, RateWindow{Max: 3, Window: time.Minute}, cfg.RateLimit.Auth)
	assert.Equal(t, RateWindow{Max: 5, Window: time.Minute}, cfg.RateLimit.Verification)
	assert.Equal(t, RateWindow{Max: 2, Window: 5 * time.Minute}, cfg.RateLimit.Email)
}

func TestApplyDefaults_KeepsConfiguredValues(t *testing.T) {
	cfg := &Config{
		Auth: &AuthConfig{
			BcryptCost:           10,
			SessionTTL:           time.Hour,
			RememberMeSessionTTL: 48 * time.Hour,
			WSAuthGrace:          5 * time.Second,
		},
	}
	cfg.applyDefaults()

	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 48*time.Hour, cfg.Auth.RememberMeSessionTTL)
	assert.Equal(t, 5*time.Second, cfg.Auth.WSAuthGrace)
}

func TestValidateSecrets(t *testing.T) {
	cfg := &Config{}
	err := cfg.validateSecrets()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secretKey.access")
	assert.Contains(t, err.Error(), "secretKey.passwordReset")

	cfg.SecretKey.Access = "a"
	cfg.SecretKey.Refresh = "b"
	cfg.SecretKey.EmailVerification = "c"
	cfg.SecretKey.PasswordReset = "d"
	require.NoError(t, cfg.validateSecrets())
}
