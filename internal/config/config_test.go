package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://api.spaceandtime.app", cfg.APIURL)
				assert.Equal(t, "v1", cfg.APIVersion)
				assert.Equal(t, "", cfg.UserID)
				assert.Equal(t, "SxT-SDK", cfg.ApplicationName)
				assert.Equal(t, "ed25519", cfg.AuthScheme)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
				assert.Equal(t, 0.0, cfg.HTTPRequestsPerSec)
				assert.Equal(t, 120*time.Second, cfg.TokenRefreshThreshold)
				assert.Equal(t, 90*24*time.Hour, cfg.BiscuitTimeWindow)
				assert.False(t, cfg.MetricsEnabled)
				assert.Equal(t, "sxt", cfg.MetricsNamespace)
				assert.Equal(t, "0.0.0.0", cfg.MetricsHost)
				assert.Equal(t, 9090, cfg.MetricsPort)
				assert.Empty(t, cfg.CORSAllowOrigins)
				assert.Equal(t, "", cfg.KMSKeyURI)
			},
		},
		{
			name: "load custom identity configuration",
			envVars: map[string]string{
				"USERID":           "alice",
				"USER_PRIVATE_KEY": "c2VjcmV0",
				"JOINCODE":         "join-123",
				"APP_PREFIX":       "acme",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "alice", cfg.UserID)
				assert.Equal(t, "c2VjcmV0", cfg.UserPrivateKey)
				assert.Equal(t, "join-123", cfg.JoinCode)
				assert.Equal(t, "acme", cfg.AppPrefix)
			},
		},
		{
			name: "load custom network configuration",
			envVars: map[string]string{
				"API_URL":               "http://localhost:9000",
				"API_VERSION":           "v2",
				"HTTP_TIMEOUT_SECONDS":  "5",
				"HTTP_REQUESTS_PER_SEC": "2.5",
				"HTTP_BURST":            "4",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:9000", cfg.APIURL)
				assert.Equal(t, "v2", cfg.APIVersion)
				assert.Equal(t, "http://localhost:9000/v2", cfg.BaseURL())
				assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
				assert.Equal(t, 2.5, cfg.HTTPRequestsPerSec)
				assert.Equal(t, 4, cfg.HTTPBurst)
			},
		},
		{
			name: "load custom token configuration",
			envVars: map[string]string{
				"TOKEN_REFRESH_THRESHOLD_SECONDS": "300",
				"BISCUIT_TIME_WINDOW_DAYS":        "7",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 300*time.Second, cfg.TokenRefreshThreshold)
				assert.Equal(t, 7*24*time.Hour, cfg.BiscuitTimeWindow)
			},
		},
		{
			name: "load custom metrics configuration",
			envVars: map[string]string{
				"METRICS_ENABLED":    "true",
				"METRICS_NAMESPACE":  "sdk",
				"METRICS_HOST":       "127.0.0.1",
				"METRICS_PORT":       "9191",
				"CORS_ALLOW_ORIGINS": "https://app.example.com",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "sdk", cfg.MetricsNamespace)
				assert.Equal(t, "127.0.0.1", cfg.MetricsHost)
				assert.Equal(t, 9191, cfg.MetricsPort)
				assert.Equal(t, "https://app.example.com", cfg.CORSAllowOrigins)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ExplicitDotEnvFile(t *testing.T) {
	os.Clearenv()

	path := filepath.Join(t.TempDir(), "user.env")
	content := "API_URL=\"http://gateway.local\"\nUSERID=\"bob\"\nLOG_LEVEL=\"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Load(path)

	assert.Equal(t, "http://gateway.local", cfg.APIURL)
	assert.Equal(t, "bob", cfg.UserID)
	assert.Equal(t, "debug", cfg.LogLevel)
}
