// Package config provides SDK configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all SDK configuration.
type Config struct {
	// APIURL is the base URL of the network gateway.
	APIURL string
	// APIVersion is the default endpoint version prefix (e.g., "v1").
	APIVersion string

	// UserID is the identity used for authentication.
	UserID string
	// UserPrivateKey is the user's Ed25519 private key in any supported encoding.
	UserPrivateKey string
	// UserPublicKey is the user's Ed25519 public key, informational only.
	UserPublicKey string
	// JoinCode is the optional subscription join code sent on first registration.
	JoinCode string
	// AppPrefix is an optional prefix prepended to the user id on registration.
	AppPrefix string

	// ApplicationName is sent as the originApp header on every request.
	ApplicationName string
	// AuthScheme is the signature scheme announced during token exchange.
	AuthScheme string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// HTTPTimeout bounds a single network call.
	HTTPTimeout time.Duration
	// HTTPRequestsPerSec caps outgoing calls; zero disables the limiter.
	HTTPRequestsPerSec float64
	// HTTPBurst is the burst size for the outgoing call limiter.
	HTTPBurst int

	// TokenRefreshThreshold is the remaining lifetime at or below which a token is renewed.
	TokenRefreshThreshold time.Duration
	// BiscuitTimeWindow is the default validity span of a biscuit time check.
	BiscuitTimeWindow time.Duration

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the SDK metrics.
	MetricsNamespace string
	// MetricsHost is the bind address of the metrics server started by long-running commands.
	MetricsHost string
	// MetricsPort is the port of the metrics server.
	MetricsPort int
	// CORSAllowOrigins is a comma-separated list of origins allowed to read the server
	// endpoints. Empty disables CORS.
	CORSAllowOrigins string

	// KMSKeyURI is the gocloud.dev secrets URI used to seal persisted private keys.
	KMSKeyURI string
}

// Load loads configuration from environment variables and a .env file. When dotenvFile is
// empty the nearest .env walking up from the working directory is used.
func Load(dotenvFile string) *Config {
	loadDotEnv(dotenvFile)

	return &Config{
		// Network
		APIURL:     env.GetString("API_URL", "https://api.spaceandtime.app"),
		APIVersion: env.GetString("API_VERSION", "v1"),

		// Identity
		UserID:         env.GetString("USERID", ""),
		UserPrivateKey: env.GetString("USER_PRIVATE_KEY", ""),
		UserPublicKey:  env.GetString("USER_PUBLIC_KEY", ""),
		JoinCode:       env.GetString("JOINCODE", ""),
		AppPrefix:      env.GetString("APP_PREFIX", ""),

		ApplicationName: env.GetString("APPLICATION_NAME", "SxT-SDK"),
		AuthScheme:      env.GetString("AUTH_SCHEME", "ed25519"),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// HTTP
		HTTPTimeout:        env.GetDuration("HTTP_TIMEOUT_SECONDS", 30, time.Second),
		HTTPRequestsPerSec: env.GetFloat64("HTTP_REQUESTS_PER_SEC", 0),
		HTTPBurst:          env.GetInt("HTTP_BURST", 1),

		// Tokens
		TokenRefreshThreshold: env.GetDuration("TOKEN_REFRESH_THRESHOLD_SECONDS", 120, time.Second),
		BiscuitTimeWindow:     env.GetDuration("BISCUIT_TIME_WINDOW_DAYS", 90, 24*time.Hour),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "sxt"),
		MetricsHost:      env.GetString("METRICS_HOST", "0.0.0.0"),
		MetricsPort:      env.GetInt("METRICS_PORT", 9090),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// KMS
		KMSKeyURI: env.GetString("KMS_KEY_URI", ""),
	}
}

// BaseURL returns the API URL joined with the default version prefix.
func (c *Config) BaseURL() string {
	return c.APIURL + "/" + c.APIVersion
}

// loadDotEnv loads the given file, or searches for a .env file recursively from the
// current directory up to the root directory and loads it if found.
func loadDotEnv(dotenvFile string) {
	if dotenvFile != "" {
		_ = godotenv.Load(dotenvFile)
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
