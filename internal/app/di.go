// Package app provides dependency injection container for assembling SDK components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/config"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/http"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/metrics"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"

	authUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/usecase"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
	queryUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
)

// Container holds all SDK dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	httpClient      *network.HTTPClient
	authGateway     *network.AuthGateway
	sqlGateway      *network.SQLGateway

	// Keys
	kmsService keysService.KMSService
	keeper     keysDomain.KMSKeeper
	userKeys   *keysService.KeyManager
	store      *persistence.Store

	// Use Cases
	authUseCase   authUsecase.AuthUseCase
	queryExecutor queryUsecase.Executor

	// Servers
	httpServer *http.Server

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpClientInit      sync.Once
	authGatewayInit     sync.Once
	sqlGatewayInit      sync.Once
	kmsServiceInit      sync.Once
	keeperInit          sync.Once
	userKeysInit        sync.Once
	storeInit           sync.Once
	authUseCaseInit     sync.Once
	queryExecutorInit   sync.Once
	httpServerInit      sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the SDK configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when metrics are
// disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.setInitError("metricsProvider", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("metricsProvider"); storedErr != nil {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the operation recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.setInitError("businessMetrics", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("businessMetrics"); storedErr != nil {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPClient returns the gateway client.
func (c *Container) HTTPClient() (*network.HTTPClient, error) {
	var err error
	c.httpClientInit.Do(func() {
		c.httpClient, err = c.initHTTPClient()
		if err != nil {
			c.setInitError("httpClient", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("httpClient"); storedErr != nil {
		return nil, storedErr
	}
	return c.httpClient, nil
}

// AuthGateway returns the authentication endpoints.
func (c *Container) AuthGateway() (*network.AuthGateway, error) {
	var err error
	c.authGatewayInit.Do(func() {
		var client *network.HTTPClient
		client, err = c.HTTPClient()
		if err != nil {
			err = fmt.Errorf("failed to get http client for auth gateway: %w", err)
			c.setInitError("authGateway", err)
			return
		}
		c.authGateway = network.NewAuthGateway(client)
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("authGateway"); storedErr != nil {
		return nil, storedErr
	}
	return c.authGateway, nil
}

// SQLGateway returns the SQL and discovery endpoints.
func (c *Container) SQLGateway() (*network.SQLGateway, error) {
	var err error
	c.sqlGatewayInit.Do(func() {
		var client *network.HTTPClient
		client, err = c.HTTPClient()
		if err != nil {
			err = fmt.Errorf("failed to get http client for sql gateway: %w", err)
			c.setInitError("sqlGateway", err)
			return
		}
		c.sqlGateway = network.NewSQLGateway(client)
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("sqlGateway"); storedErr != nil {
		return nil, storedErr
	}
	return c.sqlGateway, nil
}

// HTTPServer returns the health and metrics server for long-running commands.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.setInitError("httpServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("httpServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the SDK process is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}
	return nil
}

func (c *Container) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

func (c *Container) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// initLogger creates a JSON logger on stderr, leaving stdout to command output.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initMetricsProvider creates the provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the operation recorder on top of the metrics provider.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPClient creates the gateway client, instrumenting its transport when metrics
// are enabled.
func (c *Container) initHTTPClient() (*network.HTTPClient, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http client: %w", err)
	}

	cfg := network.ClientConfig{
		APIURL:            c.config.APIURL,
		Version:           c.config.APIVersion,
		ApplicationName:   c.config.ApplicationName,
		Timeout:           c.config.HTTPTimeout,
		RequestsPerSecond: c.config.HTTPRequestsPerSec,
		Burst:             c.config.HTTPBurst,
	}
	if provider != nil {
		cfg.Transport = metrics.NewInstrumentedTransport(nil, provider.MeterProvider(), provider.Namespace())
	}
	return network.NewHTTPClient(cfg, c.Logger()), nil
}

// initHTTPServer creates the server with a readiness check on the user session.
func (c *Container) initHTTPServer() (*http.Server, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}
	authUseCase, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}

	checks := map[string]http.ReadinessCheck{
		"session": SessionReadiness(authUseCase),
	}
	return http.NewServer(http.ServerConfig{
		Host:        c.config.MetricsHost,
		Port:        c.config.MetricsPort,
		CORSOrigins: c.config.CORSAllowOrigins,
	}, provider, checks, c.Logger()), nil
}
