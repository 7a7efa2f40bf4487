package app

import (
	"context"
	"fmt"
	"time"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	authUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/usecase"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/http"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
)

// AuthUseCase returns the session workflow for the configured user. The HTTP client
// draws its bearer tokens from it.
func (c *Container) AuthUseCase() (authUsecase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.setInitError("authUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("authUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// SessionReadiness reports ready while uc holds an unexpired access token.
func SessionReadiness(uc authUsecase.AuthUseCase) http.ReadinessCheck {
	return func(ctx context.Context) error {
		session := uc.Session()
		if session.IsZero() {
			return authDomain.ErrNoSession
		}
		if session.AccessExpired(time.Now()) {
			return errors.Wrap(errors.ErrAuthentication, "access token has expired")
		}
		return nil
	}
}

// initAuthUseCase creates the auth use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUsecase.AuthUseCase, error) {
	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get http client for auth use case: %w", err)
	}
	gateway, err := c.AuthGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth gateway for auth use case: %w", err)
	}
	keys, err := c.UserKeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get user keys for auth use case: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
	}

	useCase := authUsecase.NewAuthUseCase(authUsecase.Options{
		UserID:    c.config.UserID,
		JoinCode:  c.config.JoinCode,
		Prefix:    c.config.AppPrefix,
		Scheme:    c.config.AuthScheme,
		Threshold: c.config.TokenRefreshThreshold,
	}, gateway, keys, c.Logger())
	useCase = authUsecase.NewAuthUseCaseWithMetrics(useCase, businessMetrics)

	client.SetTokenSource(network.TokenSourceFunc(useCase.AccessToken))
	return useCase, nil
}
