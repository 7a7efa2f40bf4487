package usecase

import (
	"context"
	"encoding/json"
	"time"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authenticate records metrics for full challenge exchanges.
func (a *authUseCaseWithMetrics) Authenticate(ctx context.Context) (authDomain.Session, error) {
	start := time.Now()
	session, err := a.next.Authenticate(ctx)
	a.record(ctx, "authenticate", start, err)
	return session, err
}

// Refresh records metrics for refresh token exchanges.
func (a *authUseCaseWithMetrics) Refresh(ctx context.Context) (authDomain.Session, error) {
	start := time.Now()
	session, err := a.next.Refresh(ctx)
	a.record(ctx, "refresh", start, err)
	return session, err
}

// Rotate records metrics for rotations that did something.
func (a *authUseCaseWithMetrics) Rotate(ctx context.Context) (authDomain.RotateAction, error) {
	start := time.Now()
	action, err := a.next.Rotate(ctx)
	if action != authDomain.RotateNone || err != nil {
		a.record(ctx, "rotate_"+action.String(), start, err)
	}
	return action, err
}

// AccessToken is not instrumented; it runs on every authenticated call.
func (a *authUseCaseWithMetrics) AccessToken(ctx context.Context) (string, error) {
	return a.next.AccessToken(ctx)
}

// Session is not instrumented.
func (a *authUseCaseWithMetrics) Session() authDomain.Session {
	return a.next.Session()
}

// Logout records metrics for logouts.
func (a *authUseCaseWithMetrics) Logout(ctx context.Context) error {
	start := time.Now()
	err := a.next.Logout(ctx)
	a.record(ctx, "logout", start, err)
	return err
}

// ValidateToken records metrics for token validation calls.
func (a *authUseCaseWithMetrics) ValidateToken(ctx context.Context) (json.RawMessage, error) {
	start := time.Now()
	info, err := a.next.ValidateToken(ctx)
	a.record(ctx, "validate_token", start, err)
	return info, err
}

func (a *authUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	metrics.Observe(ctx, a.metrics, metrics.DomainAuth, operation, start, err)
}
