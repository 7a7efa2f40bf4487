package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	authUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/usecase"
)

// Server is a background server run alongside a keepalive. *http.Server implements it.
type Server interface {
	Start(ctx context.Context) error
}

// RunSessionShow establishes a session and prints it with its tokens and claims.
func RunSessionShow(ctx context.Context, authUseCase authUsecase.AuthUseCase, logger *slog.Logger, writer io.Writer, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if _, err := authUseCase.AccessToken(ctx); err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	session := authUseCase.Session()
	logger.Info("session established", slog.String("user_id", session.UserID))
	return writeSession(writer, session, format, true)
}

// RunSessionLogout establishes a session and ends it on the gateway.
func RunSessionLogout(ctx context.Context, authUseCase authUsecase.AuthUseCase, logger *slog.Logger, writer io.Writer) error {
	if _, err := authUseCase.AccessToken(ctx); err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	userID := authUseCase.Session().UserID
	if err := authUseCase.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	logger.Info("logged out", slog.String("user_id", userID))
	_, err := fmt.Fprintf(writer, "logged out %s\n", userID)
	return err
}

// RunSessionKeepalive establishes a session, then keeps it fresh by applying the rotation
// policy every interval until ctx is cancelled. Later rotation failures are retried at
// the next tick. server, when set, runs for the same lifetime.
func RunSessionKeepalive(
	ctx context.Context,
	authUseCase authUsecase.AuthUseCase,
	server Server,
	logger *slog.Logger,
	writer io.Writer,
	interval time.Duration,
) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got: %s", interval)
	}

	report := func(action authDomain.RotateAction) {
		expires := authUseCase.Session().AccessExpiresAt().UTC()
		fmt.Fprintf(writer, "%s %s, access token valid until %s\n",
			time.Now().UTC().Format(time.RFC3339), action, expires.Format(time.RFC3339))
	}

	action, err := authUseCase.Rotate(ctx)
	if err != nil {
		return fmt.Errorf("failed to establish session: %w", err)
	}
	if action != authDomain.RotateNone {
		report(action)
	}

	g, ctx := errgroup.WithContext(ctx)

	if server != nil {
		g.Go(func() error {
			return server.Start(ctx)
		})
	}

	g.Go(func() error {
		err := authUsecase.KeepAlive(ctx, authUseCase, interval, report, logger)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	return g.Wait()
}
