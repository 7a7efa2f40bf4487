package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	authUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/usecase"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
)

// UserSaver persists user identities. *persistence.Store implements it.
type UserSaver interface {
	SaveUser(ctx context.Context, path string, u persistence.User) (string, error)
}

// RunAuthenticate signs in, prints the session and, when savePath is set, saves the user
// identity that authenticated.
func RunAuthenticate(
	ctx context.Context,
	authUseCase authUsecase.AuthUseCase,
	saver UserSaver,
	user persistence.User,
	logger *slog.Logger,
	writer io.Writer,
	savePath string,
	format string,
) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	session, err := authUseCase.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	logger.Info("authenticated", slog.String("user_id", session.UserID))

	var savedPath string
	if savePath != "" {
		savedPath, err = saver.SaveUser(ctx, savePath, user)
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}

	if err := writeSession(writer, session, format, false); err != nil {
		return err
	}
	if savedPath != "" && format == "text" {
		_, err = fmt.Fprintf(writer, "saved to %s\n", savedPath)
	}
	return err
}

// sessionView is the printable form of a session. Tokens are shown only on request.
type sessionView struct {
	UserID         string         `json:"user_id"`
	AccessExpires  time.Time      `json:"access_token_expires"`
	RefreshExpires time.Time      `json:"refresh_token_expires"`
	AccessToken    string         `json:"access_token,omitempty"`
	RefreshToken   string         `json:"refresh_token,omitempty"`
	Claims         map[string]any `json:"claims,omitempty"`
}

func newSessionView(session authDomain.Session, showTokens bool) sessionView {
	view := sessionView{
		UserID:         session.UserID,
		AccessExpires:  session.AccessExpiresAt().UTC(),
		RefreshExpires: session.RefreshExpiresAt().UTC(),
	}
	if showTokens {
		view.AccessToken = session.AccessToken
		view.RefreshToken = session.RefreshToken
		if claims, err := session.Claims(); err == nil {
			view.Claims = claims
		}
	}
	return view
}

func writeSession(writer io.Writer, session authDomain.Session, format string, showTokens bool) error {
	view := newSessionView(session, showTokens)
	if format == "json" {
		return writeJSON(writer, view)
	}

	fmt.Fprintf(writer, "user:            %s\n", view.UserID)
	fmt.Fprintf(writer, "access expires:  %s\n", view.AccessExpires.Format(time.RFC3339))
	fmt.Fprintf(writer, "refresh expires: %s\n", view.RefreshExpires.Format(time.RFC3339))
	if showTokens {
		fmt.Fprintf(writer, "ACCESS_TOKEN=%s\n", view.AccessToken)
		fmt.Fprintf(writer, "REFRESH_TOKEN=%s\n", view.RefreshToken)
	}
	return nil
}
