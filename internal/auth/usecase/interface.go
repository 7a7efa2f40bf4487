// Package usecase implements the challenge/sign/exchange workflow and the session
// rotation policy.
package usecase

import (
	"context"
	"encoding/json"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
)

// AuthAPI is the subset of the gateway used by the workflow.
type AuthAPI interface {
	IDExists(ctx context.Context, userID string) (bool, error)
	AuthCode(ctx context.Context, req network.AuthCodeRequest) (string, error)
	AuthToken(ctx context.Context, req network.AuthTokenRequest) (*network.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*network.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	ValidToken(ctx context.Context, accessToken string) (json.RawMessage, error)
}

// AuthUseCase obtains and maintains a session for one user.
type AuthUseCase interface {
	// Authenticate runs the full challenge/sign/exchange flow and replaces the session.
	Authenticate(ctx context.Context) (authDomain.Session, error)

	// Refresh trades the refresh token for a new session.
	Refresh(ctx context.Context) (authDomain.Session, error)

	// Rotate applies the rotation policy and reports which action ran.
	Rotate(ctx context.Context) (authDomain.RotateAction, error)

	// AccessToken returns the current access token, rotating first when required.
	AccessToken(ctx context.Context) (string, error)

	// Session returns a copy of the current session.
	Session() authDomain.Session

	// Logout ends the session on the gateway and forgets it locally.
	Logout(ctx context.Context) error

	// ValidateToken asks the gateway to describe the current access token.
	ValidateToken(ctx context.Context) (json.RawMessage, error)
}
