package network

import (
	"context"
	"encoding/json"
	"net/http"
)

// AuthGateway wraps the auth/* endpoints. Calls that need a session take the token
// explicitly so an authenticator can use them without depending on itself.
type AuthGateway struct {
	caller Caller
}

// NewAuthGateway creates an AuthGateway over caller.
func NewAuthGateway(caller Caller) *AuthGateway {
	return &AuthGateway{caller: caller}
}

// IDExists reports whether userID is already registered.
func (g *AuthGateway) IDExists(ctx context.Context, userID string) (bool, error) {
	resp := g.caller.Call(ctx, &Request{
		Endpoint: EndpointAuthIDExists,
		Method:   http.MethodGet,
		Path:     map[string]string{"id": userID},
	})
	var exists bool
	if err := resp.Decode(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// AuthCode requests a challenge for req.UserID.
func (g *AuthGateway) AuthCode(ctx context.Context, req AuthCodeRequest) (string, error) {
	resp := g.caller.Call(ctx, &Request{Endpoint: EndpointAuthCode, Body: req})
	var out authCodeResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	return out.AuthCode, nil
}

// AuthToken exchanges a signed challenge for session tokens.
func (g *AuthGateway) AuthToken(ctx context.Context, req AuthTokenRequest) (*TokenResponse, error) {
	resp := g.caller.Call(ctx, &Request{Endpoint: EndpointAuthToken, Body: req})
	var out TokenResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades refreshToken for a new session.
func (g *AuthGateway) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp := g.caller.Call(ctx, &Request{
		Endpoint:    EndpointAuthRefresh,
		Auth:        true,
		BearerToken: refreshToken,
	})
	var out TokenResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session identified by accessToken.
func (g *AuthGateway) Logout(ctx context.Context, accessToken string) error {
	resp := g.caller.Call(ctx, &Request{
		Endpoint:    EndpointAuthLogout,
		Auth:        true,
		BearerToken: accessToken,
	})
	return resp.Err
}

// ValidToken asks the gateway to describe accessToken. It fails when the token is no
// longer accepted.
func (g *AuthGateway) ValidToken(ctx context.Context, accessToken string) (json.RawMessage, error) {
	resp := g.caller.Call(ctx, &Request{
		Endpoint:    EndpointAuthValidToken,
		Method:      http.MethodGet,
		Auth:        true,
		BearerToken: accessToken,
	})
	if !resp.Success {
		return nil, resp.Err
	}
	return json.RawMessage(resp.Body), nil
}
