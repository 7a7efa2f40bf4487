package network

import "encoding/json"

// AuthCodeRequest asks for a challenge for UserID. JoinCode registers a new identity
// into an existing subscription.
type AuthCodeRequest struct {
	UserID   string `json:"userId"`
	Prefix   string `json:"prefix,omitempty"`
	JoinCode string `json:"joincode,omitempty"`
}

type authCodeResponse struct {
	AuthCode string `json:"authCode"`
}

// AuthTokenRequest exchanges a signed challenge for session tokens. Signature is hex and
// Key is the base64 public key.
type AuthTokenRequest struct {
	UserID    string `json:"userId"`
	AuthCode  string `json:"authCode"`
	Signature string `json:"signature"`
	Key       string `json:"key"`
	Scheme    string `json:"scheme"`
}

// TokenResponse is returned by token exchange and refresh. Expiries are epoch milliseconds.
type TokenResponse struct {
	AccessToken         string `json:"accessToken"`
	RefreshToken        string `json:"refreshToken"`
	AccessTokenExpires  int64  `json:"accessTokenExpires"`
	RefreshTokenExpires int64  `json:"refreshTokenExpires"`
}

// SQLRequest is a statement plus the biscuits authorizing it.
type SQLRequest struct {
	SQLText   string
	Biscuits  []string
	Resources []string
	OriginApp string
	// Validate asks the generic sql endpoint to check the statement without running it.
	Validate bool
}

type sqlBody struct {
	SQLText   string   `json:"sqlText"`
	Biscuits  []string `json:"biscuits"`
	Resources []string `json:"resources,omitempty"`
	Validate  string   `json:"validate,omitempty"`
}

// DiscoveryScope filters discovery results by ownership.
type DiscoveryScope string

// Discovery scopes.
const (
	ScopeAll          DiscoveryScope = "ALL"
	ScopePublic       DiscoveryScope = "PUBLIC"
	ScopeSubscription DiscoveryScope = "SUBSCRIPTION"
	ScopePrivate      DiscoveryScope = "PRIVATE"
)

// Rows is a decoded result set.
type Rows []map[string]json.RawMessage
