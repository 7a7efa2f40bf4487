// Package domain defines the session model and the token rotation policy.
package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultRefreshThreshold is the remaining lifetime at or below which a token is rotated.
const DefaultRefreshThreshold = 120 * time.Second

// Session holds the credentials issued by a token exchange. Expiries are epoch
// milliseconds, as returned by the gateway.
type Session struct {
	UserID         string
	AccessToken    string
	RefreshToken   string
	AccessExpires  int64
	RefreshExpires int64
}

// IsZero reports whether no session has been established.
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

// AccessExpiresAt returns the access token expiry.
func (s Session) AccessExpiresAt() time.Time {
	return time.UnixMilli(s.AccessExpires)
}

// RefreshExpiresAt returns the refresh token expiry.
func (s Session) RefreshExpiresAt() time.Time {
	return time.UnixMilli(s.RefreshExpires)
}

// AccessRemaining returns the access token lifetime left at now.
func (s Session) AccessRemaining(now time.Time) time.Duration {
	return s.AccessExpiresAt().Sub(now)
}

// RefreshRemaining returns the refresh token lifetime left at now.
func (s Session) RefreshRemaining(now time.Time) time.Duration {
	return s.RefreshExpiresAt().Sub(now)
}

// AccessExpired reports whether the access token has expired at now.
func (s Session) AccessExpired(now time.Time) bool {
	return now.After(s.AccessExpiresAt())
}

// RefreshExpired reports whether the refresh token has expired at now.
func (s Session) RefreshExpired(now time.Time) bool {
	return now.After(s.RefreshExpiresAt())
}

// Claims decodes the access token payload without verifying it. The gateway is the only
// party able to verify it; the claims are for display only.
func (s Session) Claims() (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// RotateAction is the outcome of the rotation policy.
type RotateAction int

// Rotation outcomes.
const (
	RotateNone RotateAction = iota
	RotateRefresh
	RotateAuthenticate
)

func (a RotateAction) String() string {
	switch a {
	case RotateRefresh:
		return "refresh"
	case RotateAuthenticate:
		return "authenticate"
	default:
		return "none"
	}
}

// DecideRotation applies the rotation policy at now. While the access token has more than
// threshold left nothing happens. Otherwise the refresh token is used if it too has more
// than threshold left, and a full challenge exchange is needed if it does not. A zero
// session always needs a full exchange.
func DecideRotation(s Session, now time.Time, threshold time.Duration) RotateAction {
	if s.IsZero() {
		return RotateAuthenticate
	}
	if s.AccessRemaining(now) > threshold {
		return RotateNone
	}
	if s.RefreshToken == "" || s.RefreshRemaining(now) <= threshold {
		return RotateAuthenticate
	}
	return RotateRefresh
}
