package domain

import (
	"fmt"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Authentication errors.
var (
	// ErrMissingCredentials indicates the user id or private key is not set.
	ErrMissingCredentials = errors.Wrap(errors.ErrArgument, "user id and private key are required to authenticate")

	// ErrIncompleteTokens indicates the gateway omitted one of the four session fields.
	ErrIncompleteTokens = errors.Wrap(errors.ErrAuthentication, "authentication produced incomplete output")

	// ErrNoSession indicates an operation needs a session that has not been established.
	ErrNoSession = errors.Wrap(errors.ErrAuthentication, "no active session")

	// ErrRefreshExpired indicates the refresh token can no longer be used.
	ErrRefreshExpired = errors.Wrap(errors.ErrAuthentication, "refresh token has expired")
)

// AuthenticationError reports a failed step of the challenge, exchange or refresh flow.
// It matches errors.ErrAuthentication and, when set, the underlying cause.
type AuthenticationError struct {
	Op     string
	Detail string
	Err    error
}

func (e *AuthenticationError) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("authentication error: %s: %s: %v", e.Op, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("authentication error: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("authentication error: %s: %s", e.Op, e.Detail)
	}
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrAuthentication}
	}
	return []error{errors.ErrAuthentication, e.Err}
}
