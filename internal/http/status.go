package http

import (
	"context"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// componentStatus maps a readiness check result to the status reported for the
// component. Errors of unknown kind are reported as "error".
func componentStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errors.ErrAuthentication):
		return "unauthenticated"
	case errors.Is(err, errors.ErrNetwork):
		return "unreachable"
	default:
		return "error"
	}
}
