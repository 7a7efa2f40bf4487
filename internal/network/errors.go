package network

import (
	"fmt"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Network errors.
var (
	// ErrEndpointNotDefined indicates the endpoint is missing from the version catalog.
	ErrEndpointNotDefined = errors.Wrap(errors.ErrArgument, "endpoint not defined in API catalog")

	// ErrTransport indicates the request never produced an HTTP response.
	ErrTransport = errors.Wrap(errors.ErrNetwork, "request failed")

	// ErrUnexpectedStatus indicates the gateway answered with a non-2xx status.
	ErrUnexpectedStatus = errors.Wrap(errors.ErrNetwork, "unexpected status")

	// ErrDecodeResponse indicates a successful response body could not be decoded.
	ErrDecodeResponse = errors.Wrap(errors.ErrNetwork, "failed to decode response")
)

// CallError describes a failed call. StatusCode is zero when no response was received.
type CallError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v: %s", e.Endpoint, e.StatusCode, e.Err, e.Body)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
