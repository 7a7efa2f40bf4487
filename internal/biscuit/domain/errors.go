package domain

import (
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Capability and token error definitions.
var (
	// ErrNoResource indicates a capability was added without a resource and no default
	// or previously used resource is available.
	ErrNoResource = errors.Wrap(errors.ErrArgument, "no resource specified")

	// ErrUnknownPermission indicates a permission name or tag outside the closed set.
	ErrUnknownPermission = errors.Wrap(errors.ErrArgument, "unknown permission")

	// ErrMalformedCapability indicates a policy line did not carry the expected quoted fields.
	ErrMalformedCapability = errors.Wrap(errors.ErrArgument, "malformed capability line")

	// ErrInvalidTimeWindow indicates a time check whose end is not after its start.
	ErrInvalidTimeWindow = errors.Wrap(errors.ErrArgument, "invalid time window")

	// ErrEmptyPolicy indicates a token was requested for a model with no policy lines.
	ErrEmptyPolicy = errors.Wrap(errors.ErrArgument, "policy text is empty")

	// ErrMalformedPolicy indicates policy text rejected by the grammar check at signing time.
	ErrMalformedPolicy = errors.Wrap(errors.ErrBiscuit, "malformed policy text")

	// ErrInvalidToken indicates a token failed structural or signature validation.
	ErrInvalidToken = errors.Wrap(errors.ErrBiscuit, "invalid biscuit token")
)
