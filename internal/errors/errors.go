// Package errors provides the standardized error kinds shared by every SDK package.
// Domain packages wrap these sentinels with their own context so callers can always
// classify a failure with errors.Is, regardless of which layer raised it.
package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the SDK.
var (
	// ErrKeyEncoding indicates a malformed, wrong-length or unrecognized key value.
	ErrKeyEncoding = errors.New("key encoding error")

	// ErrArgument indicates a precondition was violated (missing key, resource or policy text).
	ErrArgument = errors.New("argument error")

	// ErrBiscuit indicates a capability token could not be signed or failed validation.
	ErrBiscuit = errors.New("biscuit error")

	// ErrAuthentication indicates a challenge, token exchange or refresh call failed.
	ErrAuthentication = errors.New("authentication error")

	// ErrFileContent indicates a persisted file is missing required fields or is unparsable.
	ErrFileContent = errors.New("file content error")

	// ErrFileExists indicates a save would overwrite an existing file.
	ErrFileExists = errors.New("file exists")

	// ErrQuery indicates a SQL request was rejected by the network.
	ErrQuery = errors.New("query error")

	// ErrNotFound indicates the requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNetwork indicates the gateway could not be reached or returned a non-2xx status.
	ErrNetwork = errors.New("network error")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but builds the context message from a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
