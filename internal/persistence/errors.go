package persistence

import (
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Persistence errors.
var (
	// ErrFileExists indicates a save onto an existing file. Files holding keys are never
	// overwritten.
	ErrFileExists = errors.Wrap(errors.ErrFileExists, "file overwrites are not allowed, to minimize lost keys")

	// ErrFileNotFound indicates a load from a path that does not exist.
	ErrFileNotFound = errors.Wrap(errors.ErrNotFound, "file not found")

	// ErrMalformedFile indicates content that is not in NAME="value" form.
	ErrMalformedFile = errors.Wrap(errors.ErrFileContent, "malformed file")

	// ErrMissingField indicates a file lacking a required field.
	ErrMissingField = errors.Wrap(errors.ErrFileContent, "required field missing")

	// ErrUnencodableValue indicates a multi-line value containing the heredoc terminator.
	ErrUnencodableValue = errors.Wrap(errors.ErrArgument, "value contains a line equal to the heredoc terminator")

	// ErrNoSealer indicates a sealed file loaded without a sealer.
	ErrNoSealer = errors.Wrap(errors.ErrFileContent, "file holds a sealed private key but no KMS key is configured")
)
