// Package commands contains CLI command implementations for the sxt tool.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/app"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// ErrInvalidFormat indicates an output format other than the ones a command supports.
var ErrInvalidFormat = errors.Wrap(errors.ErrArgument, "invalid output format")

// ErrInvalidGrant indicates a malformed name=permissions biscuit grant.
var ErrInvalidGrant = errors.Wrap(errors.ErrArgument, "invalid biscuit grant")

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// CloseContainer closes all resources in the container and logs any errors.
func CloseContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// checkFormat accepts "text", "json" and any extra formats a command offers.
func checkFormat(format string, extra ...string) error {
	if format == "text" || format == "json" {
		return nil
	}
	for _, f := range extra {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonBytes))
	return err
}
