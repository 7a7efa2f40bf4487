package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
)

// ErrUnknownDiscoveryKind indicates a discovery target other than schemas, tables, views
// or columns.
var ErrUnknownDiscoveryKind = errors.Wrap(errors.ErrArgument, "unknown discovery kind")

// Discoverer lists catalog metadata. *network.SQLGateway implements it.
type Discoverer interface {
	Schemas(ctx context.Context, scope network.DiscoveryScope) (network.Rows, error)
	Tables(ctx context.Context, schema string, scope network.DiscoveryScope, pattern string) (network.Rows, error)
	Views(ctx context.Context, schema string, scope network.DiscoveryScope, pattern string) (network.Rows, error)
	Columns(ctx context.Context, schema, table string) (network.Rows, error)
}

// DiscoverOptions selects what RunDiscover lists.
type DiscoverOptions struct {
	// Kind is "schemas", "tables", "views" or "columns".
	Kind    string
	Schema  string
	Table   string
	Scope   string
	Pattern string
	Format  string
}

// RunDiscover lists catalog metadata and prints one row per line.
func RunDiscover(ctx context.Context, discoverer Discoverer, logger *slog.Logger, writer io.Writer, opts DiscoverOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	scope := network.DiscoveryScope(opts.Scope)

	var (
		rows network.Rows
		err  error
	)
	switch strings.ToLower(opts.Kind) {
	case "schemas":
		rows, err = discoverer.Schemas(ctx, scope)
	case "tables":
		rows, err = discoverer.Tables(ctx, opts.Schema, scope, opts.Pattern)
	case "views":
		rows, err = discoverer.Views(ctx, opts.Schema, scope, opts.Pattern)
	case "columns":
		rows, err = discoverer.Columns(ctx, opts.Schema, opts.Table)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDiscoveryKind, opts.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to discover %s: %w", opts.Kind, err)
	}
	logger.Info("discovery completed", slog.String("kind", opts.Kind), slog.Int("rows", len(rows)))

	if opts.Format == "json" {
		if rows == nil {
			rows = network.Rows{}
		}
		return writeJSON(writer, rows)
	}

	for _, row := range rows {
		fmt.Fprintln(writer, formatRow(row))
	}
	return nil
}

// formatRow renders a row as sorted key=value pairs.
func formatRow(row map[string]json.RawMessage) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var s string
		if err := json.Unmarshal(row[k], &s); err != nil {
			s = string(row[k])
		}
		parts = append(parts, k+"="+s)
	}
	return strings.Join(parts, " ")
}
