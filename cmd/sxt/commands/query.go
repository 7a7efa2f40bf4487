package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
	queryUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
)

// QueryOptions describes the statement run by RunQuery.
type QueryOptions struct {
	SQL         string
	Type        string
	Resources   []string
	Biscuits    []string
	PublicKey   string
	// ValidateSQL asks the gateway to parse the statement before running it.
	ValidateSQL bool
	// Format is "text", "json" or "csv".
	Format string
}

// RunQuery executes one statement and prints the returned rows.
func RunQuery(ctx context.Context, executor queryUsecase.Executor, logger *slog.Logger, writer io.Writer, opts QueryOptions) error {
	if err := checkFormat(opts.Format, "csv"); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	result, err := executor.Execute(ctx, queryDomain.Query{
		SQLText:   opts.SQL,
		Type:      queryDomain.ParseSQLType(opts.Type),
		Resources: opts.Resources,
		Biscuits:  opts.Biscuits,
		PublicKey: opts.PublicKey,
		Validate:  opts.ValidateSQL,
	})
	if err != nil {
		return err
	}
	logger.Info("query completed", slog.String("endpoint", result.Endpoint))

	switch opts.Format {
	case "json":
		var rows any
		if len(result.Rows) > 0 {
			if err := json.Unmarshal(result.Rows, &rows); err != nil {
				return fmt.Errorf("%w: %v", queryDomain.ErrMalformedRows, err)
			}
		}
		return writeJSON(writer, map[string]any{
			"endpoint": result.Endpoint,
			"sql":      result.SQLText,
			"rows":     rows,
		})
	case "csv":
		return writeCSV(writer, result)
	default:
		fmt.Fprintf(writer, "-- %s: %s\n", result.Endpoint, result.SQLText)
		return writeCSV(writer, result)
	}
}

func writeCSV(writer io.Writer, result queryUsecase.Result) error {
	lines, err := result.CSV()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	_, err = fmt.Fprintln(writer, strings.Join(lines, "\n"))
	return err
}
