// Package usecase executes SQL statements against the gateway.
package usecase

import (
	"context"
	"encoding/json"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
)

// SQLAPI is the subset of the gateway used by the executor.
type SQLAPI interface {
	Execute(ctx context.Context, endpoint string, req network.SQLRequest) (json.RawMessage, error)
}

// Result is the outcome of an executed statement.
type Result struct {
	// Endpoint is the gateway endpoint that served the statement.
	Endpoint string
	// SQLText is the statement as sent, after preparation and placeholder replacement.
	SQLText string
	Rows    json.RawMessage
}

// CSV renders Rows as CSV lines.
func (r Result) CSV() ([]string, error) {
	return queryDomain.RowsToCSV(r.Rows)
}

// Executor runs statements.
type Executor interface {
	Execute(ctx context.Context, q queryDomain.Query) (Result, error)
}
