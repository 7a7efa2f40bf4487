package domain

import (
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Query execution errors.
var (
	// ErrEmptySQL indicates that no statement remained after preparation.
	ErrEmptySQL = errors.Wrap(errors.ErrArgument, "sql text is empty")

	// ErrDDLRequiresBiscuits indicates a DDL statement submitted without any biscuit.
	ErrDDLRequiresBiscuits = errors.Wrap(errors.ErrArgument, "ddl requires biscuits, none were provided")

	// ErrQueryFailed indicates that the network rejected or could not run the statement.
	ErrQueryFailed = errors.Wrap(errors.ErrQuery, "query failed")

	// ErrMalformedRows indicates a result that is not a JSON array of objects.
	ErrMalformedRows = errors.Wrap(errors.ErrQuery, "result is not a list of rows")
)
