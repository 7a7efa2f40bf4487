package domain

import (
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Resource errors.
var (
	// ErrUnknownType indicates a resource type name that is not table, view or materialized view.
	ErrUnknownType = errors.Wrap(errors.ErrArgument, "unknown resource type")

	// ErrUnknownAccessType indicates an access type name outside the supported set.
	ErrUnknownAccessType = errors.Wrap(errors.ErrArgument, "unknown table access type")

	// ErrNoName indicates a resource without a name.
	ErrNoName = errors.Wrap(errors.ErrArgument, "resource name is required")

	// ErrNoPrivateKey indicates an operation that signs with the resource key before one is set.
	ErrNoPrivateKey = errors.Wrap(errors.ErrArgument, "resource requires a private key")

	// ErrNoCreateDDL indicates a create without a CREATE statement template.
	ErrNoCreateDDL = errors.Wrap(errors.ErrArgument, "create ddl must be set before creating the resource")

	// ErrNoBiscuits indicates a drop, insert or delete without any biscuit.
	ErrNoBiscuits = errors.Wrap(errors.ErrArgument, "a biscuit granting the operation must be included")

	// ErrNoExecutor indicates a network operation on a resource not bound to an executor.
	ErrNoExecutor = errors.Wrap(errors.ErrArgument, "resource is not bound to a query executor")

	// ErrRefreshInterval indicates a materialized view refresh more often than allowed.
	ErrRefreshInterval = errors.Wrap(errors.ErrArgument, "materialized view refresh interval is at least 1440 minutes")

	// ErrNotATable indicates a table-only operation on a view.
	ErrNotATable = errors.Wrap(errors.ErrArgument, "operation is only supported on tables")

	// ErrMalformedDDL indicates a CREATE TABLE statement whose column list cannot be read.
	ErrMalformedDDL = errors.Wrap(errors.ErrArgument, "cannot read column list from create ddl")
)
