package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
)

type executor struct {
	api     SQLAPI
	appName string
	now     func() time.Time
	logger  *slog.Logger
}

// NewExecutor creates an Executor that tags every statement with appName as its origin.
func NewExecutor(api SQLAPI, appName string, logger *slog.Logger) Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &executor{api: api, appName: appName, now: time.Now, logger: logger}
}

// Execute prepares q and sends it to the endpoint matching its type. DML and DQL without
// resources, and statements of unknown type, go to the generic sql endpoint.
func (e *executor) Execute(ctx context.Context, q queryDomain.Query) (Result, error) {
	placeholders := map[string]string{"public_key": q.PublicKey}
	if len(q.Resources) > 0 {
		placeholders["resource"] = q.Resources[0]
	}
	sqlText := queryDomain.PrepareSQL(queryDomain.ReplacePlaceholders(q.SQLText, placeholders, e.now()))
	if sqlText == "" {
		return Result{}, queryDomain.ErrEmptySQL
	}
	biscuits := q.Biscuits
	if biscuits == nil {
		biscuits = []string{}
	}

	req := network.SQLRequest{SQLText: sqlText, Biscuits: biscuits, OriginApp: e.appName}
	endpoint := network.EndpointSQL
	switch sqlType := q.ResolvedType(); {
	case sqlType == queryDomain.SQLTypeDDL:
		if len(biscuits) == 0 {
			return Result{}, queryDomain.ErrDDLRequiresBiscuits
		}
		endpoint = network.EndpointSQLDDL
	case sqlType == queryDomain.SQLTypeDML && len(q.Resources) > 0:
		endpoint = network.EndpointSQLDML
		req.Resources = q.Resources
	case sqlType == queryDomain.SQLTypeDQL && len(q.Resources) > 0:
		endpoint = network.EndpointSQLDQL
		req.Resources = q.Resources
	default:
		req.Validate = q.Validate
	}

	e.logger.Info("executing query", slog.String("endpoint", endpoint), slog.String("sql", sqlText))
	rows, err := e.api.Execute(ctx, endpoint, req)
	if err != nil {
		e.logger.Error("error in query execution", slog.String("endpoint", endpoint), slog.Any("error", err))
		return Result{}, fmt.Errorf("%w: %w", queryDomain.ErrQueryFailed, err)
	}
	return Result{Endpoint: endpoint, SQLText: sqlText, Rows: rows}, nil
}
