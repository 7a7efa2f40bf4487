package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SQLGateway wraps the sql/* and discover/* endpoints. Requests are authenticated with
// the caller's token source.
type SQLGateway struct {
	caller Caller
}

// NewSQLGateway creates an SQLGateway over caller.
func NewSQLGateway(caller Caller) *SQLGateway {
	return &SQLGateway{caller: caller}
}

// Execute sends req to one of the sql endpoints and returns the raw JSON result.
func (g *SQLGateway) Execute(ctx context.Context, endpoint string, req SQLRequest) (json.RawMessage, error) {
	switch endpoint {
	case EndpointSQL, EndpointSQLDDL, EndpointSQLDML, EndpointSQLDQL:
	default:
		return nil, fmt.Errorf("%w: %s is not a sql endpoint", ErrEndpointNotDefined, endpoint)
	}

	body := sqlBody{SQLText: req.SQLText, Biscuits: req.Biscuits}
	if body.Biscuits == nil {
		body.Biscuits = []string{}
	}
	switch endpoint {
	case EndpointSQL:
		body.Validate = fmt.Sprintf("%t", req.Validate)
	case EndpointSQLDML, EndpointSQLDQL:
		body.Resources = req.Resources
	}

	var headers map[string]string
	if req.OriginApp != "" {
		headers = map[string]string{"originApp": req.OriginApp}
	}

	resp := g.caller.Call(ctx, &Request{
		Endpoint: endpoint,
		Headers:  headers,
		Body:     body,
		Auth:     true,
	})
	if !resp.Success {
		return nil, resp.Err
	}
	return json.RawMessage(resp.Body), nil
}

// Schemas lists the schemas visible in scope.
func (g *SQLGateway) Schemas(ctx context.Context, scope DiscoveryScope) (Rows, error) {
	return g.discover(ctx, EndpointDiscoverSchema, map[string]string{"scope": scopeValue(scope)})
}

// Tables lists the tables of schema. pattern, when set, filters table names.
func (g *SQLGateway) Tables(ctx context.Context, schema string, scope DiscoveryScope, pattern string) (Rows, error) {
	query := map[string]string{"scope": scopeValue(scope), "schema": strings.ToUpper(schema)}
	if pattern != "" {
		query["searchPattern"] = pattern
	}
	return g.discover(ctx, EndpointDiscoverTable, query)
}

// Views lists the views of schema. pattern, when set, filters view names.
func (g *SQLGateway) Views(ctx context.Context, schema string, scope DiscoveryScope, pattern string) (Rows, error) {
	query := map[string]string{"scope": scopeValue(scope), "schema": strings.ToUpper(schema)}
	if pattern != "" {
		query["searchPattern"] = pattern
	}
	return g.discover(ctx, EndpointDiscoverView, query)
}

// Columns lists the columns of schema.table. table is the bare table name.
func (g *SQLGateway) Columns(ctx context.Context, schema, table string) (Rows, error) {
	return g.discover(ctx, EndpointDiscoverColumn, map[string]string{
		"schema": strings.ToUpper(schema),
		"table":  table,
	})
}

func (g *SQLGateway) discover(ctx context.Context, endpoint string, query map[string]string) (Rows, error) {
	resp := g.caller.Call(ctx, &Request{
		Endpoint: endpoint,
		Method:   http.MethodGet,
		Query:    query,
		Auth:     true,
	})
	var rows Rows
	if err := resp.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func scopeValue(scope DiscoveryScope) string {
	if scope == "" {
		return string(ScopeAll)
	}
	return strings.ToUpper(string(scope))
}
