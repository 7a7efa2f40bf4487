package network

import "maps"

// Endpoint names, relative to the versioned base URL.
const (
	EndpointAuthCode       = "auth/code"
	EndpointAuthToken      = "auth/token"
	EndpointAuthRefresh    = "auth/refresh"
	EndpointAuthLogout     = "auth/logout"
	EndpointAuthValidToken = "auth/validtoken"
	EndpointAuthIDExists   = "auth/idexists/{id}"
	EndpointAuthKeys       = "auth/keys"
	EndpointAuthKeysCode   = "auth/keys/code"

	EndpointSQL    = "sql"
	EndpointSQLDDL = "sql/ddl"
	EndpointSQLDML = "sql/dml"
	EndpointSQLDQL = "sql/dql"

	EndpointDiscoverSchema = "discover/schema"
	EndpointDiscoverTable  = "discover/table"
	EndpointDiscoverView   = "discover/view"
	EndpointDiscoverColumn = "discover/table/column"

	EndpointSubscription      = "subscription"
	EndpointSubscriptionUsers = "subscription/users"
)

// DefaultEndpoints returns the endpoint -> API version catalog. Auth and SQL endpoints use
// version; discovery and subscription endpoints are served from v2.
func DefaultEndpoints(version string) map[string]string {
	if version == "" {
		version = "v1"
	}
	return map[string]string{
		EndpointAuthCode:       version,
		EndpointAuthToken:      version,
		EndpointAuthRefresh:    version,
		EndpointAuthLogout:     version,
		EndpointAuthValidToken: version,
		EndpointAuthIDExists:   version,
		EndpointAuthKeys:       version,
		EndpointAuthKeysCode:   version,

		EndpointSQL:    version,
		EndpointSQLDDL: version,
		EndpointSQLDML: version,
		EndpointSQLDQL: version,

		EndpointDiscoverSchema: "v2",
		EndpointDiscoverTable:  "v2",
		EndpointDiscoverView:   "v2",
		EndpointDiscoverColumn: "v2",

		EndpointSubscription:      "v2",
		EndpointSubscriptionUsers: "v2",
	}
}

// mergeEndpoints overlays overrides on the default catalog.
func mergeEndpoints(version string, overrides map[string]string) map[string]string {
	out := DefaultEndpoints(version)
	maps.Copy(out, overrides)
	return out
}
