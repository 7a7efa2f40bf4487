// Package domain holds the SQL request model shared by the query executor and resources.
package domain

import (
	"strings"
	"time"
)

// SQLType selects the gateway endpoint a statement is sent to.
type SQLType string

const (
	// SQLTypeAuto lets the gateway parse the statement to find its type.
	SQLTypeAuto SQLType = ""
	SQLTypeDDL  SQLType = "DDL"
	SQLTypeDML  SQLType = "DML"
	SQLTypeDQL  SQLType = "DQL"
)

// String returns the lowercase type name, "sql" for SQLTypeAuto.
func (t SQLType) String() string {
	if t == SQLTypeAuto {
		return "sql"
	}
	return strings.ToLower(string(t))
}

// ParseSQLType maps "ddl", "dml", "dql" (any case) to a type. Anything else, including
// "auto" and "", is SQLTypeAuto.
func ParseSQLType(s string) SQLType {
	switch t := SQLType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SQLTypeDDL, SQLTypeDML, SQLTypeDQL:
		return t
	default:
		return SQLTypeAuto
	}
}

// DetectSQLType classifies a statement by its leading keyword.
func DetectSQLType(sqlText string) SQLType {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return SQLTypeAuto
	}
	switch strings.ToUpper(strings.TrimLeft(fields[0], "(")) {
	case "CREATE", "ALTER", "DROP":
		return SQLTypeDDL
	case "INSERT", "UPDATE", "DELETE", "MERGE":
		return SQLTypeDML
	case "SELECT", "WITH":
		return SQLTypeDQL
	default:
		return SQLTypeAuto
	}
}

// Query is one statement to execute.
type Query struct {
	SQLText string
	// Type selects the endpoint. SQLTypeAuto uses DetectSQLType.
	Type SQLType
	// Resources are the schema-qualified objects the statement touches. DML and DQL
	// fall back to the generic endpoint without them.
	Resources []string
	Biscuits  []string
	// PublicKey replaces the {public_key} placeholder.
	PublicKey string
	// Validate asks the generic endpoint to parse the statement before running it.
	Validate bool
}

// ResolvedType returns Type, or the detected type when Type is SQLTypeAuto.
func (q Query) ResolvedType() SQLType {
	if q.Type != SQLTypeAuto {
		return q.Type
	}
	return DetectSQLType(q.SQLText)
}

// PrepareSQL collapses runs of spaces, tabs and newlines outside quoted text into a single
// space, trims the statement and drops one trailing semicolon.
func PrepareSQL(sqlText string) string {
	var (
		b        strings.Builder
		inSingle bool
		inDouble bool
		prev     rune
	)
	for _, r := range strings.TrimSpace(sqlText) {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		}
		if inSingle || inDouble {
			b.WriteRune(r)
			prev = 0
			continue
		}

		if r == '\n' || r == '\t' || r == '\r' {
			r = ' '
		}
		if r == ' ' && prev == ' ' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}

	out := strings.TrimSpace(b.String())
	if !inSingle && !inDouble {
		out = strings.TrimSpace(strings.TrimSuffix(out, ";"))
	}
	return out
}

// ReplacePlaceholders substitutes every "{name}" in text with values[name]. {date}
// (YYYYMMDD) and {time} (HHMMSS) default to now unless present in values.
func ReplacePlaceholders(text string, values map[string]string, now time.Time) string {
	pairs := make([]string, 0, 2*len(values)+4)
	if _, ok := values["date"]; !ok {
		pairs = append(pairs, "{date}", now.Format("20060102"))
	}
	if _, ok := values["time"]; !ok {
		pairs = append(pairs, "{time}", now.Format("150405"))
	}
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
