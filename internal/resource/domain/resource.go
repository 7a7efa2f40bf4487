// Package domain defines network resources (tables, views and materialized views), their
// access types and the DDL conventions the gateway expects.
package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is the kind of a resource.
type Type string

const (
	TypeTable            Type = "table"
	TypeView             Type = "view"
	TypeMaterializedView Type = "materialized_view"
)

// ParseType accepts "table", "view", "materialized_view", "matview" and
// "materialized view" in any case.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return TypeTable, nil
	case "view":
		return TypeView, nil
	case "materialized_view", "matview", "materialized view":
		return TypeMaterializedView, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Keyword is the SQL object keyword, e.g. "MATERIALIZED VIEW".
func (t Type) Keyword() string {
	return strings.ReplaceAll(strings.ToUpper(string(t)), "_", " ")
}

// Placeholder is the name placeholder used in DDL templates, e.g. "table_name".
func (t Type) Placeholder() string {
	switch t {
	case TypeView:
		return "view_name"
	case TypeMaterializedView:
		return "matview_name"
	default:
		return "table_name"
	}
}

// AccessType controls who may use a table without a biscuit.
type AccessType string

const (
	AccessPermissioned AccessType = "permissioned"
	AccessPublicRead   AccessType = "public_read"
	AccessPublicAppend AccessType = "public_append"
	AccessPublicWrite  AccessType = "public_write"
)

// ParseAccessType maps a name (any case) to an AccessType.
func ParseAccessType(s string) (AccessType, error) {
	switch a := AccessType(strings.ToLower(strings.TrimSpace(s))); a {
	case AccessPermissioned, AccessPublicRead, AccessPublicAppend, AccessPublicWrite:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAccessType, s)
	}
}

const (
	// MinRefreshInterval is the shortest materialized view refresh interval, in minutes.
	MinRefreshInterval = 1440

	// InsertBatchSize is the number of rows sent per INSERT request.
	InsertBatchSize = 1000
)

var (
	withWord     = regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_])with([^A-Za-z0-9_]|$)`)
	asWord       = regexp.MustCompile(`(?i)(^|\s)as(\s|$)`)
	withTemplate = regexp.MustCompile(`\{with(_statement)?\}`)
)

// WithStatement builds the WITH clause carrying the resource public key (hex) and the
// type specific options.
func WithStatement(t Type, publicKeyHex string, access AccessType, refreshInterval int) string {
	switch t {
	case TypeView:
		return fmt.Sprintf(`WITH "public_key=%s"`, publicKeyHex)
	case TypeMaterializedView:
		return fmt.Sprintf(`WITH "public_key=%s,refresh_interval=%d"`, publicKeyHex, refreshInterval)
	default:
		return fmt.Sprintf(`WITH "public_key=%s,access_type=%s"`, publicKeyHex, access)
	}
}

// HasWithStatement reports whether ddl already carries a WITH clause. For tables the
// clause follows the closing parenthesis of the column list; for views it precedes AS.
// A {with} or {with_statement} placeholder counts as a clause.
func HasWithStatement(t Type, ddl string) bool {
	if withTemplate.MatchString(ddl) {
		return true
	}
	if t == TypeTable {
		tail := ddl
		if i := strings.LastIndex(ddl, ")"); i >= 0 {
			tail = ddl[i+1:]
		}
		return withWord.MatchString(tail)
	}

	head := ddl
	if loc := asWord.FindStringIndex(ddl); loc != nil {
		head = ddl[:loc[0]]
	}
	return withWord.MatchString(head)
}

// Column is one column declared in a CREATE TABLE statement.
type Column struct {
	Name string
	Type string
}

// ParseColumns reads the column list of a CREATE TABLE statement, skipping the primary
// key clause. Commas nested in type arguments such as DECIMAL(10,2) are honored.
func ParseColumns(ddl string) ([]Column, error) {
	open := strings.Index(ddl, "(")
	closing := strings.LastIndex(ddl, ")")
	if open < 0 || closing <= open {
		return nil, ErrMalformedDDL
	}

	var (
		columns []Column
		depth   int
		start   = open + 1
	)
	body := ddl[:closing]
	for i := start; i <= len(body); i++ {
		if i < len(body) {
			switch body[i] {
			case '(':
				depth++
				continue
			case ')':
				depth--
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}

		fields := strings.Fields(body[start:i])
		start = i + 1
		if len(fields) == 0 {
			continue
		}
		if strings.EqualFold(fields[0], "primary") && len(fields) > 1 && strings.HasPrefix(strings.ToLower(fields[1]), "key") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: column %q has no type", ErrMalformedDDL, fields[0])
		}
		columns = append(columns, Column{Name: fields[0], Type: fields[1]})
	}
	return columns, nil
}

// InsertStatements renders rows as multi-row INSERT statements of at most batchSize rows
// each. Values are written as quoted SQL literals.
func InsertStatements(table string, columns []string, rows [][]any, batchSize int) []string {
	if batchSize <= 0 {
		batchSize = InsertBatchSize
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	var statements []string
	for len(rows) > 0 {
		n := min(batchSize, len(rows))
		values := make([]string, n)
		for i, row := range rows[:n] {
			literals := make([]string, len(row))
			for j, v := range row {
				literals[j] = literal(v)
			}
			values[i] = "(" + strings.Join(literals, ", ") + ")"
		}
		statements = append(statements, prefix+strings.Join(values, ", "))
		rows = rows[n:]
	}
	return statements
}

func literal(v any) string {
	if v == nil {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
}
