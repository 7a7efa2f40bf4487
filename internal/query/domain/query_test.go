package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrepareSQL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace outside quotes",
			input:    "Select 'complex \nstring   ' as A \n   \t from \n\t TableName  \n Where    A=1;",
			expected: "Select 'complex \nstring   ' as A from TableName Where A=1",
		},
		{
			name:     "keeps double quoted identifiers",
			input:    "CREATE TABLE t (id INT) WITH \"public_key=ab,  access_type=public_read\"",
			expected: "CREATE TABLE t (id INT) WITH \"public_key=ab,  access_type=public_read\"",
		},
		{
			name:     "single quote inside double quotes",
			input:    "select \"it's\"   as   x",
			expected: "select \"it's\" as x",
		},
		{
			name:     "trailing semicolon after whitespace",
			input:    "  select 1 ;  ",
			expected: "select 1",
		},
		{
			name:     "only one semicolon removed",
			input:    "select 1;;",
			expected: "select 1;",
		},
		{
			name:     "empty",
			input:    " \n\t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrepareSQL(tt.input))
		})
	}
}

func TestDetectSQLType(t *testing.T) {
	tests := []struct {
		input    string
		expected SQLType
	}{
		{"CREATE TABLE a.b (id INT)", SQLTypeDDL},
		{"drop view a.v", SQLTypeDDL},
		{"alter table a.b add c int", SQLTypeDDL},
		{"INSERT INTO a.b VALUES (1)", SQLTypeDML},
		{"merge into a.b using c", SQLTypeDML},
		{"  select * from a.b", SQLTypeDQL},
		{"(SELECT 1)", SQLTypeDQL},
		{"with x as (select 1) select * from x", SQLTypeDQL},
		{"explain select 1", SQLTypeAuto},
		{"", SQLTypeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSQLType(tt.input))
		})
	}
}

func TestParseSQLType(t *testing.T) {
	assert.Equal(t, SQLTypeDDL, ParseSQLType("ddl"))
	assert.Equal(t, SQLTypeDML, ParseSQLType(" DML "))
	assert.Equal(t, SQLTypeDQL, ParseSQLType("Dql"))
	assert.Equal(t, SQLTypeAuto, ParseSQLType("auto"))
	assert.Equal(t, SQLTypeAuto, ParseSQLType(""))

	assert.Equal(t, "sql", SQLTypeAuto.String())
	assert.Equal(t, "dql", SQLTypeDQL.String())
}

func TestQuery_ResolvedType(t *testing.T) {
	assert.Equal(t, SQLTypeDQL, Query{SQLText: "select 1"}.ResolvedType())
	assert.Equal(t, SQLTypeDML, Query{SQLText: "select 1", Type: SQLTypeDML}.ResolvedType())
}

func TestReplacePlaceholders(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

	t.Run("Success_DefaultsDateAndTime", func(t *testing.T) {
		got := ReplacePlaceholders("{resource}_{date}_{time} {unknown}", map[string]string{"resource": "S.T"}, now)
		assert.Equal(t, "S.T_20260301_090507 {unknown}", got)
	})

	t.Run("Success_ExplicitDateWins", func(t *testing.T) {
		got := ReplacePlaceholders("{date}", map[string]string{"date": "today"}, now)
		assert.Equal(t, "today", got)
	})

	t.Run("Success_NilValues", func(t *testing.T) {
		assert.Equal(t, "v20260301", ReplacePlaceholders("v{date}", nil, now))
	})
}
