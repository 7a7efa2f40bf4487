package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Row is one result record with its columns in the order the gateway returned them.
type Row struct {
	Columns []string
	Values  []json.RawMessage
}

// DecodeRows parses a JSON array of objects, keeping column order. A JSON null or an
// empty body decodes to no rows.
func DecodeRows(raw json.RawMessage) ([]Row, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var rows []Row
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		var row Row
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedRows, err)
			}
			name, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected key %v", ErrMalformedRows, tok)
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedRows, err)
			}
			row.Columns = append(row.Columns, name)
			row.Values = append(row.Values, value)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return rows, nil
}

// RowsToCSV renders rows as CSV lines: a header line of the first row's column names,
// then one line per row. Every field, header included, is double-quoted. No rows yields no lines.
func RowsToCSV(raw json.RawMessage) ([]string, error) {
	rows, err := DecodeRows(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{}, nil
	}

	lines := make([]string, 0, len(rows)+1)
	header := make([]string, len(rows[0].Columns))
	for i, name := range rows[0].Columns {
		header[i] = quoteCSV(name)
	}
	lines = append(lines, strings.Join(header, ","))
	for _, row := range rows {
		fields := make([]string, len(row.Values))
		for i, v := range row.Values {
			fields[i] = quoteCSV(csvText(v))
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return lines, nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvText renders strings unquoted, null as empty and anything else as its JSON text.
func csvText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if bytes.Equal(v, []byte("null")) {
		return ""
	}
	return string(v)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRows, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrMalformedRows, want, tok)
	}
	return nil
}
