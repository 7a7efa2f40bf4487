// Package persistence saves and loads users, biscuits and resources as shell-loadable
// NAME="value" files. Multi-line values use a heredoc:
//
//	CREATE_DDL=$(cat << EOM
//	CREATE TABLE ...
//	EOM
//	)
//
// Saves never overwrite an existing file.
package persistence

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	heredocStart = "$(cat << EOM"
	heredocEnd   = "EOM"
	heredocClose = ")"
)

// Entry is one line group of a Document: a field or a comment.
type Entry struct {
	Name    string
	Value   string
	Comment bool
}

// Document is an ordered list of fields and comments.
type Document struct {
	entries []Entry
}

// Set appends a field, or replaces the value of an existing one in place.
func (d *Document) Set(name, value string) {
	for i := range d.entries {
		if !d.entries[i].Comment && d.entries[i].Name == name {
			d.entries[i].Value = value
			return
		}
	}
	d.entries = append(d.entries, Entry{Name: name, Value: value})
}

// Comment appends a "# text" line.
func (d *Document) Comment(text string) {
	d.entries = append(d.entries, Entry{Value: text, Comment: true})
}

// Get returns the value of the field name.
func (d *Document) Get(name string) (string, bool) {
	for _, e := range d.entries {
		if !e.Comment && e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Value returns the value of name, or "" when absent.
func (d *Document) Value(name string) string {
	v, _ := d.Get(name)
	return v
}

// Names returns the field names in file order.
func (d *Document) Names() []string {
	var names []string
	for _, e := range d.entries {
		if !e.Comment {
			names = append(names, e.Name)
		}
	}
	return names
}

// Entries returns a copy of all entries.
func (d *Document) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Require checks that every name is present.
func (d *Document) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := d.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// Marshal encodes the document. Values containing a newline or a double quote are
// written as heredocs.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range d.entries {
		if e.Comment {
			buf.WriteString("# " + e.Value + "\n")
			continue
		}
		if !strings.ContainsAny(e.Value, "\n\"") {
			fmt.Fprintf(&buf, "%s=\"%s\"\n", e.Name, e.Value)
			continue
		}
		for _, line := range strings.Split(e.Value, "\n") {
			if strings.TrimSuffix(line, "\r") == heredocEnd {
				return nil, fmt.Errorf("%w: %s", ErrUnencodableValue, e.Name)
			}
		}
		fmt.Fprintf(&buf, "%s=%s\n%s\n%s\n%s\n", e.Name, heredocStart, e.Value, heredocEnd, heredocClose)
	}
	return buf.Bytes(), nil
}

// Parse decodes data. Blank lines are skipped; comments are kept. A trailing carriage
// return is dropped from NAME=value and heredoc marker lines but kept inside heredoc
// content.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(scanRawLines)

	lineNo := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNo++
		return scanner.Text(), true
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			doc.Comment(strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			continue
		}

		name, value, found := strings.Cut(line, "=")
		name = strings.TrimSpace(strings.TrimPrefix(name, "export "))
		if !found || name == "" {
			return nil, fmt.Errorf("%w: line %d is not NAME=value", ErrMalformedFile, lineNo)
		}

		if strings.TrimSpace(value) == heredocStart {
			start := lineNo
			var lines []string
			terminated := false
			for {
				l, ok := next()
				if !ok {
					break
				}
				if strings.TrimSuffix(l, "\r") == heredocEnd {
					terminated = true
					break
				}
				lines = append(lines, l)
			}
			if !terminated {
				return nil, fmt.Errorf("%w: heredoc for %s at line %d is not terminated", ErrMalformedFile, name, start)
			}
			if l, ok := next(); ok && strings.TrimSpace(l) != heredocClose {
				return nil, fmt.Errorf("%w: line %d should close the heredoc for %s", ErrMalformedFile, lineNo, name)
			}
			doc.Set(name, strings.Join(lines, "\n"))
			continue
		}

		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		doc.Set(name, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	return doc, nil
}

// scanRawLines splits on '\n' only, leaving any '\r' in the token.
func scanRawLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Save writes doc to path, creating parent directories. An existing file is never
// replaced.
func Save(path string, doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return writeExclusive(path, data)
}

// Load reads and parses path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// FindLatest returns the lexically last file in prefix's directory whose name starts
// with the base name of prefix, or prefix itself when it names an existing file. Saved
// resource names end with a sortable version timestamp, so this is the newest save.
func FindLatest(prefix string) (string, error) {
	if info, err := os.Stat(prefix); err == nil && !info.IsDir() {
		return prefix, nil
	}

	dir, base := filepath.Split(prefix)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, prefix)
	}

	var matches []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), base) {
			matches = append(matches, e.Name())
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no file starts with %s", ErrFileNotFound, prefix)
	}
	sort.Strings(matches)
	return filepath.Join(dir, matches[len(matches)-1]), nil
}

func writeExclusive(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
