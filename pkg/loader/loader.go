// Package loader reads navigation hierarchy tables from disk.
//
// Three formats are understood: the navtree.js file Doxygen generates, and
// JSON or YAML documents holding a list of {label, link, children, summary}
// entries.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

var (
	// ErrUnsupportedFormat is returned for a format name or extension the loader does not know.
	ErrUnsupportedFormat = errors.New("unsupported table format")
	// ErrNoTable is returned when a file contains no hierarchy.
	ErrNoTable = errors.New("no navigation table found")
)

// Format identifies a table encoding.
type Format string

const (
	FormatDoxygen Format = "doxygen"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatDoxygen, FormatJSON, FormatYAML}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "doxygen", "js", "navtree.js":
		return FormatDoxygen, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
}

// DetectFormat picks a format from the file extension, falling back to
// sniffing the content when the extension says nothing.
func DetectFormat(path string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js":
		return FormatDoxygen, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Contains(trimmed, navtreeVar):
		return FormatDoxygen, nil
	case bytes.HasPrefix(trimmed, []byte("[")), bytes.HasPrefix(trimmed, []byte("{")):
		return FormatJSON, nil
	case bytes.HasPrefix(trimmed, []byte("-")):
		return FormatYAML, nil
	}
	return "", fmt.Errorf("cannot detect format of %s: %w", path, ErrUnsupportedFormat)
}

// Load reads and parses the table at path. Blank labels and duplicate links
// are logged as warnings and the table is returned as is; of several
// duplicates the first pre-order occurrence is the one pages resolve to.
func Load(path string) (model.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("reading table: %w", err)
	}
	format, err := DetectFormat(path, data)
	if err != nil {
		return model.Table{}, err
	}
	entries, err := Parse(data, format)
	if err != nil {
		return model.Table{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	table := model.Table{Entries: entries, Source: path}
	warnings := table.Validate()
	for _, p := range warnings.EmptyLabels {
		var link string
		if e, ok := table.Lookup(p); ok {
			link = e.Link
		}
		slog.Warn("entry without a label in table", "entry", model.FormatPath(p), "link", link, "source", path)
	}
	for _, d := range warnings.Duplicates {
		slog.Warn("duplicate link in table", "link", d.Link, "occurrences", len(d.Paths), "source", path)
	}
	return table, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) ([]model.Entry, error) {
	var entries []model.Entry
	switch format {
	case FormatDoxygen:
		return ParseDoxygen(data)
	case FormatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, ErrNoTable
		}
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decoding JSON table: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decoding YAML table: %w", err)
		}
		if entries == nil {
			return nil, ErrNoTable
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	return entries, nil
}

// Write encodes entries in the given format.
func Write(w io.Writer, entries []model.Entry, format Format) error {
	switch format {
	case FormatDoxygen:
		return WriteDoxygen(w, entries)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
}
