package loader

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/Dicklesworthstone/navtree_viewer/pkg/model"
)

// navtreeVar is the JavaScript variable Doxygen assigns the hierarchy to.
var navtreeVar = []byte("var NAVTREE")

// ParseDoxygen extracts the NAVTREE literal from a Doxygen navtree.js file.
// Each row is [label, link|null, children|null]. Labels are plain text, the
// way the tree script inserts them.
func ParseDoxygen(data []byte) ([]model.Entry, error) {
	literal, err := extractNavtreeLiteral(data)
	if err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(literal, &rows); err != nil {
		return nil, fmt.Errorf("decoding NAVTREE literal: %w", err)
	}
	return decodeRows(rows, nil)
}

// extractNavtreeLiteral returns the bracketed array assigned to NAVTREE.
func extractNavtreeLiteral(data []byte) ([]byte, error) {
	idx := bytes.Index(data, navtreeVar)
	if idx < 0 {
		return nil, ErrNoTable
	}
	rest := data[idx+len(navtreeVar):]
	eq := bytes.IndexByte(rest, '=')
	if eq < 0 {
		return nil, ErrNoTable
	}
	rest = rest[eq+1:]
	start := bytes.IndexByte(rest, '[')
	if start < 0 {
		return nil, ErrNoTable
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[start : i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("unterminated NAVTREE literal: %w", ErrNoTable)
}

func decodeRows(rows []json.RawMessage, path []int) ([]model.Entry, error) {
	entries := make([]model.Entry, 0, len(rows))
	for i, raw := range rows {
		here := append(append([]int(nil), path...), i)
		e, err := decodeRow(raw, here)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeRow(raw json.RawMessage, path []int) (model.Entry, error) {
	var cells []json.RawMessage
	if err := json.Unmarshal(raw, &cells); err != nil {
		return model.Entry{}, fmt.Errorf("row [%s]: %w", model.FormatPath(path), err)
	}
	if len(cells) < 2 {
		return model.Entry{}, fmt.Errorf("row [%s]: expected at least 2 cells, got %d", model.FormatPath(path), len(cells))
	}

	var label string
	if err := json.Unmarshal(cells[0], &label); err != nil {
		return model.Entry{}, fmt.Errorf("row [%s] label: %w", model.FormatPath(path), err)
	}
	var link *string
	if err := json.Unmarshal(cells[1], &link); err != nil {
		return model.Entry{}, fmt.Errorf("row [%s] link: %w", model.FormatPath(path), err)
	}

	e := model.Entry{Label: label}
	if link != nil {
		e.Link = *link
	}
	if len(cells) < 3 {
		return e, nil
	}

	var children []json.RawMessage
	if err := json.Unmarshal(cells[2], &children); err != nil {
		return model.Entry{}, fmt.Errorf("row [%s] children: %w", model.FormatPath(path), err)
	}
	if children == nil {
		return e, nil
	}
	kids, err := decodeRows(children, path)
	if err != nil {
		return model.Entry{}, err
	}
	e.Children = kids
	return e, nil
}

// WriteDoxygen writes entries as a navtree.js NAVTREE literal, one row per
// line, indented two spaces per level the way Doxygen lays it out.
func WriteDoxygen(w io.Writer, entries []model.Entry) error {
	var buf bytes.Buffer
	buf.WriteString("var NAVTREE =\n[\n")
	if err := writeRows(&buf, entries, 1); err != nil {
		return err
	}
	buf.WriteString("];\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func writeRows(buf *bytes.Buffer, entries []model.Entry, level int) error {
	for i, e := range entries {
		indent := bytes.Repeat([]byte("  "), level)
		buf.Write(indent)

		label, err := json.MarshalNoEscape(e.Label)
		if err != nil {
			return err
		}
		link := []byte("null")
		if e.Link != "" {
			if link, err = json.MarshalNoEscape(e.Link); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "[ %s, %s, ", label, link)

		if e.IsLeaf() {
			buf.WriteString("null ]")
		} else {
			buf.WriteString("[\n")
			if err := writeRows(buf, e.Children, level+1); err != nil {
				return err
			}
			buf.Write(indent)
			buf.WriteString("] ]")
		}
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	return nil
}
