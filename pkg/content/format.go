// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package content serializes artifact documents before they are written to
// the cluster bucket.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrUnsupportedContent = errors.New("unsupported content for pass-through upload")
)

// Format selects how a document is rendered.
type Format int

const (
	// FormatNone leaves the document untouched.
	FormatNone Format = iota
	FormatYAML
	FormatJSON
	FormatMinifiedJSON
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatMinifiedJSON:
		return "minified-json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses the textual form used on the command line and in config files.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FormatNone, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "minified-json", "minified_json":
		return FormatMinifiedJSON, nil
	default:
		return FormatNone, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatContent renders content in the given format. The rendered text is
// returned as a string; FormatNone returns content unchanged.
func FormatContent(content any, f Format) (any, error) {
	if f == FormatNone {
		return content, nil
	}
	b, err := render(content, f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Encode returns the bytes to store for content. With FormatNone the content
// must already be a body: []byte, string or io.Reader.
func Encode(content any, f Format) ([]byte, error) {
	if f != FormatNone {
		return render(content, f)
	}
	switch v := content.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		b, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("read content: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedContent, content)
	}
}

// Decode parses a YAML or JSON document into a generic map.
func Decode(data []byte, f Format) (map[string]any, error) {
	out := map[string]any{}
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON, FormatMinifiedJSON:
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot decode %s", ErrUnsupportedFormat, f)
	}
	return out, nil
}

func render(content any, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return marshalYAML(content)
	case FormatJSON:
		b, err := marshalJSON(content)
		if err != nil {
			return nil, err
		}
		return spaceSeparators(b), nil
	case FormatMinifiedJSON:
		return marshalJSON(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func marshalYAML(content any) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(content); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	unquoteShortBools(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// shortBools are the YAML 1.1 one-letter booleans. yaml.v3 quotes them, but
// they read back as strings in both YAML 1.1 and 1.2 parsers, so they are
// written plain. Longer forms such as yes and off stay quoted.
var shortBools = map[string]struct{}{"y": {}, "Y": {}, "n": {}, "N": {}}

func unquoteShortBools(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && n.Style == yaml.DoubleQuotedStyle {
		if _, ok := shortBools[n.Value]; ok {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		unquoteShortBools(c)
	}
}

// marshalJSON produces compact JSON without HTML escaping.
func marshalJSON(content any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(content); err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// spaceSeparators rewrites compact JSON to use ", " and ": " between tokens.
// Bytes inside string literals are copied verbatim.
func spaceSeparators(compact []byte) []byte {
	out := make([]byte, 0, len(compact)+len(compact)/4)
	inString := false
	escaped := false
	for _, c := range compact {
		out = append(out, c)
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
		case ',', ':':
			out = append(out, ' ')
		}
	}
	return out
}
