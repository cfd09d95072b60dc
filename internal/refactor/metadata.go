// Package refactor implements the note refactoring engine: heading-level
// splitting, new-note content assembly, preamble metadata extraction and
// template rendering.
package refactor

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// MetadataTerminator ends the metadata preamble of a note.
const MetadataTerminator = "***"

var metadataLineRe = regexp.MustCompile(`^([\w\s]+)\s*:\s*(.+)$`)

// Metadata is an insertion-ordered set of preamble properties.
// Setting an existing key replaces its value but keeps its position.
type Metadata struct {
	keys   []string
	values map[string]string
}

// NewMetadata returns an empty Metadata.
func NewMetadata() Metadata {
	return Metadata{values: make(map[string]string)}
}

// Set inserts or overwrites key.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of properties.
func (m Metadata) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// IsNil reports whether m was never initialised. An empty but initialised
// Metadata is not nil.
func (m Metadata) IsNil() bool {
	return m.values == nil
}

// Map returns a copy of the properties as a plain map.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.keys))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the properties as an object in insertion order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of string values, preserving key order.
// A JSON null leaves m unchanged.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("refactor: metadata must be a JSON object")
	}
	*m = NewMetadata()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Set(kt.(string), v)
	}
	_, err = dec.Token()
	return err
}

// ExtractMetadata scans the leading lines of document for "Key: Value"
// pairs and stops at the first line that trims to "***". Lines that do not
// look like a pair are skipped. It never fails.
func ExtractMetadata(document string) Metadata {
	md := NewMetadata()
	for _, line := range strings.Split(document, "\n") {
		if strings.TrimSpace(line) == MetadataTerminator {
			break
		}
		match := metadataLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		md.Set(strings.TrimSpace(match[1]), strings.TrimSpace(match[2]))
	}
	return md
}
