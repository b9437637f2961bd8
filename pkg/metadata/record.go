// Package metadata reads and writes question metadata files (info.json).
//
// Records keep the key order of the source document so that rewriting a single
// field produces a minimal diff.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultIndent matches the indentation used by course repositories.
const DefaultIndent = "    "

// Record is a JSON object whose members keep their source order.
type Record struct {
	keys            []string
	values          map[string]json.RawMessage
	trailingNewline bool
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]json.RawMessage)}
}

// Parse decodes a JSON object. Duplicate keys keep their first position and
// last value.
func Parse(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("invalid JSON: top-level value is not an object")
	}

	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}
		rec.Set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid JSON: trailing data after object")
	}

	rec.trailingNewline = bytes.HasSuffix(bytes.TrimRight(data, " \t\r"), []byte("\n"))
	return rec, nil
}

// Keys returns member names in document order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Has reports whether key is a member of the record.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Get returns the raw value stored under key.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores raw under key, appending the key when it is new.
func (r *Record) Set(key string, raw json.RawMessage) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = raw
}

// SetString stores a JSON string value under key.
func (r *Record) SetString(key, value string) error {
	raw, err := encodeCompact(value)
	if err != nil {
		return err
	}
	r.Set(key, raw)
	return nil
}

// String returns the string value stored under key.
func (r *Record) String(key string) (string, error) {
	raw, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("key %q not found", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("key %q is not a string: %w", key, err)
	}
	return s, nil
}

// Object returns the nested object stored under key.
func (r *Record) Object(key string) (*Record, error) {
	raw, ok := r.values[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	nested, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", key, err)
	}
	return nested, nil
}

// SetObject stores nested under key.
func (r *Record) SetObject(key string, nested *Record) error {
	raw, err := nested.MarshalJSON()
	if err != nil {
		return err
	}
	r.Set(key, raw)
	return nil
}

// MarshalJSON encodes the record compactly in member order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := encodeCompact(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(r.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the record with the given indent. HTML characters are not
// escaped and the trailing newline of the source document is kept.
func (r *Record) Encode(indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if !r.trailingNewline {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}
	return out, nil
}

func encodeCompact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
