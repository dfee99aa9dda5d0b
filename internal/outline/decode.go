// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SchemaError reports a value that cannot be coerced to the outline schema,
// or an assembled outline that breaks its structural contract.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("outline field %s: %s", e.Field, e.Reason)
}

// decoder reads loosely-typed JSON values and records every default it applies.
type decoder struct {
	defaults []string
}

func (d *decoder) defaulted(path string) {
	d.defaults = append(d.defaults, path)
}

// lookup returns the first non-null value among keys.
func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func kindOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}

// str coerces v to a string. Numbers and booleans are formatted; objects and
// arrays are rejected.
func str(path string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", &SchemaError{Field: path, Reason: "expected string, got " + kindOf(v)}
}

// num coerces v to a float. Numeric strings are accepted.
func num(path string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &SchemaError{Field: path, Reason: fmt.Sprintf("expected number, got %q", t)}
		}
		return f, nil
	}
	return 0, &SchemaError{Field: path, Reason: "expected number, got " + kindOf(v)}
}

// boolean coerces v to a bool. "true"/"false" strings and numbers are accepted.
func boolean(path string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, &SchemaError{Field: path, Reason: fmt.Sprintf("expected boolean, got %q", t)}
		}
		return b, nil
	}
	return false, &SchemaError{Field: path, Reason: "expected boolean, got " + kindOf(v)}
}

// strList coerces v to a list of strings. A lone string becomes a
// one-element list; empty entries are dropped.
func strList(path string, v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, e := range t {
			if e == nil {
				continue
			}
			s, err := str(fmt.Sprintf("%s[%d]", path, i), e)
			if err != nil {
				return nil, err
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	return nil, &SchemaError{Field: path, Reason: "expected array of strings, got " + kindOf(v)}
}

// list requires v to be an array.
func list(path string, v any) ([]any, error) {
	if t, ok := v.([]any); ok {
		return t, nil
	}
	return nil, &SchemaError{Field: path, Reason: "expected array, got " + kindOf(v)}
}

// object requires v to be a JSON object.
func object(path string, v any) (map[string]any, error) {
	if t, ok := v.(map[string]any); ok {
		return t, nil
	}
	return nil, &SchemaError{Field: path, Reason: "expected object, got " + kindOf(v)}
}

// optString reads a string field, applying def (and recording it) when absent.
func (d *decoder) optString(m map[string]any, path, def string, record bool, keys ...string) (string, error) {
	v, ok := lookup(m, keys...)
	if !ok {
		if record {
			d.defaulted(path)
		}
		return def, nil
	}
	s, err := str(path, v)
	if err != nil {
		return "", err
	}
	if s == "" && def != "" {
		if record {
			d.defaulted(path)
		}
		return def, nil
	}
	return s, nil
}

func (d *decoder) optStrings(m map[string]any, path string, keys ...string) ([]string, error) {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil, nil
	}
	return strList(path, v)
}
