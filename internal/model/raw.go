package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RawPosting is one loosely-typed record as yielded by a source adapter.
// Key casing and nesting vary per source; lookups are case-insensitive and
// accept dotted paths such as "company.name".
type RawPosting map[string]any

// Get resolves a dotted path against the posting.
func (r RawPosting) Get(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := lookupFold(m, part)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, cur != nil
}

// String returns the first non-empty scalar found among paths, trimmed.
func (r RawPosting) String(paths ...string) string {
	for _, p := range paths {
		v, ok := r.Get(p)
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

// Strings collects string values found at paths. Arrays are flattened;
// objects inside arrays contribute their "value" or "name" field.
func (r RawPosting) Strings(paths ...string) []string {
	var out []string
	for _, p := range paths {
		v, ok := r.Get(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				if m, ok := asMap(item); ok {
					if s := RawPosting(m).String("value", "name", "text"); s != "" {
						out = append(out, s)
					}
					continue
				}
				if s := scalarString(item); s != "" {
					out = append(out, s)
				}
			}
		case []string:
			for _, s := range t {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		default:
			if s := scalarString(t); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Float returns the first numeric value found among paths.
func (r RawPosting) Float(paths ...string) (float64, bool) {
	for _, p := range paths {
		v, ok := r.Get(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t, true
		case float32:
			return float64(t), true
		case int:
			return float64(t), true
		case int64:
			return float64(t), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case RawPosting:
		return map[string]any(t), true
	}
	return nil, false
}

func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64, bool:
		return fmt.Sprint(t)
	}
	return ""
}
