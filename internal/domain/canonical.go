package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/trip-planner/internal/textutil"
)

// The XxxFromCanonical decoders accept the trees produced by Canonical() after
// they have been through JSON, and also the text-leaf trees produced by the
// CSV export where every scalar is a string. These helpers do the lenient
// conversions for both shapes. A missing key or nil value yields the zero value.

func canonicalString(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64, int, int64, json.Number, bool:
		return fmt.Sprint(v), nil
	default:
		return "", validationf("%s: expected text, got %T", key, v)
	}
}

func canonicalFloat(m map[string]any, key string) (float64, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, validationf("%s: %v", key, err)
		}
		return f, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, validationf("%s: %q is not a number", key, v)
		}
		return f, nil
	default:
		return 0, validationf("%s: expected number, got %T", key, v)
	}
}

// canonicalInt parses text and json.Number leaves as integers directly so
// counts above 2^53 keep every digit.
func canonicalInt(m map[string]any, key string) (int, error) {
	var raw string
	switch v := m[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
		if raw == "" {
			return 0, nil
		}
	default:
		f, err := canonicalFloat(m, key)
		if err != nil {
			return 0, err
		}
		if !finite(f) || f != float64(int(f)) {
			return 0, validationf("%s: %v is not a whole number", key, f)
		}
		return int(f), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationf("%s: %q is not a whole number", key, raw)
	}
	return n, nil
}

func canonicalTime(m map[string]any, key string) (time.Time, error) {
	switch v := m[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v.UTC(), nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := textutil.ParseDate(v)
		if err != nil {
			return time.Time{}, validationf("%s: %v", key, err)
		}
		return t, nil
	default:
		return time.Time{}, validationf("%s: expected date, got %T", key, v)
	}
}

func canonicalList(m map[string]any, key string) ([]map[string]any, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, validationf("%s[%d]: expected object, got %T", key, i, item)
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, validationf("%s: expected list, got %T", key, v)
	}
}

// FormatFloat renders f in the shortest form that parses back to the same value.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
