package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Tolerant converters for raw submission values. Organizations encode numbers
// and dates inconsistently, so these accept the common JSON shapes and return
// the zero value rather than failing.

// AsString returns v as a trimmed string, or "" when it is not a string.
func AsString(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// AsStringSlice returns the string entries of v, which may be a []interface{}
// or a single string. Non-string entries are dropped.
func AsStringSlice(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

// AsInt converts v to an int. Negative results are kept; callers clamp.
func AsInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}

// AsInt64 converts v to an int64.
func AsInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	}
	return 0
}

// AsFloat converts v to a float64.
func AsFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}

// AsMap returns v as a map, or nil.
func AsMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// timeLayouts are tried in order when parsing submitted timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseTime parses a submitted timestamp string. It accepts RFC3339 variants,
// bare dates, and unix second/millisecond epochs. The second return value is
// false when the input cannot be interpreted as a time.
func ParseTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		// 13-digit epochs are milliseconds.
		if epoch > 9999999999 {
			return time.Unix(epoch/1000, (epoch%1000)*1000000).UTC(), true
		}
		return time.Unix(epoch, 0).UTC(), true
	}
	return time.Time{}, false
}
