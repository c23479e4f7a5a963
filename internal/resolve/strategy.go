package resolve

import (
	"strconv"
	"strings"
	"time"
)

// StringStrategy extracts one logical string field from a raw payload.
// Strategies for a field are evaluated in order; the first non-empty
// match wins. Keeping them as data makes each one testable on its own.
type StringStrategy struct {
	Name    string
	Extract func(raw map[string]any) (string, bool)
}

// TimeStrategy extracts one logical timestamp field from a raw payload.
type TimeStrategy struct {
	Name    string
	Extract func(raw map[string]any) (time.Time, bool)
}

func firstString(raw map[string]any, strategies []StringStrategy) (string, bool) {
	for _, s := range strategies {
		if v, ok := s.Extract(raw); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func firstTime(raw map[string]any, strategies []TimeStrategy) (time.Time, bool) {
	for _, s := range strategies {
		if t, ok := s.Extract(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// asString coerces a JSON scalar to a usable identifier string.
// Numeric ids are common in Gamma payloads.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// stringKey reads a string-ish value at a top-level key.
func stringKey(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", false
	}
	return asString(v)
}

// subMap reads a nested object at a top-level key, nil when absent or
// not an object.
func subMap(raw map[string]any, key string) map[string]any {
	if m, ok := raw[key].(map[string]any); ok {
		return m
	}
	return nil
}

// isoLayouts are tried in order when parsing provider timestamps.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseISO parses the ISO-8601 variants the providers emit. Naive
// timestamps are taken as UTC. Returns false rather than an error:
// an unparseable value is a schema-drift miss, not a failure.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// timeKey reads and parses a timestamp at a top-level key.
func timeKey(raw map[string]any, key string) (time.Time, bool) {
	s, ok := stringKey(raw, key)
	if !ok {
		return time.Time{}, false
	}
	return ParseISO(s)
}
