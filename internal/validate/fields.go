package validate

import (
	"fmt"
	"strconv"
	"strings"
)

// strSpec describes one required string field: its key in the raw item and
// the rune cap applied after coercion.
type strSpec struct {
	key string
	max int
}

// requiredStrings checks that every spec key is present, coerces each value
// to a string and truncates it to the spec's bound. ok is false when any key
// is missing; empty values are returned as-is and left for the caller to
// judge, since some fields tolerate emptiness after trimming.
func requiredStrings(item map[string]any, specs []strSpec) (map[string]string, bool) {
	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		v, present := item[spec.key]
		if !present {
			return nil, false
		}
		out[spec.key] = truncate(stringValue(v), spec.max)
	}
	return out, true
}

// stringValue coerces a decoded JSON value to a string
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// Avoid the "1e+06" form for large whole numbers
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// intValue coerces a decoded JSON value to an int, accepting numeric strings
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// clampedInt reads item[key] as an int clamped to [lo, hi], falling back to
// def when the field is absent or non-numeric.
func clampedInt(item map[string]any, key string, lo, hi, def int) int {
	n, ok := intValue(item[key])
	if !ok {
		return def
	}
	return clamp(n, lo, hi)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
