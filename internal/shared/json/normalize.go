package jsonx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DefaultMaxDepth bounds how many nested JSON-in-a-string layers Normalize unwraps.
const DefaultMaxDepth = 10

// Normalize decodes value as JSON, repeatedly, until it settles on something
// that is not a JSON-encoded string. Malformed input is returned unchanged.
func Normalize(value string) any {
	return NormalizeDepth(value, DefaultMaxDepth)
}

// NormalizeDepth is Normalize with an explicit layer cap. A non-positive cap
// falls back to DefaultMaxDepth.
func NormalizeDepth(value string, maxDepth int) any {
	normalized, _ := normalize(value, maxDepth)
	return normalized
}

func normalize(value string, maxDepth int) (any, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	current := value
	parsedOnce := false
	for depth := 0; depth < maxDepth; depth++ {
		var parsed any
		if err := Unmarshal([]byte(current), &parsed); err != nil {
			return current, parsedOnce
		}
		parsedOnce = true
		next, ok := parsed.(string)
		if !ok {
			return parsed, true
		}
		current = next
	}
	return current, parsedOnce
}

// Format pretty-prints value for display. Objects and arrays are indented with
// two spaces, primitives are rendered as a quoted string and input that never
// parsed is returned as-is.
func Format(value string) string {
	return FormatDepth(value, DefaultMaxDepth)
}

// FormatDepth is Format with an explicit normalization cap.
func FormatDepth(value string, maxDepth int) string {
	normalized, parsed := normalize(value, maxDepth)
	if !parsed {
		return value
	}
	return formatNormalized(normalized, value)
}

// FormatLenient behaves like Format but first tries to repair input that does
// not parse, which is the usual state of tool arguments mid-stream.
func FormatLenient(value string) string {
	if _, parsed := normalize(value, DefaultMaxDepth); parsed {
		return Format(value)
	}
	if strings.TrimSpace(value) == "" {
		return value
	}
	repaired, err := jsonrepair.JSONRepair(value)
	if err != nil {
		return value
	}
	normalized, parsed := normalize(repaired, DefaultMaxDepth)
	if !parsed {
		return value
	}
	return formatNormalized(normalized, value)
}

func formatNormalized(normalized any, original string) string {
	switch typed := normalized.(type) {
	case map[string]any, []any, nil:
		out, err := marshalPlain(typed, "  ")
		if err != nil {
			return original
		}
		return string(out)
	default:
		out, err := marshalPlain(primitiveString(typed), "")
		if err != nil {
			return original
		}
		return string(out)
	}
}

func primitiveString(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}

// NormalizeStrings decodes an attribute that should hold a list of strings.
// Positions are preserved: entries that are not strings become "". A bare
// string decodes to a one-element list.
func NormalizeStrings(value string) []string {
	return NormalizeStringsDepth(value, DefaultMaxDepth)
}

// NormalizeStringsDepth is NormalizeStrings with an explicit normalization cap.
func NormalizeStringsDepth(value string, maxDepth int) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	switch typed := NormalizeDepth(value, maxDepth).(type) {
	case []any:
		out := make([]string, len(typed))
		for i, item := range typed {
			if s, ok := item.(string); ok {
				out[i] = s
			}
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		return []string{typed}
	default:
		return nil
	}
}
