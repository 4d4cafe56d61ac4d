// In file: internal/wordware/normalize.go
package wordware

import (
	"encoding/json"
	"strings"
)

// Caller-supplied arguments frequently arrive with quoting artifacts from the
// upstream agent: keys and string values wrapped in backticks, or the entire
// argument set serialized as a JSON string under a single "kwargs" key. The
// normalizer canonicalizes all of that before the run is submitted.

// NormalizeInputs produces the exact argument mapping to send to the remote
// API, given the raw caller arguments and the tool's cached wrapping mode.
//
// The special {"kwargs": "<json string>"} shape is unwrapped first; for that
// shape a parse failure keeps the original single-key set untouched. All
// other argument sets have backticks stripped from keys and string values.
// If the tool's schema requires the kwargs wrapper, the cleaned arguments are
// nested back under a single "kwargs" key.
func NormalizeInputs(args map[string]any, requiresWrapper bool) map[string]any {
	cleaned := normalizeArgs(args)
	if requiresWrapper {
		return map[string]any{"kwargs": cleaned}
	}
	return cleaned
}

// normalizeArgs canonicalizes the caller arguments without applying the
// wrapping mode.
func normalizeArgs(args map[string]any) map[string]any {
	if isKwargsString(args) {
		if parsed, ok := parseKwargsString(args); ok {
			return parsed
		}
		// Parse failure is not an error: hand the original set through.
		return args
	}

	cleaned := make(map[string]any, len(args))
	for key, value := range args {
		cleanKey := strings.Trim(key, "`")
		if s, ok := value.(string); ok {
			cleaned[cleanKey] = strings.Trim(s, "`")
		} else {
			cleaned[cleanKey] = value
		}
	}
	return cleaned
}

// isKwargsString reports whether the caller passed exactly one argument named
// "kwargs" whose value is a string.
func isKwargsString(args map[string]any) bool {
	if len(args) != 1 {
		return false
	}
	_, ok := args["kwargs"].(string)
	return ok
}

// parseKwargsString unwraps the {"kwargs": "<json string>"} shape: the string
// has backticks stripped and, if it is syntactically a JSON object, its
// parsed fields become the actual argument set.
func parseKwargsString(args map[string]any) (map[string]any, bool) {
	raw, _ := args["kwargs"].(string)
	stripped := strings.Trim(raw, "`")
	if !strings.HasPrefix(stripped, "{") || !strings.HasSuffix(stripped, "}") {
		return nil, false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}
