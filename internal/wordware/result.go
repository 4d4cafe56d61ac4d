// In file: internal/wordware/result.go
package wordware

import "encoding/json"

// Materialize decides what a caller-facing layer should treat as "the
// answer", in priority order: an error is surfaced verbatim; an explicit
// completion_output is the primary payload; otherwise the entire output
// mapping is the answer and no single path is privileged.
//
// Answer reports whether a single primary payload was found. When it is
// false and the result did not fail, the caller should present every path of
// Output as meaningful data.
func (r *Result) Answer() (string, bool) {
	if r.Failed() {
		return r.Error, true
	}
	completion, ok := r.Output[CompletionOutputPath]
	if !ok {
		return "", false
	}
	return renderCompletion(completion), true
}

// renderCompletion flattens the completion payload: strings pass through
// verbatim, a {"result": ...} map is unwrapped, and any other structured
// data is the authoritative final object, JSON-encoded.
func renderCompletion(completion any) string {
	switch v := completion.(type) {
	case string:
		return v
	case map[string]any:
		if inner, ok := v["result"].(string); ok {
			return inner
		}
	}
	encoded, err := json.MarshalIndent(completion, "", "  ")
	if err != nil {
		return "received completion data that cannot be displayed"
	}
	return string(encoded)
}
