// In file: internal/wordware/errors.go
package wordware

import "fmt"

// The error taxonomy below is deliberately scoped: none of these is fatal to
// the process. A MetadataFetchError skips one tool during registration, the
// submission and stream errors fail one invocation, and a timeout is not an
// error at all (it produces a best-effort partial result).

// MetadataFetchError signals that tool resolution failed, either because the
// metadata call errored or because the payload lacked the expected "data"
// envelope.
type MetadataFetchError struct {
	ToolID string
	Reason string
	Err    error
}

func (e *MetadataFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch metadata for tool %s: %s: %v", e.ToolID, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to fetch metadata for tool %s: %s", e.ToolID, e.Reason)
}

func (e *MetadataFetchError) Unwrap() error { return e.Err }

// UpstreamHTTPError is returned when the Wordware API answers with a
// non-success status. It carries the status code and body text for
// diagnostics.
type UpstreamHTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("wordware API error during %s: status %d, body: %s", e.Op, e.StatusCode, e.Body)
}

// NoStreamURLError is returned when a run submission succeeds at the HTTP
// level but the response carries no stream link. The raw response is kept for
// diagnostics.
type NoStreamURLError struct {
	Response string
}

func (e *NoStreamURLError) Error() string {
	return fmt.Sprintf("run submission response contains no stream URL: %s", e.Response)
}

// StreamTransportError is a connection-level failure while opening or reading
// the event stream. Any partial accumulation is discarded when this is
// returned.
type StreamTransportError struct {
	URL string
	Err error
}

func (e *StreamTransportError) Error() string {
	return fmt.Sprintf("stream transport failure for %s: %v", e.URL, e.Err)
}

func (e *StreamTransportError) Unwrap() error { return e.Err }
