// In file: internal/wordware/stream_test.go
package wordware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer serves a fixed sequence of raw stream lines.
func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}))
}

func TestConsumeStreamValuesThenCompleted(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "value", "path": "a", "value": "alpha"}`,
		``,
		`data: {"type": "value", "path": "b", "value": {"n": 2}}`,
		``,
		`data: {"type": "status", "status": "completed"}`,
		`data: {"type": "value", "path": "after", "value": "never read"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": "alpha",
		"b": map[string]any{"n": float64(2)},
	}, output)
}

func TestConsumeStreamLastWriteWinsPerPath(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "value", "path": "a", "value": "first"}`,
		`data: {"type": "value", "path": "a", "value": "second"}`,
		`data: {"type": "status", "status": "completed"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "second"}, output)
}

func TestConsumeStreamDeltaFallbackOnAbruptEnd(t *testing.T) {
	// Only text deltas arrive and the stream ends with no completion
	// signal: the accumulated text is the output.
	srv := sseServer(t,
		`data: {"type": "delta", "path": "c", "delta": {"type": "text", "value": "Hel"}}`,
		`data: {"type": "delta", "path": "c", "delta": {"type": "text", "value": "lo"}}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"c": "Hello"}, output)
}

func TestConsumeStreamValuesSuppressDeltas(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "delta", "path": "c", "delta": {"type": "text", "value": "ignored"}}`,
		`data: {"type": "value", "path": "a", "value": "kept"}`,
		`data: {"type": "status", "status": "completed"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "kept"}, output)
	assert.NotContains(t, output, "c")
}

func TestConsumeStreamIgnoresNonTextDeltas(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "delta", "path": "c", "delta": {"type": "image", "value": "binary"}}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestConsumeStreamRunCompletedEvent(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "value", "path": "a", "value": "alpha"}`,
		`data: {"type": "wordware.v1.run.completed", "data": {"output": {"answer": 42}}}`,
		`data: {"type": "value", "path": "after", "value": "never read"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"answer": float64(42)}, output[CompletionOutputPath])
	assert.Equal(t, "alpha", output["a"])
	assert.NotContains(t, output, "after")
}

func TestConsumeStreamSkipsMalformedLines(t *testing.T) {
	srv := sseServer(t,
		`data: {not json at all`,
		`data: plain text, no payload`,
		`: comment line`,
		`data: {"type": "value", "path": "a", "value": "ok"}`,
		`data: {"type": "status", "status": "completed"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "ok"}, output)
}

func TestConsumeStreamUnknownEventTypesIgnored(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "heartbeat"}`,
		`data: {"type": "status", "status": "running"}`,
		`data: {"type": "value", "path": "a", "value": 1}`,
		`data: {"type": "status", "status": "completed"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, output)
}

func TestConsumeStreamValueWithoutPathUsesSentinel(t *testing.T) {
	srv := sseServer(t,
		`data: {"type": "value", "value": "stray"}`,
		`data: {"type": "status", "status": "completed"}`,
	)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"unknown path": "stray"}, output)
}

func TestConsumeStreamEmptyStreamIsValid(t *testing.T) {
	srv := sseServer(t)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, output)
}

func TestConsumeStreamFailsOnNonSuccessOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stream gone", http.StatusGone)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.consumeStream(context.Background(), srv.URL)
	var transportErr *StreamTransportError
	require.ErrorAs(t, err, &transportErr)
	var httpErr *UpstreamHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusGone, httpErr.StatusCode)
}

func TestConsumeStreamTimeoutKeepsPartialState(t *testing.T) {
	// The server delivers one value, then goes silent for longer than the
	// budget while holding the connection open. The budget must produce a
	// graceful partial result, never an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\": \"value\", \"path\": \"a\", \"value\": \"partial\"}\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, WithStreamBudget(200*time.Millisecond))
	start := time.Now()
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "partial"}, output)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConsumeStreamDeadlineCheckedPerLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\": \"value\", \"path\": \"a\", \"value\": 1}\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(150 * time.Millisecond)
		// Arrives after the budget: the inline check stops processing.
		fmt.Fprint(w, "data: {\"type\": \"value\", \"path\": \"b\", \"value\": 2}\n")
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, WithStreamBudget(50*time.Millisecond))
	output, err := client.consumeStream(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, float64(1), output["a"])
	assert.NotContains(t, output, "b")
}
