// In file: internal/wordware/stream.go
package wordware

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// defaultStreamBudget is the wall-clock budget for consuming one run's
	// event stream. Hitting it is not an error: the consumer finalizes with
	// whatever has accumulated so far.
	defaultStreamBudget = 180 * time.Second

	// unknownPathSentinel is the path assigned to value/delta events that
	// arrive without one.
	unknownPathSentinel = "unknown path"

	// eventTypeRunCompleted is the versioned event type that signals the
	// remote flow's terminal payload.
	eventTypeRunCompleted = "wordware.v1.run.completed"

	// Stream lines carry entire value payloads, which can far exceed
	// bufio.Scanner's default token limit.
	streamScanBufferSize  = 64 * 1024
	streamScanMaxLineSize = 8 * 1024 * 1024
)

// --- Wire Format ---

type streamEvent struct {
	Type   string           `json:"type"`
	Path   string           `json:"path,omitempty"`
	Value  json.RawMessage  `json:"value,omitempty"`
	Delta  *streamDelta     `json:"delta,omitempty"`
	Status string           `json:"status,omitempty"`
	Data   *completionEvent `json:"data,omitempty"`
}

type streamDelta struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type completionEvent struct {
	Output json.RawMessage `json:"output,omitempty"`
}

// eventKind is the closed enumeration of event kinds the consumer knows
// about, plus an explicit unknown variant. Classifying the wire type string
// once keeps the dispatch switch exhaustive.
type eventKind int

const (
	eventUnknown eventKind = iota
	eventValue
	eventDelta
	eventStatus
	eventRunCompleted
)

func classifyEvent(wireType string) eventKind {
	switch wireType {
	case "value":
		return eventValue
	case "delta":
		return eventDelta
	case "status":
		return eventStatus
	case eventTypeRunCompleted:
		return eventRunCompleted
	default:
		return eventUnknown
	}
}

// --- Accumulator ---

// streamAccumulator collects the two per-run mappings built during stream
// consumption. values is last-write-wins per path; deltas is append-only text
// per path and is used only as a fallback when values stays empty.
type streamAccumulator struct {
	values map[string]any
	deltas map[string]*strings.Builder
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{
		values: make(map[string]any),
		deltas: make(map[string]*strings.Builder),
	}
}

func (a *streamAccumulator) setValue(path string, raw json.RawMessage) {
	if path == "" {
		path = unknownPathSentinel
	}
	var value any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}
	}
	a.values[path] = value
}

func (a *streamAccumulator) appendDelta(path, text string) {
	if path == "" {
		path = unknownPathSentinel
	}
	b, ok := a.deltas[path]
	if !ok {
		b = &strings.Builder{}
		a.deltas[path] = b
	}
	b.WriteString(text)
}

// finalize produces the terminal output mapping. Deltas are merged in only
// when no value event was ever received; an empty map is a valid terminal
// state, not an error.
func (a *streamAccumulator) finalize() map[string]any {
	if len(a.values) == 0 {
		for path, b := range a.deltas {
			a.values[path] = b.String()
		}
	}
	return a.values
}

// --- Consumer ---

// consumeStream connects to a run's event stream and processes it to a
// terminal state: COMPLETED (explicit status or run-completion event),
// TIMED_OUT (budget exceeded, graceful), or FAILED (transport fault, error
// returned and accumulation discarded).
//
// The deadline is checked inline once per received line, and the stream
// request additionally carries a context deadline of the same budget so a
// stream that stops sending lines entirely is still bounded. The connection
// is closed on every exit path.
func (c *Client) consumeStream(ctx context.Context, streamURL string) (map[string]any, error) {
	deadline := time.Now().Add(c.streamBudget)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, &StreamTransportError{URL: streamURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, &StreamTransportError{URL: streamURL, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close stream body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return nil, &StreamTransportError{
			URL: streamURL,
			Err: &UpstreamHTTPError{Op: "stream open", StatusCode: resp.StatusCode, Body: string(body)},
		}
	}

	acc := newStreamAccumulator()
	completed := false
	timedOut := false

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, streamScanBufferSize), streamScanMaxLineSize)

scanLoop:
	for scanner.Scan() {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || !strings.HasPrefix(data, "{") {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// A malformed line is recovered locally: skip it, keep reading.
			c.logger.Warn("skipping malformed stream event", zap.Error(err), zap.String("data", data))
			continue
		}

		switch classifyEvent(event.Type) {
		case eventValue:
			acc.setValue(event.Path, event.Value)
		case eventDelta:
			if event.Delta != nil && event.Delta.Type == "text" {
				acc.appendDelta(event.Path, event.Delta.Value)
			}
		case eventStatus:
			if event.Status == "completed" {
				completed = true
				break scanLoop
			}
		case eventRunCompleted:
			if event.Data != nil && len(event.Data.Output) > 0 {
				acc.setValue(CompletionOutputPath, event.Data.Output)
			}
			completed = true
			break scanLoop
		case eventUnknown:
			// Other event types carry nothing this layer cares about.
		}
	}

	if err := scanner.Err(); err != nil && !completed && !timedOut {
		// The budget deadline tearing down the read mid-stream is the
		// timeout path, not a transport failure.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			timedOut = true
		} else {
			return nil, &StreamTransportError{URL: streamURL, Err: err}
		}
	}

	if timedOut {
		c.logger.Warn("stream budget exceeded, finalizing with accumulated state",
			zap.Duration("budget", c.streamBudget),
			zap.Int("values", len(acc.values)),
			zap.Int("delta_paths", len(acc.deltas)))
	}

	return acc.finalize(), nil
}
