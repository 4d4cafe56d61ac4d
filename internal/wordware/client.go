// In file: internal/wordware/client.go
package wordware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultAPIURL     = "https://api.wordware.ai"
	defaultRunVersion = "1.0"

	// requestTimeout bounds the metadata and submission calls. The stream
	// connection is bounded by the run budget instead, so it uses a client
	// without a fixed timeout.
	requestTimeout = 30 * time.Second
)

// Client talks to the Wordware flow-execution API. Each invocation owns its
// own stream connection; the only state shared across invocations is the
// descriptor cache, written once per tool during registration.
type Client struct {
	apiURL       string
	apiKey       string
	runVersion   string
	streamBudget time.Duration
	// retryStream enables a single best-effort reconnect with a fresh
	// connection after a mid-stream transport failure. Off by default.
	retryStream bool

	httpClient   *http.Client
	streamClient *http.Client
	cache        *DescriptorCache
	logger       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the API base URL.
func WithAPIURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.apiURL = url
		}
	}
}

// WithRunVersion sets the flow version requested on every run submission.
func WithRunVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.runVersion = version
		}
	}
}

// WithStreamBudget sets the wall-clock budget for consuming one run's event
// stream.
func WithStreamBudget(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.streamBudget = d
		}
	}
}

// WithStreamRetry enables the single best-effort reconnect after a
// mid-stream transport failure.
func WithStreamRetry() Option {
	return func(c *Client) { c.retryStream = true }
}

// WithLogger sets the structured logger used by the client.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Wordware API client. The API key is treated as an
// opaque string, validated only by the remote service's response codes.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiURL:       defaultAPIURL,
		apiKey:       apiKey,
		runVersion:   defaultRunVersion,
		streamBudget: defaultStreamBudget,
		httpClient:   &http.Client{Timeout: requestTimeout},
		streamClient: &http.Client{},
		cache:        NewDescriptorCache(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the descriptor cache for layers that need read access to
// resolved descriptors.
func (c *Client) Cache() *DescriptorCache {
	return c.cache
}

// Invoke runs one tool end to end: normalize the raw caller arguments
// against the tool's cached wrapping mode, submit the run, consume its event
// stream under the time budget, and materialize a single result. Every
// failure is scoped to this invocation and reported through Result.Error;
// Invoke itself never panics and never returns an error.
func (c *Client) Invoke(ctx context.Context, toolID string, rawArgs map[string]any) *Result {
	invocationID := uuid.NewString()
	logger := c.logger.With(zap.String("tool_id", toolID), zap.String("invocation_id", invocationID))

	requiresWrapper := false
	if d, ok := c.cache.Get(toolID); ok {
		requiresWrapper = d.RequiresKwargsWrapper
	}

	inputs := NormalizeInputs(rawArgs, requiresWrapper)
	logger.Info("submitting run", zap.Bool("kwargs_wrapper", requiresWrapper), zap.Int("inputs", len(inputs)))

	streamURL, err := c.submitRun(ctx, toolID, inputs)
	if err != nil {
		logger.Error("run submission failed", zap.Error(err))
		return &Result{Error: err.Error()}
	}

	output, err := c.consumeStream(ctx, streamURL)
	if err != nil {
		var transportErr *StreamTransportError
		if c.retryStream && errors.As(err, &transportErr) {
			logger.Warn("stream transport failed, reconnecting once", zap.Error(err))
			output, err = c.consumeStream(ctx, streamURL)
		}
	}
	if err != nil {
		logger.Error("stream consumption failed", zap.Error(err))
		return &Result{Error: err.Error()}
	}

	logger.Info("run finished", zap.Int("output_paths", len(output)))
	return &Result{Output: output}
}
