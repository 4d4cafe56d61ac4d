// In file: internal/wordware/metadata.go
package wordware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// syntheticNamePrefix is used when a tool's title yields an empty derived
// name; the last 8 characters of the tool ID are appended to keep the name
// distinguishable.
const syntheticNamePrefix = "wordware_tool_"

// --- API Data Structures ---

type metadataResponse struct {
	Data *metadataData `json:"data"`
}

type metadataData struct {
	Attributes metadataAttributes `json:"attributes"`
}

type metadataAttributes struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	InputSchema *Schema `json:"inputSchema"`
}

// ResolveTool fetches a tool's metadata, derives its descriptor (name,
// effective parameter list, wrapping mode) and caches it keyed by tool ID.
// Subsequent invocations of the tool read the cached descriptor and never
// re-fetch metadata.
//
// A transport error, non-success status, or a payload without the "data"
// envelope yields a *MetadataFetchError; the caller is expected to skip the
// tool and proceed with the others.
func (c *Client) ResolveTool(ctx context.Context, toolID string) (*Descriptor, error) {
	if d, ok := c.cache.Get(toolID); ok {
		return d, nil
	}

	c.logger.Info("fetching tool metadata", zap.String("tool_id", toolID))

	url := fmt.Sprintf("%s/v1/apps/%s", c.apiURL, toolID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &MetadataFetchError{ToolID: toolID, Reason: "failed to create request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &MetadataFetchError{ToolID: toolID, Reason: "metadata request failed", Err: err}
	}
	body, readErr := io.ReadAll(resp.Body)
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn("failed to close metadata response body", zap.Error(err))
	}
	if readErr != nil {
		return nil, &MetadataFetchError{ToolID: toolID, Reason: "failed to read response body", Err: readErr}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &MetadataFetchError{
			ToolID: toolID,
			Reason: "metadata request failed",
			Err:    &UpstreamHTTPError{Op: "metadata fetch", StatusCode: resp.StatusCode, Body: string(body)},
		}
	}

	var meta metadataResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, &MetadataFetchError{ToolID: toolID, Reason: "failed to unmarshal metadata", Err: err}
	}
	if meta.Data == nil {
		return nil, &MetadataFetchError{ToolID: toolID, Reason: "payload has no data key"}
	}

	d := buildDescriptor(toolID, meta.Data.Attributes)
	if d.RequiresKwargsWrapper {
		c.logger.Info("tool schema has kwargs wrapper, exposing inner properties",
			zap.String("tool_id", toolID), zap.String("name", d.Name))
	}
	c.cache.Put(d)
	return d, nil
}

// buildDescriptor derives the caller-facing descriptor from raw metadata
// attributes.
func buildDescriptor(toolID string, attrs metadataAttributes) *Descriptor {
	d := &Descriptor{
		ID:          toolID,
		Name:        DeriveToolName(attrs.Title, toolID),
		Description: attrs.Description,
		InputSchema: attrs.InputSchema,
	}
	d.RequiresKwargsWrapper = classifySchema(attrs.InputSchema)
	if d.RequiresKwargsWrapper {
		d.Parameters = attrs.InputSchema.Properties["kwargs"].Properties
	} else if attrs.InputSchema != nil {
		d.Parameters = attrs.InputSchema.Properties
	}
	return d
}

// DeriveToolName normalizes a tool title into a registration-friendly name:
// only letters and whitespace are kept, the result is lowercased, and
// whitespace runs become single underscores. An empty result falls back to a
// synthetic name derived from the tool ID.
func DeriveToolName(title, toolID string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(strings.ToLower(b.String())), "_")
	if name == "" {
		tail := toolID
		if len(tail) > 8 {
			tail = tail[len(tail)-8:]
		}
		name = syntheticNamePrefix + tail
	}
	return name
}

// classifySchema decides the wrapping mode for a declared input schema: true
// when the only top-level property is a single "kwargs" container whose
// nested shape declares its own properties.
func classifySchema(schema *Schema) bool {
	if schema == nil || len(schema.Properties) != 1 {
		return false
	}
	inner, ok := schema.Properties["kwargs"]
	return ok && inner != nil && len(inner.Properties) > 0
}
