// In file: internal/wordware/submit.go
package wordware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// --- API Data Structures ---

type runRequest struct {
	Data runRequestData `json:"data"`
}

type runRequestData struct {
	Type       string               `json:"type"`
	Attributes runRequestAttributes `json:"attributes"`
}

type runRequestAttributes struct {
	Version  string         `json:"version"`
	Inputs   map[string]any `json:"inputs"`
	Webhooks []string       `json:"webhooks"`
}

type runResponse struct {
	Data struct {
		Links struct {
			Stream string `json:"stream"`
		} `json:"links"`
	} `json:"data"`
}

// submitRun starts one remote asynchronous run for a tool with inputs that
// have already been normalized, and returns the stream URL for the run's
// event channel. The returned URL is a single-use handle: it is consumed
// exactly once by consumeStream and then discarded.
func (c *Client) submitRun(ctx context.Context, toolID string, inputs map[string]any) (string, error) {
	payload := runRequest{
		Data: runRequestData{
			Type: "runs",
			Attributes: runRequestAttributes{
				Version:  c.runVersion,
				Inputs:   inputs,
				Webhooks: []string{},
			},
		},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run request payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/apps/%s/runs", c.apiURL, toolID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create run request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("run submission request failed: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn("failed to close run response body", zap.Error(err))
	}
	if readErr != nil {
		return "", fmt.Errorf("failed to read run response body: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamHTTPError{Op: "run submission", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var runResp runResponse
	if err := json.Unmarshal(body, &runResp); err != nil {
		return "", &NoStreamURLError{Response: string(body)}
	}
	streamURL := runResp.Data.Links.Stream
	if streamURL == "" {
		return "", &NoStreamURLError{Response: string(body)}
	}

	c.logger.Debug("run submitted", zap.String("tool_id", toolID), zap.String("stream_url", streamURL))
	return streamURL, nil
}
