// In file: internal/tools/flow_tool.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wordware-gateway/internal/render"
	"wordware-gateway/internal/wordware"
)

// RunRecorder receives per-tool run outcomes. Implementations must tolerate
// being called concurrently; a nil recorder disables recording.
type RunRecorder interface {
	RecordSuccess(ctx context.Context, toolID string, latency time.Duration)
	RecordFailure(ctx context.Context, toolID string)
}

// FlowTool exposes one resolved Wordware flow as an executable tool. It is
// the dynamic counterpart of a hand-written tool: its definition comes from
// the flow's remote metadata and its execution is a full run of the flow.
type FlowTool struct {
	descriptor *wordware.Descriptor
	client     *wordware.Client
	recorder   RunRecorder
	logger     *zap.Logger
}

var _ ToolExecutor = (*FlowTool)(nil)

// NewFlowTool wraps a resolved descriptor and the shared Wordware client
// into an executable tool. recorder may be nil.
func NewFlowTool(descriptor *wordware.Descriptor, client *wordware.Client, recorder RunRecorder, logger *zap.Logger) *FlowTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlowTool{
		descriptor: descriptor,
		client:     client,
		recorder:   recorder,
		logger:     logger,
	}
}

// ToolID returns the underlying flow's Wordware app identifier.
func (t *FlowTool) ToolID() string {
	return t.descriptor.ID
}

// Definition presents the flow to calling agents. The description leads with
// the effective input schema so the agent sees the exact parameter shape,
// followed by the flow's own description.
func (t *FlowTool) Definition() Tool {
	return Tool{
		Name:        t.descriptor.Name,
		Description: composeDescription(t.descriptor),
		Parameters:  effectiveSchema(t.descriptor),
	}
}

// Execute decodes the JSON arguments, runs the flow, and renders the
// materialized result as Markdown. Run failures come back as rendered error
// text, not as a Go error, so the calling agent always receives a response
// it can relay.
func (t *FlowTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args map[string]any
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", t.descriptor.Name, err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	t.logger.Info("executing flow tool",
		zap.String("tool", t.descriptor.Name),
		zap.String("tool_id", t.descriptor.ID))

	start := time.Now()
	result := t.client.Invoke(ctx, t.descriptor.ID, args)
	t.record(ctx, result, time.Since(start))

	return render.Result(t.descriptor.Name, result), nil
}

func (t *FlowTool) record(ctx context.Context, result *wordware.Result, latency time.Duration) {
	if t.recorder == nil {
		return
	}
	if result.Failed() {
		t.recorder.RecordFailure(ctx, t.descriptor.ID)
	} else {
		t.recorder.RecordSuccess(ctx, t.descriptor.ID, latency)
	}
}

// composeDescription builds the composite description: schema first, then
// the flow's free-text description.
func composeDescription(d *wordware.Descriptor) string {
	schemaJSON, err := json.MarshalIndent(d.Parameters, "", "  ")
	if err != nil {
		schemaJSON = []byte("{}")
	}
	return fmt.Sprintf("## Input Schema\n\n```json\n%s\n```\n\n## Description\n\n%s", schemaJSON, d.Description)
}

// effectiveSchema returns the parameter schema callers should satisfy: the
// nested kwargs schema for wrapped flows, the declared schema otherwise.
func effectiveSchema(d *wordware.Descriptor) *wordware.Schema {
	if d.InputSchema == nil {
		return &wordware.Schema{Type: "object"}
	}
	if d.RequiresKwargsWrapper {
		if inner := d.InputSchema.Properties["kwargs"]; inner != nil {
			return inner
		}
	}
	return d.InputSchema
}
