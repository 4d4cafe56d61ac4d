// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor is the standard interface for any tool the gateway can
// dispatch to. The transport layers (MCP, HTTP) manage and execute tools
// through this interface without knowing how a tool does its work.
type ToolExecutor interface {
	// Definition returns the tool's schema as presented to calling agents.
	Definition() Tool

	// Execute runs the tool. It receives the arguments as a JSON string and
	// returns the caller-facing text result. Invocation-level failures are
	// reported inside the text (every failure is scoped to one call); the
	// error return is reserved for arguments that cannot be decoded at all.
	Execute(ctx context.Context, arguments string) (string, error)
}
