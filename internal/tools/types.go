// In file: internal/tools/types.go

// Package tools defines the registration surface of the gateway: a universal
// definition for a callable tool and a registry of executable tools that the
// MCP and HTTP layers dispatch into. Tool definitions are derived from remote
// Wordware flow metadata rather than declared in code.
package tools

import "wordware-gateway/internal/wordware"

// Tool is the caller-facing definition of one registered tool.
type Tool struct {
	// Name is the normalized name the tool is invocable under.
	Name string `json:"name"`
	// Description is the human-readable description, prefixed with the
	// tool's input schema so a calling agent can see the expected shape.
	Description string `json:"description"`
	// Parameters is the JSON Schema for the tool's effective parameters.
	// For kwargs-wrapped flows this is the inner schema: callers pass the
	// nested properties as if they were top-level.
	Parameters *wordware.Schema `json:"parameters"`
}
