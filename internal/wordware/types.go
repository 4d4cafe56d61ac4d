// In file: internal/wordware/types.go

// Package wordware implements the client side of the Wordware flow-execution
// API: tool metadata resolution, input normalization, run submission, and
// consumption of the run's server-sent event stream into a single
// materialized result.
package wordware

import "sync"

// Schema is a structured representation of the JSON Schema fragments the
// Wordware API uses to describe a tool's inputs. Using this struct instead of
// `map[string]interface{}` keeps the unwrap logic type-safe.
type Schema struct {
	// Type is the data type for a schema node (e.g., "object", "string").
	Type string `json:"type,omitempty"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Properties maps parameter names to their own schema definitions.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Required lists the parameter names that are mandatory.
	Required []string `json:"required,omitempty"`
}

// Descriptor holds everything the gateway needs to know about one remote
// tool: its identity, the name it is exposed under, and how its inputs must
// be shaped before submission.
type Descriptor struct {
	// ID is the opaque Wordware app identifier.
	ID string
	// Name is the derived, registration-friendly tool name. Uniqueness is
	// not enforced here; collisions are the registration layer's concern.
	Name string
	// Description is the free-text description from the tool metadata.
	Description string
	// InputSchema is the declared top-level input schema.
	InputSchema *Schema
	// Parameters is the effective parameter list presented to callers. When
	// RequiresKwargsWrapper is true these are the properties nested inside
	// the single "kwargs" container; otherwise they are the top-level
	// properties.
	Parameters map[string]*Schema
	// RequiresKwargsWrapper records whether flat caller arguments must be
	// re-wrapped under a single "kwargs" key at invocation time.
	RequiresKwargsWrapper bool
}

// Result is the terminal outcome of one tool invocation. Exactly one of
// Error / Output is meaningful: a non-empty Error means the run failed before
// producing usable output.
type Result struct {
	// Error is the failure reason, surfaced verbatim to the caller.
	Error string `json:"error,omitempty"`
	// Output maps stream paths to their final values. The reserved path
	// "completion_output" carries the flow's explicit final payload when a
	// completion event was observed. An empty map is a valid terminal state.
	Output map[string]any `json:"output,omitempty"`
}

// Failed reports whether the invocation ended in an error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// CompletionOutputPath is the reserved output path that carries the flow's
// explicit final payload.
const CompletionOutputPath = "completion_output"

// DescriptorCache is the process-wide store of resolved tool descriptors,
// written once per tool during the registration phase and read on every
// subsequent invocation. It is an explicit object passed to the components
// that need it rather than a hidden package-level singleton.
type DescriptorCache struct {
	mu   sync.RWMutex
	byID map[string]*Descriptor
}

// NewDescriptorCache creates an empty descriptor cache.
func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{byID: make(map[string]*Descriptor)}
}

// Get returns the cached descriptor for a tool ID, if one was resolved.
func (c *DescriptorCache) Get(toolID string) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[toolID]
	return d, ok
}

// Put stores a resolved descriptor, replacing any previous entry.
func (c *DescriptorCache) Put(d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[d.ID] = d
}

// Len returns the number of cached descriptors.
func (c *DescriptorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
