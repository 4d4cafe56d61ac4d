// In file: internal/tools/manager.go
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds every tool registered during the startup phase. Name
// uniqueness is not guaranteed by the metadata layer, so a later
// registration under the same name replaces the earlier one.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolExecutor
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ToolExecutor),
	}
}

// Register adds a tool to the registry under its definition name.
func (r *Registry) Register(tool ToolExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Definition().Name] = tool
}

// Get returns the tool registered under a name.
func (r *Registry) Get(name string) (ToolExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Definitions returns all registered tool definitions, sorted by name for
// stable listings.
func (r *Registry) Definitions() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs a tool by name with the given JSON arguments.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("tool '%s' not found", name)
	}
	return tool.Execute(ctx, arguments)
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
