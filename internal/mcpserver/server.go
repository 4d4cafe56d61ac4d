// In file: internal/mcpserver/server.go

// Package mcpserver exposes the registered flow tools over the Model Context
// Protocol, via stdio or SSE transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"wordware-gateway/internal/tools"
)

// Server wires the tool registry into an MCP server instance.
type Server struct {
	mcp      *server.MCPServer
	registry *tools.Registry
	logger   *zap.Logger
}

// New creates the MCP server and registers every tool currently present in
// the registry. Tool schemas are passed through as raw JSON Schema so the
// remote metadata shape reaches the calling agent unmodified.
func New(name, version string, registry *tools.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(true),
		),
		registry: registry,
		logger:   logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	for _, def := range s.registry.Definitions() {
		schemaJSON, err := json.Marshal(def.Parameters)
		if err != nil {
			s.logger.Error("failed to marshal tool schema, skipping tool",
				zap.String("tool", def.Name), zap.Error(err))
			continue
		}
		tool := mcp.NewToolWithRawSchema(def.Name, def.Description, schemaJSON)
		s.mcp.AddTool(tool, s.makeHandler(def.Name))
		s.logger.Info("tool registered", zap.String("tool", def.Name))
	}
}

// makeHandler builds the MCP handler closure for one registered tool.
func (s *Server) makeHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]any)
		if !ok && request.Params.Arguments != nil {
			s.logger.Error("invalid arguments type", zap.String("tool", name))
			return mcp.NewToolResultError("invalid arguments format, expected map"), nil
		}
		argsJSON, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode arguments: %v", err)), nil
		}

		s.logger.Info("tool call", zap.String("tool", name))
		text, err := s.registry.Execute(ctx, name, string(argsJSON))
		if err != nil {
			s.logger.Error("tool call failed", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio", zap.Int("tools", s.registry.ToolCount()))
	return server.ServeStdio(s.mcp)
}

// ServeSSE blocks serving MCP over SSE on the given address.
func (s *Server) ServeSSE(addr string) error {
	s.logger.Info("serving MCP over SSE", zap.String("addr", addr), zap.Int("tools", s.registry.ToolCount()))
	return server.NewSSEServer(s.mcp).Start(addr)
}
