// Package tools exposes memory operations as named, JSON-argument tools for
// agents and the MCP surface.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// ToolHandler handles a tool call.
type ToolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps tool names to handlers.
type Registry struct {
	handlers map[string]ToolHandler
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	logger = logger.With().Str("component", "tool_registry").Logger()
	return &Registry{
		handlers: make(map[string]ToolHandler),
		logger:   logger,
	}
}

// Register registers a handler for a tool name.
func (r *Registry) Register(name string, h ToolHandler) {
	r.logger.Debug().Str("name", name).Msg("Registering tool handler")
	r.handlers[name] = h
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle dispatches a tool call.
func (r *Registry) Handle(ctx context.Context, toolName string, args json.RawMessage) (any, error) {
	h, ok := r.handlers[toolName]
	if !ok {
		r.logger.Error().Str("tool", toolName).Msg("Unknown tool requested")
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}

	r.logger.Info().Str("tool", toolName).Msg("Executing tool")
	result, err := h(ctx, args)
	if err != nil {
		r.logger.Warn().Str("tool", toolName).Err(err).Msg("Tool returned error")
		return nil, err
	}
	r.logger.Debug().Str("tool", toolName).Msg("Tool completed")
	return result, nil
}
