// Package mcpserver exposes the tool registry as an MCP server so external
// agent hosts can read and write memory over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/strata-mem/strata/tools"
	"github.com/strata-mem/strata/tools/schemas"
)

// New builds an MCP server with one MCP tool per registered registry tool,
// using the declared schemas verbatim.
func New(name, version string, registry *tools.Registry, logger zerolog.Logger) (*server.MCPServer, error) {
	logger = logger.With().Str("component", "mcp_server").Logger()
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))

	all := schemas.All()
	for _, toolName := range registry.Names() {
		schema, ok := all[toolName]
		if !ok {
			return nil, fmt.Errorf("tool %s has no schema", toolName)
		}
		schemaJSON, err := json.Marshal(schema.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", toolName, err)
		}
		s.AddTool(
			mcp.NewToolWithRawSchema(toolName, schema.Description, schemaJSON),
			bridgeHandler(registry, toolName),
		)
		logger.Debug().Str("tool", toolName).Msg("Registered MCP tool")
	}

	logger.Info().Int("tools", len(registry.Names())).Msg("MCP server ready")
	return s, nil
}

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// bridgeHandler adapts a registry tool to the MCP handler contract. Handler
// errors become tool-result errors rather than protocol errors, so the
// calling model sees them.
func bridgeHandler(registry *tools.Registry, toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal arguments: %v", err)), nil
		}

		result, err := registry.Handle(ctx, toolName, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
