package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/amkisko/scout-apm-mcp/internal/scout"
	"github.com/amkisko/scout-apm-mcp/internal/version"
)

// ServerOptions configures the MCP server.
type ServerOptions struct {
	// Version reported during the MCP handshake. Default: build version.
	Version string

	// Logger for server operations. Must write to stderr; stdout carries
	// the protocol.
	Logger *zap.Logger
}

// DefaultServerOptions returns sensible defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Version: version.Version,
	}
}

// Server adapts the API client to the Model Context Protocol.
type Server struct {
	logger *zap.Logger
	client *scout.Client
	server *mcp.Server
}

// NewServer creates an MCP server with all ScoutAPM tools registered.
func NewServer(client *scout.Client, opts ServerOptions) *Server {
	if opts.Version == "" {
		opts.Version = version.Version
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		logger: opts.Logger.Named("mcp-server"),
		client: client,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "scout-apm-mcp",
			Title:   "ScoutAPM",
			Version: opts.Version,
		}, nil),
	}

	s.registerTools()
	return s
}

// Run serves the protocol over stdio until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", zap.String("transport", "stdio"))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// jsonResult wraps a successful tool return value as JSON text content.
func (s *Server) jsonResult(v any) (*mcp.CallToolResult, any, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.errResult(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil, nil
}

// errResult converts an error into an isError tool result. Tool failures
// never abort the server.
func (s *Server) errResult(err error) *mcp.CallToolResult {
	s.logger.Warn("tool call failed", zap.Error(err))
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

func boolPtr(b bool) *bool { return &b }

// readOnlyAnnotations marks a tool as side-effect free. Every ScoutAPM
// tool only reads from the API.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(true),
	}
}

// localAnnotations marks a tool that never leaves the process.
func localAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}
