// Package gateway exposes a Host's registered tools over the Model Context
// Protocol so external agents can list and invoke them through a stdio
// session.
//
// The gateway is a thin adapter: tool metadata comes straight from each
// manifest, and every call is routed through Host.RunTool so the full
// sandbox and protocol error taxonomy applies. Guest-side failures are
// reported to the client as tool errors rather than protocol faults.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolsandbox/registry"
	"github.com/jonwraymond/toolsandbox/skills"
)

// ErrHostRequired is returned by New when no Host is configured.
var ErrHostRequired = errors.New("gateway: Host is required")

// Config configures a Server.
type Config struct {
	// Host provides the tool registry and invocation engine.
	// Required.
	Host *skills.Host

	// Name and Version identify this server to MCP clients. Both default
	// when empty.
	Name    string
	Version string

	// Logger is an optional logger for session and call events.
	Logger zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "toolsandbox"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// Server serves a Host's tools to MCP clients.
type Server struct {
	host   *skills.Host
	server *mcp.Server
	logger zerolog.Logger
}

// New creates a Server from the Host's current registry generation. Tools
// registered after construction are not visible to connected clients;
// restart the session after a rescan to pick them up.
func New(cfg Config) (*Server, error) {
	if cfg.Host == nil {
		return nil, ErrHostRequired
	}
	cfg.applyDefaults()

	s := &Server{
		host:   cfg.Host,
		logger: cfg.Logger,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	for _, tool := range s.tools() {
		tool := tool
		s.server.AddTool(tool, s.handler(tool.Name))
	}
	return s, nil
}

// tools builds the MCP tool list from the registry, in discovery order.
// Entries whose bundle disappears between List and Lookup are skipped; the
// next generation will not contain them either.
func (s *Server) tools() []*mcp.Tool {
	entries := s.host.List()
	out := make([]*mcp.Tool, 0, len(entries))
	for _, entry := range entries {
		bundle, err := s.host.Lookup(entry.Name)
		if err != nil {
			continue
		}
		out = append(out, &mcp.Tool{
			Name:        bundle.Manifest.Name,
			Description: bundle.Manifest.Description,
			InputSchema: inputSchema(bundle),
		})
	}
	return out
}

// inputSchema returns the manifest's declared parameter schema, or a
// permissive empty object schema when the manifest declares none.
func inputSchema(bundle registry.Bundle) map[string]any {
	if bundle.Manifest.Parameters != nil {
		return bundle.Manifest.Parameters
	}
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result, err := s.host.RunTool(ctx, name, args)
		if err != nil {
			s.logger.Warn().Str("tool", name).Err(err).Msg("tool call failed")
			return errorResult(err.Error()), nil
		}
		if !result.Success {
			return errorResult(result.Error), nil
		}
		return textResult(result.Output), nil
	}
}

func decodeArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	raw := req.Params.Arguments
	if len(raw) == 0 {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// ServeStdio runs an MCP session over stdin and stdout until the client
// disconnects or ctx is canceled.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info().Int("tools", len(s.host.List())).Msg("mcp gateway serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
