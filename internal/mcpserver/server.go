// Package mcpserver publishes the tool registry over the Model Context
// Protocol, on stdio or as a streamable HTTP handler.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const implementationName = "dataloom"

// Server serves every registry tool against one workspace. MCP clients share
// that workspace, so datasets loaded by one call are visible to the next.
type Server struct {
	log *slog.Logger
	reg *tools.Registry
	ws  *tools.Workspace
	mcp *mcp.Server
}

func New(reg *tools.Registry, ws *tools.Workspace, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		log: log,
		reg: reg,
		ws:  ws,
		mcp: mcp.NewServer(&mcp.Implementation{Name: implementationName, Version: version}, nil),
	}
	for _, def := range reg.Catalog() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.handler(def.Name))
	}
	log.Debug("mcp/server: registered tools", "count", len(reg.Names()))
	return s
}

// handler forwards a call to the registry. Tool failures come back as
// results with IsError set, not as protocol errors.
func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args []byte
		if req.Params != nil {
			args = req.Params.Arguments
		}
		s.log.Debug("mcp/tool: call", "tool", name)
		res := s.reg.Invoke(ctx, s.ws, name, args)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.String()}},
			IsError: !res.OK(),
		}, nil
	}
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// RunStdio serves on stdin/stdout until ctx is done or the client hangs up.
func (s *Server) RunStdio(ctx context.Context) error {
	s.log.Info("mcp/server: serving on stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// Handler returns a stateless streamable HTTP handler.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})
}
