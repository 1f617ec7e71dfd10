// Package server wires the tool catalog, resources, and prompts into
// an MCP server.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avandyck/glidewire/prompts"
	"github.com/avandyck/glidewire/resource"
	"github.com/avandyck/glidewire/tools"
)

// ServerOptions override the advertised implementation identity.
type ServerOptions struct {
	// Name is the MCP server implementation name. Default: "glidewire".
	Name string
	// Version is the MCP server implementation version. Default: "0.1.0".
	Version string
}

// NewMCPServer registers every tool, resource template, and prompt on a
// fresh MCP server.
func NewMCPServer(core *tools.Core, logger *slog.Logger, opts ...ServerOptions) *mcp.Server {
	name := "glidewire"
	version := "0.1.0"
	if len(opts) > 0 {
		if opts[0].Name != "" {
			name = opts[0].Name
		}
		if opts[0].Version != "" {
			version = opts[0].Version
		}
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, &mcp.ServerOptions{Logger: logger})

	tools.Register(srv, core)
	registerResources(srv, core.Resolver)
	prompts.Register(srv)

	return srv
}

func registerResources(srv *mcp.Server, resolver *resource.Resolver) {
	for _, t := range resource.Templates() {
		srv.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: t.URITemplate,
			Name:        t.Name,
			Description: t.Description,
			MIMEType:    "application/json",
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			payload, err := resolver.Resolve(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			encoded, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("encode resource %s: %w", req.Params.URI, err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      req.Params.URI,
					MIMEType: "application/json",
					Text:     string(encoded),
				}},
			}, nil
		})
	}
}

// RunStdio serves MCP over stdin/stdout until ctx is canceled.
func RunStdio(ctx context.Context, core *tools.Core, logger *slog.Logger, opts ...ServerOptions) error {
	srv := NewMCPServer(core, logger, opts...)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("run mcp stdio server: %w", err)
	}
	return nil
}

// NewHTTPHandler returns an http.Handler serving MCP over SSE.
func NewHTTPHandler(core *tools.Core, logger *slog.Logger, opts ...ServerOptions) http.Handler {
	srv := NewMCPServer(core, logger, opts...)
	return mcp.NewSSEHandler(func(_ *http.Request) *mcp.Server {
		return srv
	}, nil)
}
