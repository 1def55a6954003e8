// Package mcp exposes read-only rental data to AI assistants over the
// Model Context Protocol (streamable HTTP transport).
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/rentalmanager/internal/domain/dashboard"
	"github.com/Strob0t/rentalmanager/internal/domain/listing"
	"github.com/Strob0t/rentalmanager/internal/domain/property"
	"github.com/Strob0t/rentalmanager/internal/domain/user"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// ServerConfig holds the MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// PropertyReader lists and loads the caller's properties.
type PropertyReader interface {
	List(ctx context.Context, q listing.Query) ([]property.Property, error)
	Get(ctx context.Context, id string) (*property.Property, error)
}

// TenantReader lists the caller's tenants.
type TenantReader interface {
	List(ctx context.Context, q listing.Query) (*service.TenantsView, error)
}

// DocumentReader lists the caller's documents.
type DocumentReader interface {
	List(ctx context.Context, q listing.Query) (*service.DocumentsView, error)
}

// DashboardReader computes the caller's overview.
type DashboardReader interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
}

// ServerDeps holds the readers backing the tools. Any of them may be nil;
// the matching tools then report "not configured".
type ServerDeps struct {
	Properties PropertyReader
	Tenants    TenantReader
	Documents  DocumentReader
	Dashboard  DashboardReader
}

// Server wraps the mcp-go server and its HTTP transport.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	http      *mcpserver.StreamableHTTPServer
}

// NewServer creates a server with all tools and resources registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	s.http = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithHTTPContextFunc(withRequestUser),
	)
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP endpoint. It must sit behind the
// session middleware: every tool answers for the request's user only.
func (s *Server) Handler() http.Handler {
	return s.http
}

// withRequestUser carries the authenticated user from the HTTP request
// into the tool call context.
func withRequestUser(ctx context.Context, r *http.Request) context.Context {
	if u := user.FromContext(r.Context()); u != nil {
		return user.NewContext(ctx, u)
	}
	return ctx
}
