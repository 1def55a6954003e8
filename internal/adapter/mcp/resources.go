package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/rentalmanager/internal/domain/listing"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"rental://properties",
			"Property List",
			mcplib.WithResourceDescription("All properties of the signed-in user"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePropertiesResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"rental://dashboard",
			"Dashboard",
			mcplib.WithResourceDescription("Portfolio totals of the signed-in user"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleDashboardResource,
	)
}

func (s *Server) handlePropertiesResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Properties == nil {
		return jsonResource(req.Params.URI, `{"error":"property reader not configured"}`), nil
	}
	props, err := s.deps.Properties.List(ctx, listing.Query{})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func (s *Server) handleDashboardResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Dashboard == nil {
		return jsonResource(req.Params.URI, `{"error":"dashboard reader not configured"}`), nil
	}
	sum, err := s.deps.Dashboard.Summary(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func jsonResource(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
