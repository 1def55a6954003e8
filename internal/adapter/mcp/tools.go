package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/rentalmanager/internal/domain/listing"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listPropertiesTool(),
		s.getPropertyTool(),
		s.listTenantsTool(),
		s.listDocumentsTool(),
		s.getDashboardTool(),
	)
}

func (s *Server) listPropertiesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_properties",
		mcplib.WithDescription("List the user's rental properties with their maintenance requests"),
		mcplib.WithString("search", mcplib.Description("Case-insensitive match on name or address")),
		mcplib.WithString("status",
			mcplib.Description("Only properties with this status"),
			mcplib.Enum("all", "available", "rented", "maintenance"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListProperties}
}

func (s *Server) getPropertyTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_property",
		mcplib.WithDescription("Get one property by ID"),
		mcplib.WithString("property_id",
			mcplib.Required(),
			mcplib.Description("The property ID to look up"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetProperty}
}

func (s *Server) listTenantsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_tenants",
		mcplib.WithDescription("List the user's tenants labelled with their property names"),
		mcplib.WithString("search", mcplib.Description("Case-insensitive match on name or email")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListTenants}
}

func (s *Server) listDocumentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_documents",
		mcplib.WithDescription("List the user's documents"),
		mcplib.WithString("search", mcplib.Description("Case-insensitive match on title or any tag")),
		mcplib.WithString("type",
			mcplib.Description("Only documents of this type"),
			mcplib.Enum("all", "lease", "contract", "maintenance", "invoice", "other"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListDocuments}
}

func (s *Server) getDashboardTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_dashboard",
		mcplib.WithDescription("Get portfolio totals: rent, occupancy, maintenance and tenant counts"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetDashboard}
}

func (s *Server) handleListProperties(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Properties == nil {
		return mcplib.NewToolResultError("property reader not configured"), nil
	}
	props, err := s.deps.Properties.List(ctx, query(req, "status"))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list properties", err), nil
	}
	return marshalResult("properties", props)
}

func (s *Server) handleGetProperty(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Properties == nil {
		return mcplib.NewToolResultError("property reader not configured"), nil
	}
	id := stringArg(req, "property_id")
	if id == "" {
		return mcplib.NewToolResultError("property_id is required"), nil
	}
	p, err := s.deps.Properties.Get(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get property %s", id), err), nil
	}
	return marshalResult("property", p)
}

func (s *Server) handleListTenants(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Tenants == nil {
		return mcplib.NewToolResultError("tenant reader not configured"), nil
	}
	view, err := s.deps.Tenants.List(ctx, query(req, ""))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list tenants", err), nil
	}
	return marshalResult("tenants", view.Tenants)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Documents == nil {
		return mcplib.NewToolResultError("document reader not configured"), nil
	}
	view, err := s.deps.Documents.List(ctx, query(req, "type"))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list documents", err), nil
	}
	return marshalResult("documents", view.Documents)
}

func (s *Server) handleGetDashboard(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Dashboard == nil {
		return mcplib.NewToolResultError("dashboard reader not configured"), nil
	}
	sum, err := s.deps.Dashboard.Summary(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to compute dashboard", err), nil
	}
	return marshalResult("dashboard", sum)
}

func stringArg(req mcplib.CallToolRequest, name string) string { //nolint:gocritic // hugeParam: mcp-go request type
	v, _ := req.GetArguments()[name].(string)
	return v
}

// query builds a listing query from the "search" argument and the named
// filter argument. An empty filterArg means the list has no category filter.
func query(req mcplib.CallToolRequest, filterArg string) listing.Query { //nolint:gocritic // hugeParam: mcp-go request type
	q := listing.Query{Search: stringArg(req, "search")}
	if filterArg != "" {
		q.Filter = stringArg(req, filterArg)
	}
	return q
}

func marshalResult(what string, v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal "+what, err), nil
	}
	return toolResultJSON(string(data)), nil
}

// toolResultJSON returns a text result holding a JSON document.
func toolResultJSON(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}
