package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"aijobsdash/services/dashboard/internal/dataset"
	"aijobsdash/services/dashboard/internal/filter"
	"aijobsdash/services/dashboard/internal/models"
	"aijobsdash/services/dashboard/internal/views"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Register adds the dashboard tools to s.
func Register(s *server.MCPServer, store *dataset.Store) {
	registerFilters(s, store)
	registerView(s, store)
}

func registerFilters(s *server.MCPServer, store *dataset.Store) {
	filtersTool := mcp.NewTool("dashboard_filters",
		mcp.WithDescription("List the selectable company locations and experience levels of the AI jobs dataset"),
	)
	filtersTool.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}

	s.AddTool(filtersTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		choices, err := store.Options(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load dataset: %v", err)), nil
		}
		return jsonResult(choices)
	})
}

func registerView(s *server.MCPServer, store *dataset.Store) {
	viewTool := mcp.NewTool("dashboard_view",
		mcp.WithDescription("Compute one AI jobs dashboard view, optionally filtered by company location and experience level"),
	)
	viewTool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"view": map[string]interface{}{
				"type":        "string",
				"description": "View id, one of: " + strings.Join(views.IDs(), ", "),
				"enum":        views.IDs(),
			},
			"locations": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Company locations to keep (any of)",
			},
			"experience_levels": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string", "enum": models.ExperienceLabels()},
				"description": "Experience level labels to keep (any of)",
			},
		},
		Required: []string{"view"},
	}

	s.AddTool(viewTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		id, _ := args["view"].(string)
		if strings.TrimSpace(id) == "" {
			return mcp.NewToolResultError("view is required"), nil
		}

		sel := filter.Selection{
			Locations:        stringList(args["locations"]),
			ExperienceLabels: stringList(args["experience_levels"]),
		}

		resp, err := store.View(ctx, strings.TrimSpace(id), sel)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to compute view: %v", err)), nil
		}
		return jsonResult(resp)
	})
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
