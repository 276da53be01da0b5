// Package mcpserver exposes scenario runs as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	apperrors "presales-mvp/internal/common/errors"
	"presales-mvp/internal/common/logger"
	"presales-mvp/internal/models"
	"presales-mvp/pkg/registry"
)

const (
	ServerName = "presales-mvp"
	ToolName   = "mvp_run"
)

// Dispatcher runs a scenario request.
type Dispatcher interface {
	Execute(ctx context.Context, req models.MVPRequest) (*models.MVPResponse, error)
}

// RunTool handles the mvp_run tool.
type RunTool struct {
	dispatcher Dispatcher
	catalog    *registry.Catalog
	logger     logger.Logger
}

func NewRunTool(dispatcher Dispatcher, catalog *registry.Catalog, log logger.Logger) *RunTool {
	return &RunTool{
		dispatcher: dispatcher,
		catalog:    catalog,
		logger:     log.WithFields(map[string]interface{}{"component": "mcp"}),
	}
}

// Definition returns the MCP tool definition for mvp_run.
func (t *RunTool) Definition() mcp.Tool {
	ids := t.catalog.IDs()
	var lines []string
	for _, s := range t.catalog.Scenarios {
		lines = append(lines, fmt.Sprintf("%s: %s", s.ID, s.Description))
	}

	return mcp.NewTool(ToolName,
		mcp.WithDescription(
			"Run a pre-sales scenario against a customer brief and return the JSON result.\n"+
				strings.Join(lines, "\n"),
		),
		mcp.WithString("scenario",
			mcp.Required(),
			mcp.Enum(ids...),
			mcp.Description("Scenario to run: "+strings.Join(ids, ", ")),
		),
		mcp.WithString("brief",
			mcp.Required(),
			mcp.Description("Free-text customer or opportunity brief"),
		),
		mcp.WithString("session_id",
			mcp.Description("Opaque id echoed back in the result"),
		),
	)
}

// Handle processes the mvp_run tool call.
func (t *RunTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenario := req.GetString("scenario", "")
	if _, ok := t.catalog.Find(scenario); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown scenario %q, expected one of: %s",
			scenario, strings.Join(t.catalog.IDs(), ", "))), nil
	}

	brief, err := req.RequireString("brief")
	if err != nil {
		return mcp.NewToolResultError("'brief' is required"), nil
	}

	run := models.MVPRequest{Scenario: models.Scenario(scenario), Brief: brief}
	if sessionID := req.GetString("session_id", ""); sessionID != "" {
		run.SessionID = &sessionID
	}

	resp, err := t.dispatcher.Execute(ctx, run)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		t.logger.Error("tool run failed", map[string]interface{}{
			"scenario":  scenario,
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		return mcp.NewToolResultError(fmt.Sprintf("%s: run failed", stdErr.Code)), nil
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// New creates the MCP server with the run tool registered.
func New(version string, dispatcher Dispatcher, catalog *registry.Catalog, log logger.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	tool := NewRunTool(dispatcher, catalog, log)
	s.AddTool(tool.Definition(), tool.Handle)

	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
