// Package mcp provides the stdio MCP server exposing PII redaction tools for
// coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/piiscrub/internal/buildinfo"
	"github.com/go-ports/piiscrub/internal/models"
	"github.com/go-ports/piiscrub/internal/service"
)

const redactDescription = `Remove personal data from text before storing, logging or sharing it. Detects phone numbers, emails, credit cards, SSNs, URLs, IP addresses, dates, times, and (when a recognizer is configured) names, places, organizations, money and percentages.

mode "mask" replaces each entity with a placeholder such as [EMAIL]; mode "redact" deletes it. Returns the rewritten text and the list of entities found.`

const detectDescription = `List the personal data found in text without changing it. Each entity has a label, the matched text, and byte offsets [start, end) into the input.`

// NewServer creates and registers all PII tools on a new MCP server.
// Serve wraps it in the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("piiscrub", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server, blocking until stdin closes.
func Serve(_ context.Context, configPath string) error {
	svc, err := service.New(configPath)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	slog.Info("mcp server starting", "provider", svc.ProviderName(), "rules", len(svc.Rules()))
	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires both MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("pii_redact",
		mcp.WithDescription(redactDescription),
		mcp.WithString("text",
			mcp.Description("The text to scrub."),
			mcp.Required(),
		),
		mcp.WithString("mode",
			mcp.Description(`"mask" (default) substitutes placeholders, "redact" deletes.`),
			mcp.Enum(models.ValidModes...),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRedact(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("pii_detect",
		mcp.WithDescription(detectDescription),
		mcp.WithString("text",
			mcp.Description("The text to inspect."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDetect(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleRedact(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode := modeArg(req.GetString("mode", ""))

	result, err := svc.Redact(ctx, text, mode)
	if err != nil {
		slog.Warn("pii_redact failed", "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func handleDetect(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spans, err := svc.Detect(ctx, text)
	if err != nil {
		slog.Warn("pii_detect failed", "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"count":    len(spans),
		"entities": spans,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// modeArg defaults an omitted mode to mask. Anything else is passed through
// for the service to validate.
func modeArg(mode string) string {
	if mode == "" {
		return string(models.ModeMask)
	}
	return mode
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
