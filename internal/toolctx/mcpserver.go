package toolctx

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCP tool names served by NewMCPServer.
const (
	ToolTrends   = "get_fashion_trends"
	ToolTips     = "get_style_tips"
	ToolSeasonal = "get_seasonal_recommendations"
)

// NewMCPServer exposes catalog as MCP tools. Each tool returns the JSON
// encoding of a Payload as a single text content block.
func NewMCPServer(catalog *Catalog, version string) *server.MCPServer {
	s := server.NewMCPServer("opuluxe-fashion-trends", version,
		server.WithToolCapabilities(false),
	)

	trendEnum := append(catalog.Categories(), "all")

	s.AddTool(mcp.NewTool(ToolTrends,
		mcp.WithDescription("Get current fashion trends for a specific category (men/women/accessories) or all categories"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Fashion category"),
			mcp.Enum(trendEnum...),
		),
	), payloadHandler("category", "all", catalog.Trends))

	s.AddTool(mcp.NewTool(ToolTips,
		mcp.WithDescription("Get style tips for specific occasions"),
		mcp.WithString("occasion",
			mcp.Required(),
			mcp.Description("Occasion type"),
			mcp.Enum(catalog.Occasions()...),
		),
	), payloadHandler("occasion", "casual", catalog.Tip))

	s.AddTool(mcp.NewTool(ToolSeasonal,
		mcp.WithDescription("Get seasonal fashion recommendations"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Fashion category"),
			mcp.Enum(catalog.Categories()...),
		),
	), payloadHandler("category", "men", catalog.Seasonal))

	return s
}

func payloadHandler(arg, def string, lookup func(string) (*Payload, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := lookup(req.GetString(arg, def))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
