package toolctx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
)

var toolForKind = map[classifier.Kind]struct {
	name string
	arg  string
}{
	classifier.KindTrend:  {ToolTrends, "category"},
	classifier.KindTip:    {ToolTips, "occasion"},
	classifier.KindSeason: {ToolSeasonal, "category"},
}

// MCPProvider fetches context by calling tools on an MCP server. The server may
// run in-process or behind a streamable HTTP endpoint.
type MCPProvider struct {
	client *client.Client
}

// NewInProcessMCPProvider connects to srv without any transport.
func NewInProcessMCPProvider(ctx context.Context, srv *server.MCPServer) (*MCPProvider, error) {
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-process MCP client: %w", err)
	}
	return newMCPProvider(ctx, c)
}

// NewRemoteMCPProvider connects to a streamable HTTP MCP server at url.
func NewRemoteMCPProvider(ctx context.Context, url string) (*MCPProvider, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client for %s: %w", url, err)
	}
	return newMCPProvider(ctx, c)
}

func newMCPProvider(ctx context.Context, c *client.Client) (*MCPProvider, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP transport: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "fashion-assistant",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	return &MCPProvider{client: c}, nil
}

// Fetch calls the tool matching req.Kind and decodes its payload. Every
// failure is reported as ErrUnavailable.
func (p *MCPProvider) Fetch(ctx context.Context, req classifier.Request) (*Payload, error) {
	tool, ok := toolForKind[req.Kind]
	if !ok {
		return nil, unavailable("no tool for kind %q", req.Kind)
	}

	result, err := p.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      tool.name,
			Arguments: map[string]any{tool.arg: req.Tag},
		},
	})
	if err != nil {
		return nil, unavailable("%s: %v", tool.name, err)
	}

	text := firstText(result.Content)
	if result.IsError {
		return nil, unavailable("%s: %s", tool.name, text)
	}
	if text == "" {
		return nil, unavailable("%s returned no content", tool.name)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, unavailable("%s: decode payload: %v", tool.name, err)
	}
	if payload.Empty() {
		return nil, unavailable("%s returned an empty payload", tool.name)
	}

	return &payload, nil
}

// Close ends the MCP session.
func (p *MCPProvider) Close() error {
	return p.client.Close()
}

func firstText(content []mcp.Content) string {
	for _, c := range content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return strings.TrimSpace(tc.Text)
		case *mcp.TextContent:
			return strings.TrimSpace(tc.Text)
		}
	}
	return ""
}
