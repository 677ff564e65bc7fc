// Package toolserver wraps the mark3labs/mcp-go SDK to reach the single,
// fixed-endpoint talent-success tool server over MCP's Streamable-HTTP
// transport. It replaces the teacher's multi-server stdio/SSE client with
// one connection to one JSON-RPC endpoint, since this orchestrator has
// exactly one tool provider rather than a configurable server set.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sdk_client "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	sdk_mcp "github.com/mark3labs/mcp-go/mcp"
)

// ToolInfo captures the metadata of a single tool exposed by the server.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Client wraps an MCP Streamable-HTTP connection to the talent-success
// tool server. It is safe for concurrent use by multiple goroutines.
type Client struct {
	mu    sync.RWMutex
	inner *sdk_client.Client
}

// endpointPath is the single, fixed path this tool server is mounted at.
const endpointPath = "/webhook/talent-success/mcp"

// NewClient creates an uninitialised Client pointed at baseURL+endpointPath.
// Call Connect to perform the MCP handshake before ListTools or CallTool.
func NewClient(baseURL string) (*Client, error) {
	httpTransport, err := transport.NewStreamableHTTP(strings.TrimRight(baseURL, "/") + endpointPath)
	if err != nil {
		return nil, fmt.Errorf("toolserver: build transport: %w", err)
	}
	return &Client{inner: sdk_client.NewClient(httpTransport)}, nil
}

// Connect performs the MCP initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	inner := c.inner
	c.mu.RUnlock()

	if err := inner.Start(ctx); err != nil {
		return fmt.Errorf("toolserver: start transport: %w", err)
	}

	_, err := inner.Initialize(ctx, sdk_mcp.InitializeRequest{
		Params: sdk_mcp.InitializeParams{
			ProtocolVersion: sdk_mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: sdk_mcp.Implementation{
				Name:    "support-agent",
				Version: "0.1.0",
			},
		},
	})
	if err != nil {
		_ = inner.Close()
		return fmt.Errorf("toolserver: initialize: %w", err)
	}
	return nil
}

// ListTools returns metadata for every tool the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	c.mu.RLock()
	inner := c.inner
	c.mu.RUnlock()

	result, err := inner.ListTools(ctx, sdk_mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("toolserver: list tools: %w", err)
	}

	tools := make([]ToolInfo, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			schema = json.RawMessage("{}")
		}
		tools = append(tools, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

// CallTool invokes the named tool with args and returns the text of the
// first content block as raw JSON, unparsed. Matches the server's
// convention (confirmed against the Python reference client) of returning
// a single text content block holding a JSON document.
//
// If the server reports IsError=true, CallTool returns a non-nil error
// wrapping the server-supplied message. Tool-reported and transport errors
// are both plain wrapped errors of no distinct type; Gather and Action
// record either kind as a failed result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	c.mu.RLock()
	inner := c.inner
	c.mu.RUnlock()

	req := sdk_mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := inner.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("toolserver: call tool %q: %w", name, err)
	}

	if len(result.Content) == 0 {
		return nil, fmt.Errorf("toolserver: tool %q returned no content", name)
	}
	tc, ok := result.Content[0].(sdk_mcp.TextContent)
	if !ok {
		return nil, fmt.Errorf("toolserver: tool %q returned non-text content", name)
	}

	if result.IsError {
		return nil, fmt.Errorf("toolserver: tool %q returned error: %s", name, tc.Text)
	}
	return json.RawMessage(tc.Text), nil
}

// Close releases the transport connection.
func (c *Client) Close() error {
	c.mu.Lock()
	inner := c.inner
	c.mu.Unlock()
	if inner == nil {
		return nil
	}
	return inner.Close()
}
