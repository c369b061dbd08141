// Package mcpruntime spawns and manages MCP servers across stdio,
// HTTP-SSE, and Docker transports, pooling sessions per server id, per
// SPEC_FULL.md §4.4. Grounded directly on the teacher's
// internal/dirstral/mcp/client.go JSON-RPC client.
package mcpruntime

import (
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Request is a JSON-RPC 2.0 request frame, renamed from the teacher's
// jsonRPCRequest.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      *int64         `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope, renamed from the
// teacher's jsonRPCResponse.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

const (
	MethodInitialize               = "initialize"
	MethodNotificationsInitialized = "notifications/initialized"
	MethodToolsList                = "tools/list"
	MethodToolsCall                = "tools/call"
)

// Tool is the MCP tool descriptor shape, aliased to the go-sdk's wire type
// (Name, Description, InputSchema map[string]any) rather than hand-rolled,
// per the review's go.mod wire-it-or-delete-it requirement.
type Tool = mcp.Tool

// ContentItem is one piece of a tool call's content array.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCallResult is the normalized result of a tools/call invocation.
type ToolCallResult struct {
	Content           []ContentItem  `json:"content"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError"`
	Raw               map[string]any `json:"-"`
	ResponseHeaders   http.Header    `json:"-"`
}

// ToolCallError wraps a tools/call failure together with the upstream
// HTTP response headers and status code, so a 402 challenge can be
// forwarded verbatim — headers and status both — even when the call
// itself failed (spec.md §4.6).
type ToolCallError struct {
	Err        error
	Headers    http.Header
	StatusCode int
}

func (e *ToolCallError) Error() string { return e.Err.Error() }
func (e *ToolCallError) Unwrap() error { return e.Err }

// HTTPStatusError is returned by the HTTP-SSE transport when a spawned
// server answers with a non-2xx status, so the original status code
// (e.g. a 402 challenge from an upstream MCP server) survives up to
// ExecuteServerTool/ToolCallError instead of collapsing to a generic 502.
type HTTPStatusError struct {
	StatusCode int
	Body       map[string]any
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("mcpruntime: http status %d", e.StatusCode)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// ParseToolsList decodes a tools/list result payload into Tool structs.
func ParseToolsList(result map[string]any) ([]Tool, error) {
	items, ok := result["tools"].([]any)
	if !ok {
		return nil, fmt.Errorf("mcpruntime: invalid tools/list payload")
	}
	tools := make([]Tool, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		tools = append(tools, Tool{
			Name:        asString(m["name"]),
			Description: asString(m["description"]),
			InputSchema: asMap(m["inputSchema"]),
		})
	}
	return tools, nil
}

// ParseToolCallResult decodes a tools/call result payload.
func ParseToolCallResult(raw map[string]any) (*ToolCallResult, error) {
	resultMap, ok := raw["result"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("mcpruntime: invalid tools/call result")
	}
	content := []ContentItem{}
	if items, ok := resultMap["content"].([]any); ok {
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			content = append(content, ContentItem{Type: asString(m["type"]), Text: asString(m["text"])})
		}
	}
	structured := map[string]any{}
	if sc, ok := resultMap["structuredContent"].(map[string]any); ok {
		structured = sc
	}
	return &ToolCallResult{
		Content:           content,
		StructuredContent: structured,
		IsError:           asBool(resultMap["isError"]),
		Raw:               raw,
	}, nil
}
