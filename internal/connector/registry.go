package connector

import (
	"context"
	"fmt"

	"github.com/compose-market/agentgate/internal/mcpruntime"
)

// MCPPool is the subset of mcpruntime.Pool the connector layer needs,
// kept as an interface so tests can fake it.
type MCPPool interface {
	GetServerTools(ctx context.Context, serverID string) ([]mcpruntime.Tool, error)
	ExecuteServerTool(ctx context.Context, serverID, toolName string, args map[string]any) (*mcpruntime.ToolCallResult, error)
}

// Registry presents the unified listTools/callTool surface spec.md §4.5
// calls for, dispatching to either a static HTTP tool registry or a
// spawned MCP server's live tool list.
type Registry struct {
	descriptors map[string]Descriptor
	httpTools   func(id string) (map[string]ToolDescriptor, bool)
	mcpPool     MCPPool
}

// NewRegistry builds a Registry over the static catalog and a shared MCP
// runtime pool (used for connectors whose descriptor carries a spawn
// command instead of hand-written HTTP handlers).
func NewRegistry(descriptors map[string]Descriptor, pool MCPPool) *Registry {
	return &Registry{descriptors: descriptors, httpTools: BuildToolRegistry, mcpPool: pool}
}

// ListConnectors returns every descriptor with its availability computed.
func (r *Registry) ListConnectors() []ConnectorSummary {
	out := make([]ConnectorSummary, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		available, missing := Availability(d)
		out = append(out, ConnectorSummary{Descriptor: d, Available: available, MissingEnv: missing})
	}
	return out
}

// ConnectorSummary is a Descriptor annotated with its live availability.
type ConnectorSummary struct {
	Descriptor Descriptor `json:"descriptor"`
	Available  bool       `json:"available"`
	MissingEnv []string   `json:"missingEnv,omitempty"`
}

// ErrUnavailable is returned when a connector is missing required env,
// per spec.md §4.5 ("invocations against an unavailable connector return
// 503 with a structured missing-env error").
type ErrUnavailable struct {
	ConnectorID string
	MissingEnv  []string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("connector %q unavailable: missing env %v", e.ConnectorID, e.MissingEnv)
}

// ListTools returns the tool descriptors for one connector, either from
// the static HTTP registry or by querying its spawned MCP session.
func (r *Registry) ListTools(ctx context.Context, connectorID string) ([]ToolSummary, error) {
	desc, ok := r.descriptors[connectorID]
	if !ok {
		return nil, fmt.Errorf("connector %q not found", connectorID)
	}
	if available, missing := Availability(desc); !available {
		return nil, &ErrUnavailable{ConnectorID: connectorID, MissingEnv: missing}
	}

	if desc.HTTPBased {
		tools, ok := r.httpTools(connectorID)
		if !ok {
			return nil, fmt.Errorf("connector %q has no registered tools", connectorID)
		}
		out := make([]ToolSummary, 0, len(tools))
		for _, t := range tools {
			out = append(out, ToolSummary{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		return out, nil
	}

	if r.mcpPool == nil {
		return nil, fmt.Errorf("connector %q requires MCP runtime, none configured", connectorID)
	}
	tools, err := r.mcpPool.GetServerTools(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	out := make([]ToolSummary, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolSummary{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out, nil
}

// ToolSummary is the schema surfaced to a client for one connector tool.
type ToolSummary struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// CallTool dispatches a tool invocation to either the HTTP handler or the
// MCP pool, normalizing both result shapes to CallToolResult.
func (r *Registry) CallTool(ctx context.Context, connectorID, toolName string, args map[string]interface{}) (CallToolResult, error) {
	desc, ok := r.descriptors[connectorID]
	if !ok {
		return CallToolResult{}, fmt.Errorf("connector %q not found", connectorID)
	}
	if available, missing := Availability(desc); !available {
		return CallToolResult{}, &ErrUnavailable{ConnectorID: connectorID, MissingEnv: missing}
	}

	if desc.HTTPBased {
		tools, ok := r.httpTools(connectorID)
		if !ok {
			return CallToolResult{}, fmt.Errorf("connector %q has no registered tools", connectorID)
		}
		tool, ok := tools[toolName]
		if !ok {
			return errorResult(fmt.Sprintf("unknown tool %q for connector %q", toolName, connectorID)), nil
		}
		return tool.Handler(ctx, args)
	}

	if r.mcpPool == nil {
		return CallToolResult{}, fmt.Errorf("connector %q requires MCP runtime, none configured", connectorID)
	}
	result, err := r.mcpPool.ExecuteServerTool(ctx, connectorID, toolName, args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	content := make([]ContentItem, len(result.Content))
	for i, c := range result.Content {
		content[i] = ContentItem{Type: c.Type, Text: c.Text}
	}
	return CallToolResult{Content: content, Raw: result.Raw, IsError: result.IsError}, nil
}
