// Package connector presents a catalog of named connectors (native HTTP
// or MCP-spawned) behind a uniform listTools/callTool surface, per
// spec.md §4.5. The tool-registry-map pattern is grounded on the
// teacher's internal/mcp/tools.go buildToolRegistry.
package connector

import (
	"context"
	"os"
)

// Descriptor is one connector's static metadata, per spec.md §3.
type Descriptor struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	HTTPBased   bool              `json:"httpBased"`
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	RequiredEnv []string          `json:"requiredEnv"`
	EnvHints    map[string]string `json:"envHints,omitempty"`
}

// Availability reports whether every RequiredEnv var is set in the
// environment, per spec.md §4.5, and which ones are missing.
func Availability(desc Descriptor) (available bool, missing []string) {
	for _, key := range desc.RequiredEnv {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	return len(missing) == 0, missing
}

// ContentItem is one piece of a tool call result's content array.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is the normalized outcome of invoking a connector tool,
// per spec.md §4.5's error-normalization rule: non-2xx HTTP becomes
// isError:true with a "Error: ..." content entry rather than a raw
// transport error the caller must re-parse.
type CallToolResult struct {
	Content []ContentItem `json:"content"`
	Raw     any           `json:"raw,omitempty"`
	IsError bool          `json:"isError"`
}

// ToolDescriptor is one tool's static schema plus its handler, mirroring
// the teacher's toolDefinition/toolHandler pair.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Handler     ToolHandler            `json:"-"`
}

// ToolHandler executes one connector tool call.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (CallToolResult, error)

func errorResult(message string) CallToolResult {
	return CallToolResult{
		IsError: true,
		Content: []ContentItem{{Type: "text", Text: "Error: " + message}},
		Raw:     map[string]string{"error": message},
	}
}
