package connector

import (
	"context"
	"os"
	"testing"

	"github.com/compose-market/agentgate/internal/mcpruntime"
)

type fakeMCPPool struct {
	tools []mcpruntime.Tool
}

func (f *fakeMCPPool) GetServerTools(ctx context.Context, serverID string) ([]mcpruntime.Tool, error) {
	return f.tools, nil
}

func (f *fakeMCPPool) ExecuteServerTool(ctx context.Context, serverID, toolName string, args map[string]any) (*mcpruntime.ToolCallResult, error) {
	return &mcpruntime.ToolCallResult{Content: []mcpruntime.ContentItem{{Type: "text", Text: "ok"}}}, nil
}

func TestListConnectorsReportsMissingEnv(t *testing.T) {
	os.Unsetenv("GITHUB_TOKEN")
	reg := NewRegistry(BuildCatalog(), nil)
	summaries := reg.ListConnectors()

	found := false
	for _, s := range summaries {
		if s.Descriptor.ID == "github" {
			found = true
			if s.Available {
				t.Fatal("github connector must be unavailable without GITHUB_TOKEN")
			}
			if len(s.MissingEnv) != 1 || s.MissingEnv[0] != "GITHUB_TOKEN" {
				t.Fatalf("unexpected missingEnv: %v", s.MissingEnv)
			}
		}
	}
	if !found {
		t.Fatal("expected github connector in catalog")
	}
}

func TestCallToolOnUnavailableConnectorErrors(t *testing.T) {
	os.Unsetenv("GITHUB_TOKEN")
	reg := NewRegistry(BuildCatalog(), nil)
	_, err := reg.CallTool(context.Background(), "github", "get_repo", map[string]interface{}{})
	var unavailable *ErrUnavailable
	if err == nil {
		t.Fatal("expected error for unavailable connector")
	}
	if !errorsAs(err, &unavailable) {
		t.Fatalf("expected *ErrUnavailable, got %T: %v", err, err)
	}
}

func errorsAs(err error, target **ErrUnavailable) bool {
	e, ok := err.(*ErrUnavailable)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestCallToolDispatchesToMCPPool(t *testing.T) {
	descriptors := map[string]Descriptor{
		"demo": {ID: "demo", HTTPBased: false, RequiredEnv: nil},
	}
	pool := &fakeMCPPool{tools: []mcpruntime.Tool{{Name: "ping"}}}
	reg := NewRegistry(descriptors, pool)

	result, err := reg.CallTool(context.Background(), "demo", "ping", map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError || len(result.Content) != 1 || result.Content[0].Text != "ok" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestListToolsForHTTPConnector(t *testing.T) {
	os.Setenv("GITHUB_TOKEN", "test-token")
	defer os.Unsetenv("GITHUB_TOKEN")
	reg := NewRegistry(BuildCatalog(), nil)

	tools, err := reg.ListTools(context.Background(), "github")
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) == 0 {
		t.Fatal("expected github tools to be listed")
	}
}
