package mcpruntime

import "testing"

func TestParseToolsList(t *testing.T) {
	result := map[string]any{"tools": []any{
		map[string]any{"name": "search", "description": "searches", "inputSchema": map[string]any{"type": "object"}},
	}}
	tools, err := ParseToolsList(result)
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 1 || tools[0].Name != "search" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
}

func TestParseToolCallResult(t *testing.T) {
	raw := map[string]any{"result": map[string]any{
		"content": []any{map[string]any{"type": "text", "text": "hello"}},
		"isError": false,
	}}
	out, err := ParseToolCallResult(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError || len(out.Content) != 1 || out.Content[0].Text != "hello" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestParseToolCallResultMissingResult(t *testing.T) {
	if _, err := ParseToolCallResult(map[string]any{}); err == nil {
		t.Fatal("expected error for missing result field")
	}
}
