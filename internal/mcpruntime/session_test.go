package mcpruntime

import (
	"context"
	"sync/atomic"
	"testing"
)

type fakeTransport struct {
	started atomic.Bool
	closed  atomic.Bool
	calls   atomic.Int32
}

func (f *fakeTransport) Start(ctx context.Context) error {
	f.started.Store(true)
	return nil
}

func (f *fakeTransport) Call(ctx context.Context, frame Frame) (map[string]any, error) {
	f.calls.Add(1)
	switch frame.Method {
	case MethodInitialize:
		return map[string]any{"result": map[string]any{}}, nil
	case MethodNotificationsInitialized:
		return nil, nil
	case MethodToolsList:
		return map[string]any{"result": map[string]any{"tools": []any{
			map[string]any{"name": "ping", "description": "pings", "inputSchema": map[string]any{}},
		}}}, nil
	case MethodToolsCall:
		return map[string]any{"result": map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "pong"}},
			"isError": false,
		}}, nil
	}
	return map[string]any{}, nil
}

func (f *fakeTransport) Close() error {
	f.closed.Store(true)
	return nil
}

func TestPoolReusesSessionForSameServerID(t *testing.T) {
	spawned := 0
	var last *fakeTransport
	pool := NewPool(func(ctx context.Context, serverID string) (Transport, error) {
		spawned++
		last = &fakeTransport{}
		return last, nil
	})
	defer pool.Close()

	ctx := context.Background()
	tools1, err := pool.GetServerTools(ctx, "srv-a")
	if err != nil {
		t.Fatal(err)
	}
	tools2, err := pool.GetServerTools(ctx, "srv-a")
	if err != nil {
		t.Fatal(err)
	}
	if spawned != 1 {
		t.Fatalf("expected exactly one spawn for the same serverID, got %d", spawned)
	}
	if len(tools1) != 1 || len(tools2) != 1 || tools1[0].Name != "ping" {
		t.Fatalf("unexpected tools: %+v %+v", tools1, tools2)
	}
	_ = last
}

func TestPoolExecuteServerTool(t *testing.T) {
	pool := NewPool(func(ctx context.Context, serverID string) (Transport, error) {
		return &fakeTransport{}, nil
	})
	defer pool.Close()

	result, err := pool.ExecuteServerTool(context.Background(), "srv-b", "ping", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError || len(result.Content) != 1 || result.Content[0].Text != "pong" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPoolSpawnsDistinctSessionsPerServerID(t *testing.T) {
	spawned := 0
	pool := NewPool(func(ctx context.Context, serverID string) (Transport, error) {
		spawned++
		return &fakeTransport{}, nil
	})
	defer pool.Close()

	ctx := context.Background()
	if _, err := pool.GetServerTools(ctx, "srv-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.GetServerTools(ctx, "srv-b"); err != nil {
		t.Fatal(err)
	}
	if spawned != 2 {
		t.Fatalf("expected 2 spawns for 2 distinct serverIDs, got %d", spawned)
	}
}
