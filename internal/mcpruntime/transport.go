package mcpruntime

import (
	"context"
	"net/http"
)

// Frame is one outbound JSON-RPC message.
type Frame struct {
	Method string
	Params map[string]any
	ID     *int64 // nil for notifications
}

type paymentHeaderCtxKey struct{}

// WithPaymentHeader attaches an inbound x-payment header value so an
// HTTP-based transport can forward it verbatim to the MCP server, per
// spec.md §4.6's execute/call passthrough rule.
func WithPaymentHeader(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, paymentHeaderCtxKey{}, value)
}

func paymentHeaderFromContext(ctx context.Context) string {
	v, _ := ctx.Value(paymentHeaderCtxKey{}).(string)
	return v
}

// HeaderCapturer is implemented by transports that can expose the
// response headers of their last call, so the gateway can pass a 402
// challenge through verbatim.
type HeaderCapturer interface {
	LastResponseHeaders() http.Header
}

// Transport is the sum-type dispatch spec.md §9 calls for ("Model the
// transport as an interface with three implementations, not a
// switch-on-string scattered through the call sites"). Call sends one
// frame and returns the raw decoded response for frames with an ID;
// notifications (ID == nil) return a nil response.
type Transport interface {
	Start(ctx context.Context) error
	Call(ctx context.Context, frame Frame) (map[string]any, error)
	Close() error
}

// SpawnConfig is the information needed to start one MCP server,
// supplied by the Connector service (spec.md §4.4).
type SpawnConfig struct {
	ServerID  string
	Transport string // stdio | http-sse | docker
	Command   string
	Args      []string
	Env       map[string]string
	URL       string // http-sse
	Image     string // docker
	Port      int    // docker: published port, assigned by the caller
}
