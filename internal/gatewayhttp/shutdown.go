package gatewayhttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Server wraps the gin engine with a graceful Run/RunOnListener lifecycle,
// adapted directly from the teacher's internal/mcp/server.go Run/RunOnListener.
type Server struct {
	deps      Deps
	listenAddr string
}

// NewServer builds a Server bound to listenAddr, wiring deps.MCPPool's
// Close (if present) into shutdown so pooled MCP sessions are released
// before the HTTP listener stops accepting connections.
func NewServer(listenAddr string, deps Deps) *Server {
	return &Server{deps: deps, listenAddr: listenAddr}
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	return s.RunOnListener(ctx, ln)
}

// RunOnListener serves until ctx is canceled (typically by a SIGTERM/SIGINT
// handler installed by the caller), then closes the MCP pool and drains
// in-flight requests for up to 5s.
func (s *Server) RunOnListener(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		return errors.New("nil listener passed to RunOnListener")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := NewRouter(s.deps)
	httpServer := &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // SSE inference streams run long
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		err := httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-runCtx.Done():
		s.closeMCPPool()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		s.closeMCPPool()
		return err
	}
}

// mcpPoolCloser is implemented by mcpruntime.Pool; declared narrowly here
// so gatewayhttp doesn't need a direct Close dependency beyond what it uses.
type mcpPoolCloser interface {
	Close() error
}

func (s *Server) closeMCPPool() {
	if closer, ok := s.deps.MCPPool.(mcpPoolCloser); ok {
		_ = closer.Close()
	}
}
