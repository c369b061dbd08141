package mcpruntime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	sweepInterval  = 60 * time.Second
	idleTimeout    = 5 * time.Minute
	poolTTL        = 30 * time.Minute
	maxSessions    = 100
)

// Session is one live MCP server connection.
type Session struct {
	ServerID   string
	Transport  Transport
	Tools      []Tool
	createdAt  time.Time
	lastUsedAt time.Time
}

// keyMutex is a ref-counted per-key lock, generalized from the payment
// gate's lockForExecutionKey (internal/mcp/payment.go) to lock per
// serverId instead of per payment-execution-key.
type keyMutex struct {
	mu  sync.Mutex
	ref int
}

// Pool holds one active session per serverId, spawning lazily and
// reusing within idleTimeout/poolTTL, per spec.md §4.4. A background
// sweeper closes idle and TTL-expired sessions; maxSessions is enforced
// when a new session is spawned.
type Pool struct {
	spawn func(ctx context.Context, serverID string) (Transport, error)

	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*keyMutex

	sweepStop chan struct{}
}

// NewPool builds a Pool; spawn constructs and Start()s a Transport for a
// given serverId (typically consulting spawnconfig.go).
func NewPool(spawn func(ctx context.Context, serverID string) (Transport, error)) *Pool {
	p := &Pool{
		spawn:     spawn,
		sessions:  make(map[string]*Session),
		locks:     make(map[string]*keyMutex),
		sweepStop: make(chan struct{}),
	}
	go p.runSweeper()
	return p
}

func (p *Pool) lockFor(serverID string) func() {
	p.mu.Lock()
	km, ok := p.locks[serverID]
	if !ok {
		km = &keyMutex{}
		p.locks[serverID] = km
	}
	km.ref++
	p.mu.Unlock()

	km.mu.Lock()
	return func() {
		km.mu.Unlock()
		p.mu.Lock()
		km.ref--
		if km.ref == 0 {
			delete(p.locks, serverID)
		}
		p.mu.Unlock()
	}
}

// GetServerTools returns the cached tool list for serverID, spawning a
// session if none is live.
func (p *Pool) GetServerTools(ctx context.Context, serverID string) ([]Tool, error) {
	sess, err := p.getOrSpawn(ctx, serverID)
	if err != nil {
		return nil, err
	}
	return sess.Tools, nil
}

// ExecuteServerTool calls a tool on serverID's session, spawning it if
// needed, and touches the session's last-used time for idle eviction.
// The call is bounded by a 60s timeout; a failed or timed-out call
// discards the session.
func (p *Pool) ExecuteServerTool(ctx context.Context, serverID, toolName string, args map[string]any) (*ToolCallResult, error) {
	sess, err := p.getOrSpawn(ctx, serverID)
	if err != nil {
		return nil, err
	}

	unlock := p.lockFor(serverID)
	defer unlock()

	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	var id int64 = 1
	raw, err := sess.Transport.Call(callCtx, Frame{
		Method: MethodToolsCall,
		Params: map[string]any{"name": toolName, "arguments": args},
		ID:     &id,
	})

	var headers http.Header
	if capturer, ok := sess.Transport.(HeaderCapturer); ok {
		headers = capturer.LastResponseHeaders()
	}
	if err != nil {
		p.evict(serverID, sess)
		return nil, &ToolCallError{Err: err, Headers: headers, StatusCode: statusCodeOf(err)}
	}
	p.mu.Lock()
	sess.lastUsedAt = time.Now()
	p.mu.Unlock()

	result, err := ParseToolCallResult(raw)
	if err != nil {
		p.evict(serverID, sess)
		return nil, &ToolCallError{Err: err, Headers: headers, StatusCode: statusCodeOf(err)}
	}
	result.ResponseHeaders = headers
	return result, nil
}

// statusCodeOf extracts the upstream HTTP status code from a transport
// error chain, if one is present (spec.md §4.6 402-passthrough).
func statusCodeOf(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// evict discards serverID's session (if it's still the one passed in)
// and closes its transport, so the next call reconstructs it — a
// tools/call failure (e.g. a dead subprocess) must not be retried
// forever against the same stale transport (spec.md §4.4, §7).
func (p *Pool) evict(serverID string, sess *Session) {
	p.mu.Lock()
	if cur, ok := p.sessions[serverID]; ok && cur == sess {
		delete(p.sessions, serverID)
	}
	p.mu.Unlock()
	_ = sess.Transport.Close()
}

func (p *Pool) getOrSpawn(ctx context.Context, serverID string) (*Session, error) {
	unlock := p.lockFor(serverID)
	defer unlock()

	p.mu.Lock()
	sess, cached := p.sessions[serverID]
	p.mu.Unlock()

	if cached {
		if pingSession(ctx, sess) {
			p.mu.Lock()
			sess.lastUsedAt = time.Now()
			p.mu.Unlock()
			return sess, nil
		}
		// Stale session: lightweight tools/list failed (e.g. dead
		// subprocess). Discard and fall through to respawn.
		p.evict(serverID, sess)
	}

	p.mu.Lock()
	count := len(p.sessions)
	p.mu.Unlock()

	if count >= maxSessions {
		return nil, fmt.Errorf("mcpruntime: pool at capacity (%d sessions)", maxSessions)
	}

	transport, err := p.spawn(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if err := transport.Start(ctx); err != nil {
		return nil, err
	}
	if err := initializeSession(ctx, transport); err != nil {
		_ = transport.Close()
		return nil, err
	}

	var listID int64 = 1
	raw, err := transport.Call(ctx, Frame{Method: MethodToolsList, Params: map[string]any{}, ID: &listID})
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	tools, err := ParseToolsList(raw)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	now := time.Now()
	sess := &Session{ServerID: serverID, Transport: transport, Tools: tools, createdAt: now, lastUsedAt: now}

	p.mu.Lock()
	p.sessions[serverID] = sess
	p.mu.Unlock()
	return sess, nil
}

// pingSession verifies a cached session is still alive with a
// lightweight tools/list round trip, per spec.md §4.4: a cache hit
// younger than the pool TTL is checked before being trusted, rather
// than served indefinitely until a tools/call happens to hit it dead.
func pingSession(ctx context.Context, sess *Session) bool {
	var id int64 = 0
	_, err := sess.Transport.Call(ctx, Frame{Method: MethodToolsList, Params: map[string]any{}, ID: &id})
	return err == nil
}

func initializeSession(ctx context.Context, t Transport) error {
	var id int64 = 0
	_, err := t.Call(ctx, Frame{
		Method: MethodInitialize,
		Params: map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"clientInfo":      map[string]any{"name": "agentgate", "version": "0.1.0"},
		},
		ID: &id,
	})
	if err != nil {
		return err
	}
	_, err = t.Call(ctx, Frame{Method: MethodNotificationsInitialized, Params: map[string]any{}})
	return err
}

// runSweeper closes sessions idle past idleTimeout or older than poolTTL,
// every sweepInterval — mirroring the teacher's runSessionCleanup.
func (p *Pool) runSweeper() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.sweepStop:
			return
		case now := <-ticker.C:
			p.sweepOnce(now)
		}
	}
}

func (p *Pool) sweepOnce(now time.Time) {
	p.mu.Lock()
	var expired []*Session
	for id, sess := range p.sessions {
		if now.Sub(sess.lastUsedAt) > idleTimeout || now.Sub(sess.createdAt) > poolTTL {
			expired = append(expired, sess)
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()

	for _, sess := range expired {
		_ = sess.Transport.Close()
	}
}

// Close stops the sweeper and every live session.
func (p *Pool) Close() error {
	close(p.sweepStop)
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]*Session)
	p.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.Transport.Close()
	}
	return nil
}
