package gamelink

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	dialTimeout   = 10 * time.Second
	writeTimeout  = 5 * time.Second
	maxBackoff    = 30 * time.Second
	pingFailLimit = 2
)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// WebSocket keeps one connection to the game server alive and fans frames out to
// registered callbacks.
type WebSocket struct {
	wsURL string

	mu         sync.RWMutex
	conn       *websocket.Conn
	connCancel context.CancelFunc
	state      State

	writeM sync.Mutex

	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	nextCbID int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	pingInterval         time.Duration

	headerProvider HeaderProvider
	logger         *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type WSOption func(*WebSocket)

func WithWSHeaders(h HeaderProvider) WSOption {
	return func(ws *WebSocket) { ws.headerProvider = h }
}

func WithPingInterval(d time.Duration) WSOption {
	return func(ws *WebSocket) { ws.pingInterval = d }
}

func WithWSLogger(l *zap.Logger) WSOption {
	return func(ws *WebSocket) { ws.logger = l }
}

// NewWebSocket creates a disconnected socket. maxReconnectAttempts of zero disables
// reconnects; reconnectDelay is the first backoff step.
func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, opts ...WSOption) *WebSocket {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	ws := &WebSocket{
		wsURL:                wsURL,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		rootCtx:              rootCtx,
		rootCancel:           rootCancel,
		logger:               zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ws)
	}
	if ws.reconnectDelay <= 0 {
		ws.reconnectDelay = 100 * time.Millisecond
	}
	return ws
}

// Connect dials once. On failure it schedules background reconnects and returns the dial error.
func (ws *WebSocket) Connect(ctx context.Context) error {
	if s := ws.State(); s == StateConnected || s == StateConnecting {
		return nil
	}
	ws.setState(StateConnecting)

	conn, err := ws.dial(ctx)
	if err != nil {
		ws.setState(StateFailed)
		ws.scheduleReconnect()
		return err
	}
	ws.attach(conn)
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
	connCtx, cancel := context.WithCancel(ws.rootCtx)
	ws.mu.Lock()
	ws.conn = conn
	ws.connCancel = cancel
	ws.mu.Unlock()
	ws.setState(StateConnected)

	ws.wg.Add(2)
	go ws.listen(connCtx, conn)
	go ws.pingLoop(connCtx, conn)
}

func (ws *WebSocket) listen(ctx context.Context, conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if ws.isStopping() {
				return
			}
			ws.logger.Warn("ws_read_error", zap.Error(err))
			ws.drop(conn, "read failure")
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		ws.cbM.RLock()
		callbacks := make([]callbackEntry, len(ws.msgCbs))
		copy(callbacks, ws.msgCbs)
		ws.cbM.RUnlock()
		for _, entry := range callbacks {
			entry.callback(data)
		}
	}
}

func (ws *WebSocket) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= pingFailLimit {
				if ws.isStopping() {
					return
				}
				ws.logger.Warn("ws_ping_failure", zap.Int("failures", failures), zap.Error(err))
				ws.drop(conn, "ping failure")
				return
			}
		}
	}
}

// drop tears down conn if it is still the active connection and starts reconnecting.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.mu.Lock()
	if ws.conn != conn {
		ws.mu.Unlock()
		return
	}
	ws.conn = nil
	cancel := ws.connCancel
	ws.connCancel = nil
	ws.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = conn.Close(websocket.StatusGoingAway, reason)
	ws.setState(StateDisconnected)
	ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
		return
	}
	ws.setState(StateReconnecting)

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(ws.backoff(attempt)):
			}
			conn, err := ws.dial(ws.rootCtx)
			if err != nil {
				ws.logger.Debug("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			ws.logger.Info("ws_reconnected", zap.Int("attempt", attempt))
			ws.attach(conn)
			return
		}
		ws.setState(StateFailed)
	}()
}

func (ws *WebSocket) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 8 {
		attempt = 8
	}
	d := ws.reconnectDelay * time.Duration(1<<uint(attempt-1))
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Send writes v as one JSON text frame. Writes are serialized.
func (ws *WebSocket) Send(ctx context.Context, v any) error {
	ws.mu.RLock()
	conn, state := ws.conn, ws.state
	ws.mu.RUnlock()
	if conn == nil || state != StateConnected {
		return ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, writeTimeout)
		defer cancel()
	}
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	return wsjson.Write(ctx, conn, v)
}

// Connected reports whether a connection is currently up.
func (ws *WebSocket) Connected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn != nil && ws.state == StateConnected
}

func (ws *WebSocket) State() State {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

// OnMessage registers cb and returns an id for RemoveMessageCallback.
func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.msgCbs {
		if cb.id == id {
			ws.msgCbs = append(ws.msgCbs[:i:i], ws.msgCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i:i], ws.stateCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) setState(state State) {
	ws.mu.Lock()
	changed := ws.state != state
	ws.state = state
	ws.mu.Unlock()
	if !changed {
		return
	}

	ws.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, entry := range callbacks {
		entry.callback(state)
	}
}

// Close stops reconnects, closes the connection and waits for background goroutines.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })

	ws.mu.Lock()
	conn, cancel := ws.conn, ws.connCancel
	ws.conn, ws.connCancel = nil, nil
	ws.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	if cancel != nil {
		cancel()
	}
	ws.rootCancel()

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(StateDisconnected)
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headerProvider == nil {
		return hdr
	}
	for k, v := range ws.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
