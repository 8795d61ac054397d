package sync

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Reconnect/backoff constants. These are part of the wire-compatible
// behavior and must not drift.
const (
	reconnectBaseDelay   = 1000 * time.Millisecond
	reconnectMaxDelay    = 30000 * time.Millisecond
	reconnectJitterMax   = 1000 * time.Millisecond
	maxReconnectAttempts = 10

	sendPollInterval = 500 * time.Millisecond
	maxSendPolls     = 6

	heartbeatInterval = 30 * time.Second
	writeWait         = 10 * time.Second
)

// CloudConn is the subset of *websocket.Conn the cloud channel uses,
// abstracted so tests can inject a fake transport
type CloudConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// CloudDialer opens a socket to the per-tenant cloud endpoint
type CloudDialer func(url string, header http.Header) (CloudConn, error)

// GorillaDialer is the production dialer
func GorillaDialer(url string, header http.Header) (CloudConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// CloudChannel owns the single persistent socket to
// {CLOUD_WS_BASE}/ws/orders/{tenantId} and drives the
// disconnected → connecting → connected state machine with exponential
// backoff. One instance per service; never shared.
type CloudChannel struct {
	mu sync.Mutex

	clock   Clock
	dial    CloudDialer
	baseURL string
	token   string

	tenantID string
	state    ConnectionState
	conn     CloudConn
	attempts int
	closed   bool

	reconnectTimer Timer
	heartbeatTimer Timer

	// Callbacks are set once before the first Connect
	onMessage     func(data []byte)
	onStateChange func(state ConnectionState)
	onError       func(err error)
}

// NewCloudChannel creates a cloud channel for baseURL (e.g.
// wss://sync.handsfreepos.com). token, when non-empty, is sent as a
// bearer header on every dial.
func NewCloudChannel(baseURL, token string, dial CloudDialer, clock Clock) *CloudChannel {
	if dial == nil {
		dial = GorillaDialer
	}
	if clock == nil {
		clock = NewRealClock()
	}
	return &CloudChannel{
		clock:   clock,
		dial:    dial,
		baseURL: baseURL,
		token:   token,
		state:   StateDisconnected,
	}
}

// SetHandlers registers the channel's callbacks. Must be called before
// Connect.
func (c *CloudChannel) SetHandlers(onMessage func([]byte), onStateChange func(ConnectionState), onError func(error)) {
	c.onMessage = onMessage
	c.onStateChange = onStateChange
	c.onError = onError
}

// SetTenant sets the tenant id the channel connects for. Connecting
// without a tenant id is a no-op.
func (c *CloudChannel) SetTenant(tenantID string) {
	c.mu.Lock()
	c.tenantID = tenantID
	c.closed = false
	c.mu.Unlock()
}

// State returns the current connection state
func (c *CloudChannel) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many connection attempts have failed since the
// last successful open
func (c *CloudChannel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect dials the cloud endpoint. No-op if already connecting or
// connected, if no tenant id is set, or after Shutdown. Safe to call
// from any goroutine; the dial itself happens on the caller.
func (c *CloudChannel) Connect() {
	c.mu.Lock()
	if c.closed || c.tenantID == "" || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	url := fmt.Sprintf("%s/ws/orders/%s", c.baseURL, c.tenantID)
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	c.notifyState(StateConnecting)
	log.Printf("[Cloud] Connecting to %s", url)

	conn, err := c.dial(url, header)
	if err != nil {
		c.reportError(fmt.Errorf("cloud dial failed: %w", err))
		c.handleDisconnect(nil)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()

	log.Printf("[Cloud] Connected")
	c.notifyState(StateConnected)

	go c.readLoop(conn)
	c.armHeartbeat(conn)

	// Catch up from peers right away
	c.requestSync()
}

// requestSync asks peers for their current state
func (c *CloudChannel) requestSync() {
	frame, err := EncodeMessage(&RequestSync{})
	if err != nil {
		return
	}
	if !c.Send(frame) {
		log.Printf("[Cloud] Failed to request sync after connect")
	}
}

// Send writes a frame if the socket is open. Returns false (and drops
// the frame) otherwise; it never blocks waiting for a connection.
func (c *CloudChannel) Send(data []byte) bool {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateConnected && conn != nil
	c.mu.Unlock()

	if !open {
		return false
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.reportError(fmt.Errorf("cloud send failed: %w", err))
		return false
	}
	return true
}

// SendWithRetry implements the outbound send contract: if the socket is
// not open it kicks off a reconnect and polls up to 6 times at 500 ms
// intervals before giving up. Failed sends are dropped, not queued, and
// nothing is ever thrown at the caller.
func (c *CloudChannel) SendWithRetry(data []byte) bool {
	if c.Send(data) {
		return true
	}

	go c.Connect()
	for i := 0; i < maxSendPolls; i++ {
		c.clock.Sleep(sendPollInterval)
		if c.Send(data) {
			return true
		}
	}
	log.Printf("[Cloud] Dropping message: socket still closed after %d polls", maxSendPolls)
	return false
}

// readLoop pumps frames off the socket until it dies
func (c *CloudChannel) readLoop(conn CloudConn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.reportError(fmt.Errorf("cloud socket closed: %w", err))
			}
			c.handleDisconnect(conn)
			return
		}
		if c.onMessage != nil {
			c.onMessage(data)
		}
	}
}

// handleDisconnect moves to disconnected and schedules a reconnect
// unless shutdown was requested or the attempt budget is spent.
// Exhausting the budget is not fatal: the service keeps running on
// whatever the LAN mesh provides.
func (c *CloudChannel) handleDisconnect(conn CloudConn) {
	c.mu.Lock()
	if conn != nil && c.conn != conn {
		// A stale read loop lost a race with a newer connection
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.stopHeartbeatLocked()

	schedule := false
	var delay time.Duration
	if !c.closed {
		c.attempts++
		if c.attempts >= maxReconnectAttempts {
			log.Printf("[Cloud] Reached %d failed attempts, stopping automatic reconnect", maxReconnectAttempts)
		} else {
			delay = reconnectDelay(c.attempts - 1)
			schedule = true
		}
	}
	if schedule {
		c.reconnectTimer = c.clock.AfterFunc(delay, c.Connect)
	}
	c.mu.Unlock()

	if schedule {
		log.Printf("[Cloud] Disconnected, retrying in %v (attempt %d/%d)", delay, c.attempts, maxReconnectAttempts)
	}
	c.notifyState(StateDisconnected)
}

// reconnectDelay returns min(base * 2^n, max) plus up to 1 s of jitter
func reconnectDelay(n int) time.Duration {
	delay := reconnectBaseDelay
	for i := 0; i < n && delay < reconnectMaxDelay; i++ {
		delay *= 2
	}
	if delay > reconnectMaxDelay {
		delay = reconnectMaxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(reconnectJitterMax)))
}

// armHeartbeat schedules periodic pings while conn stays current
func (c *CloudChannel) armHeartbeat(conn CloudConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopHeartbeatLocked()
	c.heartbeatTimer = c.clock.AfterFunc(heartbeatInterval, func() {
		c.mu.Lock()
		current := c.conn == conn && c.state == StateConnected
		c.mu.Unlock()
		if !current {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, c.clock.Now().Add(writeWait)); err != nil {
			return
		}
		c.armHeartbeat(conn)
	})
}

func (c *CloudChannel) stopHeartbeatLocked() {
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
		c.heartbeatTimer = nil
	}
}

// Shutdown closes the socket with a clean status code, cancels any
// pending reconnect timer, and prevents further automatic connects.
// Synchronous: no timer fires after it returns.
func (c *CloudChannel) Shutdown() {
	c.mu.Lock()
	c.closed = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.attempts = 0
	c.tenantID = ""
	c.mu.Unlock()

	if conn != nil {
		deadline := c.clock.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"), deadline)
		conn.Close()
	}
}

func (c *CloudChannel) notifyState(state ConnectionState) {
	if c.onStateChange != nil {
		c.onStateChange(state)
	}
}

func (c *CloudChannel) reportError(err error) {
	log.Printf("[Cloud] %v", err)
	if c.onError != nil {
		c.onError(err)
	}
}
