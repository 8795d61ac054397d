package sync

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/suyeshs/hands-free-sub005/internal/models"
)

// fakeClock lets tests fast-forward reconnect delays and dedup expiry
// deterministically
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	sleeps int
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Sleep advances the clock, firing due timers, so send-retry polling
// completes instantly in tests
func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps++
	c.mu.Unlock()
	c.Advance(d)
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// Advance moves time forward, firing timers in order
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.when.After(c.now) {
			c.now = next.when
		}
		f := next.f
		c.mu.Unlock()
		f()
	}
}

// pendingTimers counts timers that are armed and not yet fired
func (c *fakeClock) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// sleepCount reports how many Sleep calls have happened
func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// fakeConn is an in-memory cloud socket
type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
	inbox  chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:  make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.inbox:
		return 1, data, nil
	case <-c.closed:
		return 0, nil, fmt.Errorf("connection closed")
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return fmt.Errorf("connection closed")
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// deliver pushes an inbound frame through the read loop
func (c *fakeConn) deliver(data []byte) {
	c.inbox <- data
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// fakeDialer scripts dial outcomes: the first failBefore attempts fail,
// later ones hand out fresh fakeConns
type fakeDialer struct {
	mu         sync.Mutex
	failBefore int
	attempts   int
	conns      []*fakeConn
}

func (d *fakeDialer) dial(url string, header http.Header) (CloudConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.attempts <= d.failBefore {
		return nil, fmt.Errorf("dial refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialAttempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// failingDialer never connects
func failingDialer(url string, header http.Header) (CloudConn, error) {
	return nil, fmt.Errorf("dial refused")
}

// fakeLan is a scriptable LAN collaborator
type fakeLan struct {
	mu               sync.Mutex
	events           LanEvents
	serverAddr       string
	serverErr        error
	clientStatus     *LanClientStatus
	clientErr        error
	orderBroadcasts  int
	statusBroadcasts int
	broadcastCount   int // clients reached per order broadcast
	serverRunning    bool
	clientLinked     bool
}

func (f *fakeLan) StartServer(tenantID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.serverErr != nil {
		return "", f.serverErr
	}
	f.serverRunning = true
	if f.serverAddr == "" {
		f.serverAddr = "ws://192.168.1.10:3847"
	}
	return f.serverAddr, nil
}

func (f *fakeLan) StopServer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverRunning = false
	return nil
}

func (f *fakeLan) ConnectAsClient(deviceType, tenantID string) (*LanClientStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	if f.clientStatus != nil {
		f.clientLinked = true
	}
	return f.clientStatus, nil
}

func (f *fakeLan) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clientLinked = false
	return nil
}

func (f *fakeLan) BroadcastOrder(order models.Order, kitchenOrder models.KitchenOrder) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderBroadcasts++
	return f.broadcastCount, nil
}

func (f *fakeLan) BroadcastOrderStatus(orderID string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusBroadcasts++
	return nil
}

func (f *fakeLan) Subscribe(events LanEvents) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
}

func (f *fakeLan) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.broadcastCount
}

func (f *fakeLan) orderBroadcastCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderBroadcasts
}

func (f *fakeLan) fire() LanEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

var _ LanCollaborator = (*fakeLan)(nil)
