package lan

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	syncsvc "github.com/suyeshs/hands-free-sub005/internal/sync"
)

// Client is the LAN link a kitchen display, bar display or handheld
// keeps to the POS host
type Client struct {
	deviceType string
	tenantID   string
	serverAddr string
	token      string

	mu       sync.Mutex
	conn     *websocket.Conn
	clientID string
	done     chan struct{}

	events syncsvc.LanEvents
}

func newClient(deviceType, tenantID, serverAddr, token string, events syncsvc.LanEvents) *Client {
	return &Client{
		deviceType: deviceType,
		tenantID:   tenantID,
		serverAddr: serverAddr,
		token:      token,
		events:     events,
	}
}

// connect dials the host, registers and starts the receive loop
func (c *Client) connect() (*syncsvc.LanClientStatus, error) {
	url := c.serverAddr
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		url = "ws://" + url
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	reg, _ := json.Marshal(registerFrame{
		Type:       frameRegister,
		DeviceType: c.deviceType,
		TenantID:   c.tenantID,
		Token:      c.token,
	})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, reg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send registration: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(writeWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("no response from LAN host: %w", err)
	}

	var head controlFrame
	if err := json.Unmarshal(data, &head); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unexpected response from LAN host")
	}
	switch head.Type {
	case frameRegistered:
		var ack registeredFrame
		if err := json.Unmarshal(data, &ack); err != nil {
			conn.Close()
			return nil, fmt.Errorf("malformed registration ack")
		}
		c.mu.Lock()
		c.conn = conn
		c.clientID = ack.ClientID
		c.done = make(chan struct{})
		c.mu.Unlock()
	case frameError:
		var e errorFrame
		_ = json.Unmarshal(data, &e)
		conn.Close()
		return nil, fmt.Errorf("registration rejected: %s (%s)", e.Message, e.Code)
	default:
		conn.Close()
		return nil, fmt.Errorf("unexpected %s frame during registration", head.Type)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	log.Printf("[LAN Client] Connected to %s as %s", url, c.clientID)

	if c.events.OnConnected != nil {
		c.events.OnConnected()
	}

	go c.run(conn)

	return &syncsvc.LanClientStatus{
		IsConnected:   true,
		ServerAddress: c.serverAddr,
		ClientID:      c.clientID,
		DeviceType:    c.deviceType,
	}, nil
}

// run pumps broadcasts off the socket and keeps the link alive with
// periodic pings until the host goes away or disconnect is called
func (c *Client) run(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		if c.events.OnDisconnected != nil {
			c.events.OnDisconnected()
		}
	}()

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	// Ping writer
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		ping, _ := json.Marshal(controlFrame{Type: framePing})
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				// Deliberate disconnect
			default:
				log.Printf("[LAN Client] Connection lost: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleFrame(data)
	}
}

// handleFrame routes one broadcast from the host into the event set
func (c *Client) handleFrame(data []byte) {
	var head controlFrame
	if err := json.Unmarshal(data, &head); err != nil {
		return
	}
	if head.Type == framePong {
		return
	}

	msg, err := syncsvc.DecodeMessage(data)
	if err != nil {
		log.Printf("[LAN Client] Discarding frame: %v", err)
		return
	}

	switch m := msg.(type) {
	case *syncsvc.OrderCreated:
		if c.events.OnOrderCreated != nil {
			c.events.OnOrderCreated(m.Order, m.KitchenOrder)
		}
	case *syncsvc.OrderStatusUpdate:
		if c.events.OnOrderStatusUpdate != nil {
			c.events.OnOrderStatusUpdate(m.OrderID, string(m.Status), m.UpdatedAt)
		}
	case *syncsvc.SyncState:
		if c.events.OnSyncState != nil {
			c.events.OnSyncState(m.ActiveOrders)
		}
	default:
		// The host only relays order traffic today
	}
}

// disconnect drops the link. Safe to call twice.
func (c *Client) disconnect() {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn != nil {
		conn.Close()
	}
}
