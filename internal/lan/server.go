package lan

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/suyeshs/hands-free-sub005/internal/models"
	syncsvc "github.com/suyeshs/hands-free-sub005/internal/sync"
	"github.com/suyeshs/hands-free-sub005/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Kitchen displays and handhelds connect from anywhere on the LAN
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one registered client on the host
type session struct {
	clientID    string
	deviceType  string
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	remoteAddr  string
}

// Server is the LAN sync host run by the POS terminal. Other devices
// register over WebSocket and receive every order broadcast.
type Server struct {
	tenantID string
	serverID string
	port     string
	secret   string // non-empty means register tokens are validated

	mu       sync.RWMutex
	sessions map[string]*session
	addr     string

	listener net.Listener
	httpSrv  *http.Server

	events   syncsvc.LanEvents
	snapshot func() []models.Order
}

func newServer(port, tenantID, secret string, events syncsvc.LanEvents, snapshot func() []models.Order) *Server {
	return &Server{
		tenantID: tenantID,
		serverID: uuid.New().String(),
		port:     port,
		secret:   secret,
		sessions: make(map[string]*session),
		events:   events,
		snapshot: snapshot,
	}
}

// start binds the listener and begins accepting clients. Returns the
// ws:// address clients should dial.
func (s *Server) start() (string, error) {
	listener, err := net.Listen("tcp", "0.0.0.0:"+s.port)
	if err != nil {
		return "", fmt.Errorf("failed to bind LAN sync port %s: %w", s.port, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)
	s.httpSrv = &http.Server{Handler: mux}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("[LAN Server] Serve error: %v", err)
			if s.events.OnError != nil {
				s.events.OnError(err)
			}
		}
	}()

	// Report the port actually bound, not the one requested
	port := s.port
	if _, actual, err := net.SplitHostPort(listener.Addr().String()); err == nil {
		port = actual
	}

	host := localIP()
	s.mu.Lock()
	s.addr = fmt.Sprintf("ws://%s:%s", host, port)
	addr := s.addr
	s.mu.Unlock()

	log.Printf("[LAN Server] Listening at %s", addr)
	return addr, nil
}

// serveWS upgrades a connection and runs the registration handshake:
// the first frame must be a register with a matching tenant id.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[LAN Server] Upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))

	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}

	var reg registerFrame
	if err := json.Unmarshal(data, &reg); err != nil || reg.Type != frameRegister {
		s.reject(conn, "Expected register frame", "BAD_HANDSHAKE")
		return
	}
	if reg.TenantID != s.tenantID {
		s.reject(conn, "Tenant ID mismatch", "TENANT_MISMATCH")
		return
	}
	if s.secret != "" {
		claims, err := utils.ParseDeviceToken(reg.Token, s.secret)
		if err != nil {
			s.reject(conn, "Invalid device token", "BAD_TOKEN")
			return
		}
		if tenant, _ := claims["tenant"].(string); tenant != s.tenantID {
			s.reject(conn, "Token issued for another tenant", "BAD_TOKEN")
			return
		}
	}

	sess := &session{
		clientID:    uuid.New().String(),
		deviceType:  reg.DeviceType,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		connectedAt: time.Now(),
		remoteAddr:  r.RemoteAddr,
	}

	s.mu.Lock()
	s.sessions[sess.clientID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	ack := registeredFrame{
		Type:     frameRegistered,
		ClientID: sess.clientID,
		ServerInfo: serverInfo{
			ServerID:         s.serverID,
			TenantID:         s.tenantID,
			ConnectedClients: count,
			ServerTime:       time.Now(),
		},
	}
	ackData, _ := json.Marshal(ack)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, ackData); err != nil {
		s.dropSession(sess)
		return
	}

	log.Printf("[LAN Server] Client registered: %s (%s) from %s", sess.clientID, sess.deviceType, sess.remoteAddr)
	if s.events.OnClientConnected != nil {
		s.events.OnClientConnected(syncsvc.LanClientInfo{
			ClientID:    sess.clientID,
			DeviceType:  sess.deviceType,
			ConnectedAt: sess.connectedAt,
			IPAddress:   sess.remoteAddr,
		})
	}

	go sess.writePump()
	go s.readPump(sess)

	// Bring the new device up to date immediately
	s.pushSnapshot(sess)
}

func (s *Server) reject(conn *websocket.Conn, message, code string) {
	frame, _ := json.Marshal(errorFrame{Type: frameError, Message: message, Code: code})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, frame)
	conn.Close()
	log.Printf("[LAN Server] Rejected client: %s", code)
}

// pushSnapshot sends the current active-order state to one client
func (s *Server) pushSnapshot(sess *session) {
	if s.snapshot == nil {
		return
	}
	frame, err := syncsvc.EncodeMessage(&syncsvc.SyncState{ActiveOrders: s.snapshot()})
	if err != nil {
		return
	}
	select {
	case sess.send <- frame:
	default:
	}
}

// readPump handles keep-alive pings from one client until it drops
func (s *Server) readPump(sess *session) {
	defer s.dropSession(sess)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))

		var ctl controlFrame
		if err := json.Unmarshal(data, &ctl); err != nil {
			continue
		}
		if ctl.Type == framePing {
			pong, _ := json.Marshal(controlFrame{Type: framePong})
			select {
			case sess.send <- pong:
			default:
			}
		}
	}
}

// writePump drains the session's send channel onto the socket
func (sess *session) writePump() {
	defer sess.conn.Close()

	for msg := range sess.send {
		sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sess.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	// Channel closed by dropSession
	sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *Server) dropSession(sess *session) {
	s.mu.Lock()
	if _, ok := s.sessions[sess.clientID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, sess.clientID)
	s.mu.Unlock()

	close(sess.send)
	sess.conn.Close()

	log.Printf("[LAN Server] Client disconnected: %s", sess.clientID)
	if s.events.OnClientDisconnected != nil {
		s.events.OnClientDisconnected(sess.clientID)
	}
}

// broadcast fans a frame out to every registered client and returns how
// many had room to take it
func (s *Server) broadcast(frame []byte) int {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	sent := 0
	for _, sess := range sessions {
		select {
		case sess.send <- frame:
			sent++
		default:
			// Buffer full or client dead; its read pump will reap it
		}
	}
	return sent
}

// clientCount returns the number of registered clients
func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// stop closes the listener and drops every client
func (s *Server) stop() error {
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}

	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		s.dropSession(sess)
	}
	log.Printf("[LAN Server] Stopped")
	return nil
}

// localIP finds this machine's LAN address for the advertised ws:// URL
func localIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "localhost"
}
