package lan

import "time"

// Handshake and keep-alive frames are LAN-local; everything else on the
// wire is the shared sync message format, so a frame broadcast by the
// host is byte-identical to what the cloud channel would carry.
const (
	frameRegister   = "register"
	frameRegistered = "registered"
	frameError      = "error"
	framePing       = "ping"
	framePong       = "pong"
)

const (
	// DefaultPort is the LAN sync port
	DefaultPort = "3847"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512 * 1024 // 512KB
	sendBuffer     = 256
)

type registerFrame struct {
	Type       string `json:"type"`
	DeviceType string `json:"deviceType"`
	TenantID   string `json:"tenantId"`
	Token      string `json:"token,omitempty"`
}

type serverInfo struct {
	ServerID         string    `json:"serverId"`
	TenantID         string    `json:"tenantId"`
	ConnectedClients int       `json:"connectedClients"`
	ServerTime       time.Time `json:"serverTime"`
}

type registeredFrame struct {
	Type       string     `json:"type"`
	ClientID   string     `json:"clientId"`
	ServerInfo serverInfo `json:"serverInfo"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type controlFrame struct {
	Type string `json:"type"`
}
