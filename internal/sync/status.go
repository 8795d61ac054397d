package sync

// ConnectionState is the lifecycle state of a single transport
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// SyncPath says which transport(s) are currently carrying sync traffic.
// It is always derived from the two transport states, never stored.
type SyncPath string

const (
	PathNone  SyncPath = "none"
	PathCloud SyncPath = "cloud"
	PathLan   SyncPath = "lan"
	PathBoth  SyncPath = "both"
)

// AggregateStatus combines the two transport states into the single
// externally-visible connection status: connected if either transport
// is connected, else connecting if either is connecting.
func AggregateStatus(cloud, lan ConnectionState) ConnectionState {
	if cloud == StateConnected || lan == StateConnected {
		return StateConnected
	}
	if cloud == StateConnecting || lan == StateConnecting {
		return StateConnecting
	}
	return StateDisconnected
}

// ActivePath derives the active sync path from the transport states
func ActivePath(cloud, lan ConnectionState) SyncPath {
	switch {
	case cloud == StateConnected && lan == StateConnected:
		return PathBoth
	case cloud == StateConnected:
		return PathCloud
	case lan == StateConnected:
		return PathLan
	default:
		return PathNone
	}
}

// DetailedStatus is the full connection picture exposed to callers and
// the local status endpoint
type DetailedStatus struct {
	Status     ConnectionState `json:"status"`
	ActivePath SyncPath        `json:"activePath"`
	Cloud      ConnectionState `json:"cloud"`
	Lan        ConnectionState `json:"lan"`
	LanRole    string          `json:"lanRole"` // server | client | none
	LanClients int             `json:"lanClients"`
	TenantID   string          `json:"tenantId,omitempty"`
}
