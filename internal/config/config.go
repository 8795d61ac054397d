package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DeviceType identifies which kind of device this process runs on.
// The POS terminal hosts the LAN sync server; every other device type
// connects to it as a client.
type DeviceType string

const (
	DevicePOS     DeviceType = "pos"     // Point-of-sale terminal (LAN host)
	DeviceKDS     DeviceType = "kds"     // Kitchen display
	DeviceBDS     DeviceType = "bds"     // Bar display / aggregator tablet
	DeviceManager DeviceType = "manager" // Service-staff handheld
)

// IsValid reports whether the device type is one we know
func (d DeviceType) IsValid() bool {
	switch d {
	case DevicePOS, DeviceKDS, DeviceBDS, DeviceManager:
		return true
	}
	return false
}

// IsLanHost reports whether this device type hosts the LAN sync server
func (d DeviceType) IsLanHost() bool {
	return d == DevicePOS
}

// Config holds all application configuration
type Config struct {
	TenantID   string
	DeviceType DeviceType
	JWTSecret  string

	// Cloud sync
	CloudWSBase string // e.g. wss://sync.handsfreepos.com

	// LAN sync. LanServerAddr is where client devices find the POS
	// host; the host itself leaves it empty.
	LanPort       string
	LanServerAddr string
	LanEnabled    bool

	// Local HTTP surface (status, QR codes)
	HTTPPort string

	// Local order journal
	SQLitePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	tenantID := os.Getenv("TENANT_ID")
	if tenantID == "" {
		return nil, fmt.Errorf("TENANT_ID is required")
	}

	deviceType := DeviceType(getEnv("DEVICE_TYPE", string(DevicePOS)))
	if !deviceType.IsValid() {
		return nil, fmt.Errorf("invalid DEVICE_TYPE %q (must be pos, kds, bds or manager)", deviceType)
	}

	return &Config{
		TenantID:      tenantID,
		DeviceType:    deviceType,
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CloudWSBase:   getEnv("CLOUD_WS_BASE", "wss://sync.handsfreepos.com"),
		LanPort:       getEnv("LAN_SYNC_PORT", "3847"),
		LanServerAddr: os.Getenv("LAN_SERVER_ADDR"),
		LanEnabled:    getEnv("LAN_SYNC_ENABLED", "true") == "true",
		HTTPPort:      getEnv("HTTP_PORT", "3848"),
		SQLitePath:    getEnv("SQLITE_PATH", "handsfree.db"),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
