package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresTenantID(t *testing.T) {
	t.Setenv("TENANT_ID", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TENANT_ID", "tenant-1")
	t.Setenv("DEVICE_TYPE", "")
	t.Setenv("CLOUD_WS_BASE", "")
	t.Setenv("LAN_SYNC_PORT", "")
	t.Setenv("LAN_SYNC_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", cfg.TenantID)
	assert.Equal(t, DevicePOS, cfg.DeviceType)
	assert.Equal(t, "wss://sync.handsfreepos.com", cfg.CloudWSBase)
	assert.Equal(t, "3847", cfg.LanPort)
	assert.Equal(t, "3848", cfg.HTTPPort)
	assert.True(t, cfg.LanEnabled)
}

func TestLoad_RejectsUnknownDeviceType(t *testing.T) {
	t.Setenv("TENANT_ID", "tenant-1")
	t.Setenv("DEVICE_TYPE", "toaster")
	_, err := Load()
	assert.Error(t, err)
}

func TestDeviceType(t *testing.T) {
	assert.True(t, DevicePOS.IsLanHost())
	assert.False(t, DeviceKDS.IsLanHost())
	assert.False(t, DeviceBDS.IsLanHost())
	assert.False(t, DeviceManager.IsLanHost())

	assert.True(t, DeviceKDS.IsValid())
	assert.False(t, DeviceType("toaster").IsValid())
}
