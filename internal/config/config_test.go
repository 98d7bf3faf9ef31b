package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CEC_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "cec-server", cfg.App.Name)
	assert.Equal(t, ":7100", cfg.TCP.Addr)
	assert.Equal(t, 5*time.Second, cfg.TCP.WriteTimeout)
	assert.Equal(t, "cec:unhandled", cfg.Redis.QueueKey)
	assert.False(t, cfg.Redis.Enabled)
	require.Len(t, cfg.CEC.Devices, 1)
	assert.Equal(t, uint8(4), cfg.CEC.Devices[0].LogicalAddress)
	assert.Equal(t, "1.0.0.0", cfg.CEC.Devices[0].PhysicalAddress)
	assert.Equal(t, 64, cfg.CEC.InboxSize)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cec.yaml")
	content := `
http:
  addr: ":9090"
cec:
  inboxSize: 8
  devices:
    - logicalAddress: 4
      physicalAddress: "1.0.0.0"
      osdName: "Player"
    - logicalAddress: 5
      physicalAddress: "2.0.0.0"
      osdName: "Amp"
      cecVersion: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CEC_TCP_ADDR", ":7200")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, ":7200", cfg.TCP.Addr)
	assert.Equal(t, 8, cfg.CEC.InboxSize)
	require.Len(t, cfg.CEC.Devices, 2)
	assert.Equal(t, "Amp", cfg.CEC.Devices[1].OSDName)
	assert.Equal(t, uint8(5), cfg.CEC.Devices[1].CECVersion)
}

func TestValidate(t *testing.T) {
	cfg := &Config{CEC: CECConfig{Devices: []DeviceConfig{{LogicalAddress: 15}}}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{CEC: CECConfig{Devices: []DeviceConfig{{LogicalAddress: 4}, {LogicalAddress: 4}}}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{CEC: CECConfig{Devices: []DeviceConfig{{LogicalAddress: 4, VendorID: 0x1000000}}}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{CEC: CECConfig{Devices: []DeviceConfig{{LogicalAddress: 4}, {LogicalAddress: 5}}}}
	assert.NoError(t, cfg.Validate())
}
