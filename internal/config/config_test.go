package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mc3000d.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("MC3000_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mc3000d", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, TransportBLE, cfg.Device.Transport)
	assert.Equal(t, 2*time.Second, cfg.Device.ResponseTimeout)
	assert.Equal(t, []string{"Charger"}, cfg.Device.BLE.Names)
	assert.Equal(t, 10*time.Second, cfg.Device.BLE.ScanTimeout)
	assert.Equal(t, 3, cfg.Device.BLE.MaxUnanswered)
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval)
	assert.True(t, cfg.Metrics.Enable)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Logging.File.Filename)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
device:
  transport: sim
  responseTimeout: 500ms
  sim:
    profile: ./sim.yaml
poll:
  interval: 5s
api:
  authEnabled: true
  apiKeys: ["k1", "k2"]
redis:
  enabled: true
  addr: redis:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportSim, cfg.Device.Transport)
	assert.Equal(t, 500*time.Millisecond, cfg.Device.ResponseTimeout)
	assert.Equal(t, "./sim.yaml", cfg.Device.Sim.Profile)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, []string{"k1", "k2"}, cfg.API.APIKeys)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	// 未覆盖项保持默认
	assert.Equal(t, "mc3000:snapshot", cfg.Redis.Channel)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "device:\n  transport: ble\n")
	t.Setenv("MC3000_DEVICE_TRANSPORT", "sim")
	t.Setenv("MC3000_HTTP_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportSim, cfg.Device.Transport)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_ConfigEnvPath(t *testing.T) {
	path := writeConfig(t, "app:\n  name: bench\n")
	t.Setenv("MC3000_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.App.Name)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"未知链路", "device:\n  transport: usb\n"},
		{"超时为零", "device:\n  responseTimeout: 0s\n"},
		{"认证无密钥", "api:\n  authEnabled: true\n"},
		{"限流参数", "api:\n  rateLimit:\n    rps: 0\n"},
		{"轮询间隔", "poll:\n  interval: 0s\n"},
		{"语法错误", "device: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
