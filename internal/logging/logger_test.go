package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
)

func TestNewLogger_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(cfgpkg.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("mc3000: connected", zap.String("address", "AA:BB"))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "mc3000: connected", entry["msg"])
	assert.Equal(t, "AA:BB", entry["address"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mc3000d.log")
	var buf bytes.Buffer
	log, err := newLogger(cfgpkg.LoggingConfig{
		Level:  "debug",
		Format: "console",
		File:   cfgpkg.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	}, &buf)
	require.NoError(t, err)

	log.Debug("mc3000: sending packet")
	require.NoError(t, log.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "mc3000: sending packet")
	assert.Contains(t, buf.String(), "mc3000: sending packet")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := newLogger(cfgpkg.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
