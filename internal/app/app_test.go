package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	"github.com/taoyao-code/skyrc-ble/internal/health"
	"github.com/taoyao-code/skyrc-ble/internal/metrics"
	redisstorage "github.com/taoyao-code/skyrc-ble/internal/storage/redis"
	"github.com/taoyao-code/skyrc-ble/internal/transport/ble"
	"github.com/taoyao-code/skyrc-ble/internal/transport/sim"
)

func TestNewTransport(t *testing.T) {
	log := zap.NewNop()

	tr, err := NewTransport(cfgpkg.DeviceConfig{Transport: cfgpkg.TransportSim}, log)
	require.NoError(t, err)
	assert.IsType(t, &sim.Transport{}, tr)

	tr, err = NewTransport(cfgpkg.DeviceConfig{Transport: cfgpkg.TransportBLE}, log)
	require.NoError(t, err)
	assert.IsType(t, &ble.Transport{}, tr)

	_, err = NewTransport(cfgpkg.DeviceConfig{Transport: "serial"}, log)
	assert.Error(t, err)

	_, err = NewTransport(cfgpkg.DeviceConfig{
		Transport: cfgpkg.TransportSim,
		Sim:       cfgpkg.SimConfig{Profile: "/nonexistent.yaml"},
	}, log)
	assert.Error(t, err)
}

func TestNewCharger_ObserverWired(t *testing.T) {
	reg, appm := NewMetrics()
	tr, err := NewTransport(cfgpkg.DeviceConfig{Transport: cfgpkg.TransportSim}, zap.NewNop())
	require.NoError(t, err)

	dev := NewCharger(cfgpkg.DeviceConfig{ResponseTimeout: 500 * time.Millisecond}, tr, appm, zap.NewNop())
	require.NoError(t, dev.Refresh(context.Background()))
	assert.True(t, dev.IsConnected())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, strings.Join(names, ","), "mc3000_command_total")
}

func TestGenerateServerID(t *testing.T) {
	t.Setenv("SERVER_ID", "")
	id := GenerateServerID("mc3000d")
	assert.True(t, strings.HasPrefix(id, "mc3000d-"))
	assert.NotEqual(t, id, GenerateServerID("mc3000d"))

	t.Setenv("SERVER_ID", "fixed-id")
	assert.Equal(t, "fixed-id", GenerateServerID("mc3000d"))
}

func TestNewHTTPServer_MetricsToggle(t *testing.T) {
	reg, _ := NewMetrics()
	cfg := &cfgpkg.Config{Metrics: cfgpkg.MetricsConfig{Enable: true, Path: "/metrics"}}

	srv := NewHTTPServer(cfg, metrics.Handler(reg), nil, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cfg.Metrics.Enable = false
	srv = NewHTTPServer(cfg, metrics.Handler(reg), nil, zap.NewNop())
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRedisClient_Disabled(t *testing.T) {
	c, err := NewRedisClient(cfgpkg.RedisConfig{Enabled: false}, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, c)

	agg := health.NewAggregator()
	AddRedisChecker(agg, nil)
	assert.Empty(t, agg.CheckAll(context.Background()))
}

func TestNewPublishSink_Error(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	_, appm := NewMetrics()
	pub := redisstorage.NewSnapshotPublisher(rdb, "mc3000:test", "id", zap.NewNop())
	sink := NewPublishSink(pub, appm)
	assert.Error(t, sink(context.Background(), charger.Snapshot{}))
}

type fixedSource struct{ s charger.Snapshot }

func (f fixedSource) Snapshot() charger.Snapshot { return f.s }

func TestNewHealthAggregator(t *testing.T) {
	agg := NewHealthAggregator(fixedSource{}, time.Second)
	res := agg.CheckAll(context.Background())
	require.Contains(t, res, "charger")
	assert.Equal(t, health.StatusUnhealthy, res["charger"].Status)

	agg = NewHealthAggregator(fixedSource{charger.Snapshot{Connected: true, UpdatedAt: time.Now()}}, time.Second)
	assert.Equal(t, health.StatusHealthy, agg.OverallStatus(context.Background()))
}
