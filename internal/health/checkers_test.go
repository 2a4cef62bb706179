package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
)

type staticSource charger.Snapshot

func (s staticSource) Snapshot() charger.Snapshot { return charger.Snapshot(s) }

func TestDeviceChecker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		snap charger.Snapshot
		want Status
	}{
		{"从未刷新", charger.Snapshot{Connected: true}, StatusUnhealthy},
		{"已断开", charger.Snapshot{UpdatedAt: now.Add(-time.Second)}, StatusDegraded},
		{"数据过期", charger.Snapshot{Connected: true, UpdatedAt: now.Add(-5 * time.Minute)}, StatusDegraded},
		{"正常", charger.Snapshot{Connected: true, UpdatedAt: now.Add(-10 * time.Second)}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDeviceChecker(staticSource(tt.snap), time.Minute)
			c.now = func() time.Time { return now }
			r := c.Check(context.Background())
			assert.Equal(t, tt.want, r.Status, r.Message)
			assert.Equal(t, tt.snap.Connected, r.Details["connected"])
		})
	}
}

type fakeRedis struct {
	err   error
	stats redis.PoolStats
}

func (f *fakeRedis) HealthCheck(context.Context) error { return f.err }
func (f *fakeRedis) Stats() *redis.PoolStats           { return &f.stats }

func TestRedisChecker(t *testing.T) {
	c := NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 4, IdleConns: 3}})
	r := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, "25.0%", r.Details["utilization"])

	c = NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 10, IdleConns: 0}})
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)

	c = NewRedisChecker(&fakeRedis{err: errors.New("connection refused")})
	r = c.Check(context.Background())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Contains(t, r.Message, "connection refused")
}

func TestRegisterHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(agg *Aggregator, path string) *httptest.ResponseRecorder {
		r := gin.New()
		RegisterHTTPRoutes(r, agg)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	degraded := NewAggregator(&mockChecker{"charger", StatusDegraded})
	rec := serve(degraded, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Contains(t, report.Checks, "charger")
	assert.Equal(t, http.StatusOK, serve(degraded, "/health/ready").Code)

	down := NewAggregator(&mockChecker{"charger", StatusUnhealthy})
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/health/ready").Code)
	assert.Equal(t, http.StatusOK, serve(down, "/health/live").Code)
}

func TestReadiness(t *testing.T) {
	r := New()
	assert.False(t, r.Ready())
	r.SetHTTPReady(true)
	assert.False(t, r.Ready())
	r.SetDeviceReady(true)
	assert.True(t, r.Ready())
}
