package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	appmetrics "github.com/taoyao-code/skyrc-ble/internal/metrics"
)

func newTestServer(t *testing.T, ready bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	reg := appmetrics.NewRegistry()
	return New(cfg, "/metrics", appmetrics.Handler(reg), func() bool { return ready }, zaptest.NewLogger(t))
}

func TestHealthzReadyzMetrics(t *testing.T) {
	srv := newTestServer(t, true)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s code=%d", path, rr.Code)
		}
	}
}

func TestReadyzNotReady(t *testing.T) {
	srv := newTestServer(t, false)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	srv.srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz not-ready code=%d", rr.Code)
	}
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t, true)
	srv.Register(func(r *gin.Engine) {
		r.GET("/api/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "pong" {
		t.Fatalf("/api/ping code=%d body=%q", rr.Code, rr.Body.String())
	}
}
