package app

import (
	"net/http"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	"github.com/taoyao-code/skyrc-ble/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器；指标关闭时不挂载指标路由
func NewHTTPServer(cfg *cfgpkg.Config, metricsHandler http.Handler, readyFn func() bool, log *zap.Logger) *httpserver.Server {
	path := cfg.Metrics.Path
	if !cfg.Metrics.Enable {
		path, metricsHandler = "", nil
	}
	return httpserver.New(cfg.HTTP, path, metricsHandler, readyFn, log)
}
