package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/api/middleware"
)

// RegisterChargerRoutes 注册充电器路由
// 查询接口只读快照；刷新与启停会占用蓝牙链路，额外限流。
func RegisterChargerRoutes(
	r *gin.Engine,
	dev Charger,
	authCfg middleware.AuthConfig,
	rateCfg middleware.RateLimitConfig,
	logger *zap.Logger,
) {
	if r == nil || dev == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := NewChargerHandler(dev, logger)

	api := r.Group("/api")
	api.Use(middleware.CORS())
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	api.GET("/charger", handler.GetCharger)
	api.GET("/charger/channels/:index", handler.GetChannel)

	control := api.Group("/charger", middleware.RateLimit(rateCfg, logger))
	control.POST("/refresh", handler.Refresh)
	control.POST("/channels/:index/start", handler.StartCharge)
	control.POST("/channels/:index/stop", handler.StopCharge)

	logger.Info("charger routes registered", zap.Int("endpoints", 5))
}
