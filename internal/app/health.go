package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/skyrc-ble/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器，初始只包含充电器检查
// 数据时效按两个刷新周期计；不轮询时不检查时效
func NewHealthAggregator(src health.SnapshotSource, pollInterval time.Duration) *health.Aggregator {
	return health.NewAggregator(
		health.NewDeviceChecker(src, 2*pollInterval),
	)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
