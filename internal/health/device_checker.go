package health

import (
	"context"
	"time"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
)

// SnapshotSource 由 charger.Mc3000 实现
type SnapshotSource interface {
	Snapshot() charger.Snapshot
}

// DeviceChecker 充电器链路检查器
//
//	从未成功刷新          -> unhealthy
//	已断开或数据超过 maxAge -> degraded（接口仍返回上一轮快照）
//	否则                  -> healthy
type DeviceChecker struct {
	src    SnapshotSource
	maxAge time.Duration
	now    func() time.Time
}

// NewDeviceChecker maxAge<=0 时不检查数据时效
func NewDeviceChecker(src SnapshotSource, maxAge time.Duration) *DeviceChecker {
	return &DeviceChecker{src: src, maxAge: maxAge, now: time.Now}
}

func (c *DeviceChecker) Name() string {
	return "charger"
}

func (c *DeviceChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	s := c.src.Snapshot()

	details := map[string]any{
		"connected":  s.Connected,
		"address":    s.Address,
		"sw_version": s.SWVersion,
		"hw_version": s.HWVersion,
	}
	result := CheckResult{Status: StatusHealthy, Message: "ok", Details: details}

	switch {
	case s.UpdatedAt.IsZero():
		result.Status = StatusUnhealthy
		result.Message = "no data received from charger yet"
	case !s.Connected:
		result.Status = StatusDegraded
		result.Message = "charger disconnected, serving last snapshot"
	case c.maxAge > 0 && c.now().Sub(s.UpdatedAt) > c.maxAge:
		result.Status = StatusDegraded
		result.Message = "charger data is stale"
	}
	if !s.UpdatedAt.IsZero() {
		details["age"] = c.now().Sub(s.UpdatedAt).Round(time.Millisecond).String()
	}
	result.Latency = time.Since(start)
	return result
}
