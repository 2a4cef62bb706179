package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"   // 健康
	StatusDegraded  Status = "degraded"  // 降级（仍可返回上一轮数据）
	StatusUnhealthy Status = "unhealthy" // 不健康（无法服务）
)

// CheckResult 健康检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckerFunc 用函数实现 Checker
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) CheckResult
}

func (f CheckerFunc) Name() string                          { return f.CheckerName }
func (f CheckerFunc) Check(ctx context.Context) CheckResult { return f.Fn(ctx) }
