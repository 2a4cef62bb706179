package middleware

import (
	"math"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool
	RPS     float64 // 稳定速率
	Burst   int     // 桶容量
}

// RateLimiter 基于 Token Bucket 的全局限流器。
// 充电器一次只能处理一条命令，因此按进程全局限流而非按客户端。
type RateLimiter struct {
	limiter       *rate.Limiter
	allowedCount  atomic.Int64
	rejectedCount atomic.Int64
}

// NewRateLimiter rps<=0 时默认每秒1次，burst<=0 时取 rps 向上取整
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = int(math.Ceil(rps))
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow 非阻塞检查
func (l *RateLimiter) Allow() bool {
	if l.limiter.Allow() {
		l.allowedCount.Add(1)
		return true
	}
	l.rejectedCount.Add(1)
	return false
}

func (l *RateLimiter) AllowedCount() int64  { return l.allowedCount.Load() }
func (l *RateLimiter) RejectedCount() int64 { return l.rejectedCount.Load() }

// RateLimit 限流中间件；超限返回 429
func RateLimit(cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	l := NewRateLimiter(cfg.RPS, cfg.Burst)
	return func(c *gin.Context) {
		if !l.Allow() {
			logger.Warn("api rate limited",
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()),
				zap.Int64("rejected_total", l.RejectedCount()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		c.Next()
	}
}
