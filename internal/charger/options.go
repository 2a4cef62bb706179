package charger

import (
	"time"

	"go.uber.org/zap"
)

// DefaultResponseTimeout 单条命令等待应答的上限
const DefaultResponseTimeout = 2 * time.Second

type Option func(*Mc3000)

func WithLogger(log *zap.Logger) Option {
	return func(m *Mc3000) {
		if log != nil {
			m.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Mc3000) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithResponseTimeout 覆盖应答等待时长（构造期固定，不支持按调用设置）
func WithResponseTimeout(d time.Duration) Option {
	return func(m *Mc3000) {
		if d > 0 {
			m.timeout = d
		}
	}
}
