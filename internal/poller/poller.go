// Package poller 周期刷新充电器状态并把快照分发给下游。
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
)

// Device 由 charger.Mc3000 实现
type Device interface {
	Refresh(ctx context.Context) error
	Snapshot() charger.Snapshot
}

// Sink 快照消费者（指标、Redis 发布等）；返回错误只记录日志
type Sink func(ctx context.Context, s charger.Snapshot) error

// Recorder 由 metrics.AppMetrics 实现
type Recorder interface {
	PollDone(err error)
}

type nopRecorder struct{}

func (nopRecorder) PollDone(error) {}

// Poller 周期刷新器；同一时刻只有一轮刷新
type Poller struct {
	dev      Device
	interval time.Duration
	sinks    []Sink
	rec      Recorder
	log      *zap.Logger

	// OnRefreshed 每轮成功刷新后回调（例如置就绪标记）
	OnRefreshed func(s charger.Snapshot)
}

func New(dev Device, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{dev: dev, interval: interval, rec: nopRecorder{}, log: log}
}

// AddSink 追加快照消费者，需在 Run 之前调用
func (p *Poller) AddSink(s Sink) { p.sinks = append(p.sinks, s) }

// SetRecorder 安装指标记录器
func (p *Poller) SetRecorder(r Recorder) {
	if r != nil {
		p.rec = r
	}
}

// Run 立即刷新一次，之后按间隔刷新，直到 ctx 结束
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started", zap.Duration("interval", p.interval))
	p.Tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick 执行一轮：刷新 -> 取快照 -> 分发
func (p *Poller) Tick(ctx context.Context) {
	start := time.Now()
	err := p.dev.Refresh(ctx)
	p.rec.PollDone(err)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("refresh failed", zap.Error(err))
		}
		return
	}

	s := p.dev.Snapshot()
	p.log.Debug("refresh done",
		zap.Bool("connected", s.Connected),
		zap.Duration("took", time.Since(start)))
	if !s.UpdatedAt.IsZero() && p.OnRefreshed != nil {
		p.OnRefreshed(s)
	}
	for _, sink := range p.sinks {
		if err := sink(ctx, s); err != nil {
			p.log.Warn("snapshot sink failed", zap.Error(err))
		}
	}
}
