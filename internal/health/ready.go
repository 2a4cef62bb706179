package health

import "sync/atomic"

// Readiness 进程级就绪标记：HTTP 已监听且首轮设备刷新已完成
type Readiness struct {
	httpReady   atomic.Bool
	deviceReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetHTTPReady(v bool)   { r.httpReady.Store(v) }
func (r *Readiness) SetDeviceReady(v bool) { r.deviceReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.httpReady.Load() && r.deviceReady.Load()
}
