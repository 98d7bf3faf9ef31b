package health

import "sync/atomic"

// Readiness 启动阶段的就绪标记（总线、TCP 接入）
type Readiness struct {
	busReady atomic.Bool
	tcpReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetBusReady(v bool) { r.busReady.Store(v) }
func (r *Readiness) SetTCPReady(v bool) { r.tcpReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.busReady.Load() && r.tcpReady.Load()
}
