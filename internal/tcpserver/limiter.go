package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrAcceptRateLimited 接入速率超限
	ErrAcceptRateLimited = errors.New("accept rate limited")
	// ErrTooManyConnections 并发连接数已满
	ErrTooManyConnections = errors.New("too many connections")
)

// Gate 接入控制：令牌桶限制接入速率，信号量限制并发连接
// 适配器网桥通常只有一条长连接，上限只用于挡住异常重连风暴
type Gate struct {
	slots          chan struct{}
	acquireTimeout time.Duration
	limiter        *rate.Limiter
	perSec         int
	burst          int

	active       atomic.Int64
	admitted     atomic.Int64
	rejectedRate atomic.Int64
	rejectedFull atomic.Int64
}

// NewGate 创建接入控制
func NewGate(maxConn int, acquireTimeout time.Duration, perSec, burst int) *Gate {
	if maxConn <= 0 {
		maxConn = 4
	}
	if acquireTimeout <= 0 {
		acquireTimeout = time.Second
	}
	if perSec <= 0 {
		perSec = 5
	}
	if burst <= 0 {
		burst = perSec * 2
	}
	return &Gate{
		slots:          make(chan struct{}, maxConn),
		acquireTimeout: acquireTimeout,
		limiter:        rate.NewLimiter(rate.Limit(perSec), burst),
		perSec:         perSec,
		burst:          burst,
	}
}

// Admit 先过令牌桶（非阻塞），再在超时内等待连接槽
func (g *Gate) Admit(ctx context.Context) error {
	if !g.limiter.Allow() {
		g.rejectedRate.Add(1)
		return ErrAcceptRateLimited
	}
	ctx, cancel := context.WithTimeout(ctx, g.acquireTimeout)
	defer cancel()
	select {
	case g.slots <- struct{}{}:
		g.active.Add(1)
		g.admitted.Add(1)
		return nil
	case <-ctx.Done():
		g.rejectedFull.Add(1)
		return fmt.Errorf("%w: max=%d", ErrTooManyConnections, cap(g.slots))
	}
}

// Release 归还连接槽
func (g *Gate) Release() {
	select {
	case <-g.slots:
		g.active.Add(-1)
	default:
	}
}

// Active 当前连接数
func (g *Gate) Active() int { return int(g.active.Load()) }

// Max 最大连接数
func (g *Gate) Max() int { return cap(g.slots) }

// Stats 统计信息
func (g *Gate) Stats() GateStats {
	active := g.Active()
	return GateStats{
		MaxConnections:    g.Max(),
		ActiveConnections: active,
		AdmittedTotal:     g.admitted.Load(),
		RateLimitedTotal:  g.rejectedRate.Load(),
		FullTotal:         g.rejectedFull.Load(),
		RatePerSecond:     g.perSec,
		Burst:             g.burst,
		Utilization:       float64(active) / float64(g.Max()),
	}
}

// GateStats 接入控制统计
type GateStats struct {
	MaxConnections    int     `json:"max_connections"`
	ActiveConnections int     `json:"active_connections"`
	AdmittedTotal     int64   `json:"admitted_total"`
	RateLimitedTotal  int64   `json:"rate_limited_total"`
	FullTotal         int64   `json:"full_total"`
	RatePerSecond     int     `json:"rate_per_second"`
	Burst             int     `json:"burst"`
	Utilization       float64 `json:"utilization"` // 0.0 - 1.0
}

// RejectedTotal 累计拒绝数
func (s GateStats) RejectedTotal() int64 { return s.RateLimitedTotal + s.FullTotal }
