package outbound

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// ErrQueueFull 发送队列已满
var ErrQueueFull = errors.New("outbound queue full")

// Sink 帧写出目标（适配器连接）
type Sink interface {
	Write(b []byte) error
}

// Queue 两级优先级发送队列，由 Run 按令牌桶节奏写出
type Queue struct {
	high    chan cec.Frame
	normal  chan cec.Frame
	limiter *rate.Limiter
	appm    *metrics.AppMetrics
	log     *zap.Logger

	mu   sync.RWMutex
	sink Sink
}

// NewQueue 创建发送队列
func NewQueue(cfg cfgpkg.OutboundConfig, appm *metrics.AppMetrics, log *zap.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		high:    make(chan cec.Frame, cfg.QueueSize),
		normal:  make(chan cec.Frame, cfg.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		appm:    appm,
		log:     log,
	}
}

// Transmit 非阻塞入队
func (q *Queue) Transmit(f cec.Frame) error {
	ch := q.normal
	if PriorityFor(f.Opcode) == PriorityHigh {
		ch = q.high
	}
	select {
	case ch <- f:
		return nil
	default:
		q.count(f, "queue_full")
		return ErrQueueFull
	}
}

// SetSink 绑定写出目标（后连接者覆盖先连接者）
func (q *Queue) SetSink(s Sink) {
	q.mu.Lock()
	q.sink = s
	q.mu.Unlock()
	if q.appm != nil {
		q.appm.AdapterConnected.Set(1)
	}
}

// ClearSink 仅当 s 仍为当前目标时解绑
func (q *Queue) ClearSink(s Sink) {
	q.mu.Lock()
	cleared := q.sink == s
	if cleared {
		q.sink = nil
	}
	q.mu.Unlock()
	if cleared && q.appm != nil {
		q.appm.AdapterConnected.Set(0)
	}
}

// HasSink 是否已绑定写出目标
func (q *Queue) HasSink() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.sink != nil
}

// Pending 待发送帧数
func (q *Queue) Pending() int { return len(q.high) + len(q.normal) }

// Run 发送循环，阻塞直到 ctx 结束
func (q *Queue) Run(ctx context.Context) {
	for {
		f, ok := q.next(ctx)
		if !ok {
			return
		}
		if err := q.limiter.Wait(ctx); err != nil {
			return
		}
		q.send(f)
	}
}

func (q *Queue) next(ctx context.Context) (cec.Frame, bool) {
	select {
	case f := <-q.high:
		return f, true
	default:
	}
	select {
	case <-ctx.Done():
		return cec.Frame{}, false
	case f := <-q.high:
		return f, true
	case f := <-q.normal:
		return f, true
	}
}

func (q *Queue) send(f cec.Frame) {
	q.mu.RLock()
	s := q.sink
	q.mu.RUnlock()
	if s == nil {
		q.log.Debug("no adapter bound, frame dropped", zap.Stringer("frame", f))
		q.count(f, "dropped")
		return
	}
	if err := s.Write([]byte(f.String() + "\n")); err != nil {
		q.log.Warn("transmit failed", zap.Stringer("frame", f), zap.Error(err))
		q.count(f, "dropped")
		return
	}
	q.count(f, "sent")
}

func (q *Queue) count(f cec.Frame, result string) {
	if q.appm != nil {
		q.appm.TransmitTotal.WithLabelValues(f.Opcode.Hex(), result).Inc()
	}
}
