package bus

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// ErrAlreadyStarted 重复启动
var ErrAlreadyStarted = errors.New("bus already started")

// Observer 每帧分发完成后回调（在设备 worker 协程内执行）
type Observer func(dev cec.LogicalAddress, f cec.Frame, class cec.Class, handled bool)

// Bus 本机逻辑设备集合：每个设备一个串行 worker
// 同一设备按接收顺序逐帧分发，不同设备之间并行
type Bus struct {
	workers  []*worker
	appm     *metrics.AppMetrics
	log      *zap.Logger
	observer Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

type worker struct {
	dev   cec.BusDevice
	disp  *cec.Dispatcher
	inbox chan cec.Frame
	label string
}

// Option 可选配置
type Option func(*Bus)

// WithObserver 设置分发回调
func WithObserver(o Observer) Option {
	return func(b *Bus) { b.observer = o }
}

// WithMetrics 设置业务指标
func WithMetrics(m *metrics.AppMetrics) Option {
	return func(b *Bus) { b.appm = m }
}

// New 为每个设备建立分发器与收件箱
func New(devs []cec.BusDevice, inboxSize int, log *zap.Logger, opts ...Option) *Bus {
	if inboxSize <= 0 {
		inboxSize = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{log: log}
	for _, opt := range opts {
		opt(b)
	}
	for _, d := range devs {
		b.workers = append(b.workers, &worker{
			dev:   d,
			disp:  cec.NewDispatcher(d),
			inbox: make(chan cec.Frame, inboxSize),
			label: strconv.Itoa(int(d.LogicalAddress())),
		})
	}
	return b
}

// Start 为每个设备启动 worker；ctx 取消或 Stop 后退出
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running.Load() {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	for _, w := range b.workers {
		b.wg.Add(1)
		go b.run(ctx, w)
	}
	b.running.Store(true)
	b.log.Info("bus started", zap.Int("devices", len(b.workers)))
	return nil
}

// Stop 停止所有 worker 并等待退出；收件箱中未处理的帧被丢弃
func (b *Bus) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	b.wg.Wait()
	b.running.Store(false)
	b.log.Info("bus stopped")
}

// Running 是否在运行
func (b *Bus) Running() bool { return b.running.Load() }

// Devices 本机设备数
func (b *Bus) Devices() int { return len(b.workers) }

// Stats 已投递与已丢弃帧数（按设备计）
func (b *Bus) Stats() (delivered, dropped uint64) {
	return b.delivered.Load(), b.dropped.Load()
}

// Deliver 将帧投递给所有本机设备，非阻塞
// 收件箱满时该设备丢弃此帧
func (b *Bus) Deliver(f cec.Frame) {
	for _, w := range b.workers {
		select {
		case w.inbox <- f:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
			if b.appm != nil {
				b.appm.InboxDropped.WithLabelValues(w.label).Inc()
			}
			b.log.Warn("device inbox full, frame dropped",
				zap.Uint8("device", uint8(w.dev.LogicalAddress())),
				zap.Stringer("frame", f))
		}
	}
}

func (b *Bus) run(ctx context.Context, w *worker) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-w.inbox:
			b.dispatch(w, f)
		}
	}
}

func (b *Bus) dispatch(w *worker, f cec.Frame) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("dispatch panic", zap.Any("panic", r), zap.Stringer("frame", f))
		}
	}()
	self := w.dev.LogicalAddress()
	class := cec.Classify(f.Destination, self)
	handled := w.disp.Dispatch(f)
	if b.appm != nil {
		op := "poll"
		if f.HasOpcode {
			op = f.Opcode.Hex()
		}
		b.appm.DispatchTotal.WithLabelValues(w.label, class.String(), op, boolLabel(handled)).Inc()
	}
	if b.observer != nil {
		b.observer(self, f, class, handled)
	}
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
