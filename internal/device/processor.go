package device

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/coremodel"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// Transmitter 发送层（仲裁、重试不在此处）
type Transmitter interface {
	Transmit(f cec.Frame) error
}

// Processor 所有本机逻辑设备共享的应答与簿记服务
type Processor struct {
	tx          Transmitter
	vendors     *VendorRegistry
	keys        *KeyState
	sink        CommandSink
	appm        *metrics.AppMetrics
	log         *zap.Logger
	now         func() time.Time
	sinkTimeout time.Duration
}

// ProcessorOption 可选配置
type ProcessorOption func(*Processor)

// WithMetrics 设置业务指标
func WithMetrics(m *metrics.AppMetrics) ProcessorOption {
	return func(p *Processor) { p.appm = m }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor 创建共享处理器；sink 为 nil 时使用内存队列
func NewProcessor(tx Transmitter, vendors *VendorRegistry, sink CommandSink, log *zap.Logger, opts ...ProcessorOption) *Processor {
	if vendors == nil {
		vendors = NewVendorRegistry(nil)
	}
	if sink == nil {
		sink = NewMemorySink(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{
		tx:          tx,
		vendors:     vendors,
		sink:        sink,
		log:         log,
		now:         time.Now,
		sinkTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.keys = newKeyState(p.now)
	return p
}

// Vendors 厂商登记表
func (p *Processor) Vendors() *VendorRegistry { return p.vendors }

// Keys 按键状态
func (p *Processor) Keys() *KeyState { return p.keys }

// Sink 未处理命令队列
func (p *Processor) Sink() CommandSink { return p.sink }

func (p *Processor) transmit(f cec.Frame) {
	if err := p.tx.Transmit(f); err != nil {
		p.log.Warn("transmit failed", zap.Stringer("frame", f), zap.Error(err))
	}
}

// boundProcessor 绑定到某个本机设备的视图，应答内容取自该设备
type boundProcessor struct {
	*Processor
	dev *Device
}

var _ cec.Processor = boundProcessor{}

func (b boundProcessor) ReportPhysicalAddress() {
	la, pa := b.dev.LogicalAddress(), b.dev.PhysicalAddress()
	hi, lo := pa.Bytes()[0], pa.Bytes()[1]
	b.transmit(cec.NewFrame(la, cec.LogicalAddressBroadcast, cec.OpReportPhysicalAddress,
		hi, lo, byte(cec.DeviceTypeOf(la))))
}

func (b boundProcessor) ReportOSDName(to cec.LogicalAddress) {
	name := []byte(b.dev.OSDName())
	if len(name) > cec.MaxParameters {
		name = name[:cec.MaxParameters]
	}
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), to, cec.OpSetOSDName, name...))
}

// 厂商标识按协议要求广播，to 仅用于日志
func (b boundProcessor) ReportVendorID(to cec.LogicalAddress) {
	id := b.dev.VendorID()
	b.log.Debug("reporting vendor id", zap.Uint8("requester", uint8(to)), zap.Stringer("vendor_id", id))
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), cec.LogicalAddressBroadcast, cec.OpDeviceVendorID,
		byte(id>>16), byte(id>>8), byte(id)))
}

func (b boundProcessor) ReportPowerState(to cec.LogicalAddress) {
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), to, cec.OpReportPowerStatus, byte(b.dev.PowerStatus())))
}

func (b boundProcessor) ReportCECVersion(to cec.LogicalAddress) {
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), to, cec.OpCECVersion, byte(b.dev.CECVersion())))
}

func (b boundProcessor) ReportMenuState(to cec.LogicalAddress) {
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), to, cec.OpMenuStatus, byte(b.dev.MenuState())))
}

func (b boundProcessor) BroadcastActiveSource() {
	pa := b.dev.PhysicalAddress().Bytes()
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), cec.LogicalAddressBroadcast, cec.OpActiveSource, pa[0], pa[1]))
}

func (b boundProcessor) TransmitFeatureAbort(to cec.LogicalAddress, op cec.Opcode) {
	b.transmit(cec.NewFrame(b.dev.LogicalAddress(), to, cec.OpFeatureAbort,
		byte(op), byte(cec.AbortReasonUnrecognizedOpcode)))
}

func (b boundProcessor) ParseVendorID(from cec.LogicalAddress, params []byte) {
	if len(params) < 3 {
		return
	}
	id := cec.VendorIDFrom(params)
	if b.vendors.Register(from, id) {
		b.log.Info("vendor id registered",
			zap.Uint8("logical_address", uint8(from)),
			zap.Stringer("vendor_id", id),
			zap.String("vendor", b.vendors.Name(id)))
	}
}

func (b boundProcessor) RecordKeyActivity() { b.keys.Activity() }

func (b boundProcessor) SetCurrentPressedButton(code cec.UserControlCode) {
	b.keys.Press(code)
	if b.appm != nil {
		b.appm.KeyPressTotal.Inc()
	}
}

func (b boundProcessor) RecordUnhandledCommand(f cec.Frame) {
	if b.appm != nil {
		label := "poll"
		if f.HasOpcode {
			label = f.Opcode.Hex()
		}
		b.appm.UnhandledTotal.WithLabelValues(label).Inc()
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.sinkTimeout)
	defer cancel()
	if err := b.sink.Push(ctx, coremodel.NewUnhandledCommand(b.dev.LogicalAddress(), f, b.now())); err != nil {
		b.log.Warn("record unhandled command failed", zap.Stringer("frame", f), zap.Error(err))
	}
}
