package cec

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BusDevice 本机逻辑设备（分发器不持有其生命周期）
type BusDevice interface {
	LogicalAddress() LogicalAddress
	PhysicalAddress() PhysicalAddress
	// SetPhysicalAddress 与当前状态不一致时静默忽略
	SetPhysicalAddress(newAddr, oldAddr PhysicalAddress)
	EmitDiagnostic(level zapcore.Level, msg string, fields ...zap.Field)
	Processor() Processor
}

// Processor 应答发送与通用簿记
type Processor interface {
	ReportPhysicalAddress()
	ReportOSDName(to LogicalAddress)
	ReportVendorID(to LogicalAddress)
	ReportPowerState(to LogicalAddress)
	ReportCECVersion(to LogicalAddress)
	ReportMenuState(to LogicalAddress)
	BroadcastActiveSource()
	TransmitFeatureAbort(to LogicalAddress, op Opcode)
	ParseVendorID(from LogicalAddress, params []byte)
	RecordKeyActivity()
	SetCurrentPressedButton(code UserControlCode)
	RecordUnhandledCommand(f Frame)
}

type handlerFunc func(f Frame) bool

// Dispatcher 单个逻辑设备的操作码分发器
// 单播与广播各一张路由表，构造时建立后不再修改
type Dispatcher struct {
	dev       BusDevice
	unicast   map[Opcode]handlerFunc
	broadcast map[Opcode]handlerFunc
}

// NewDispatcher 为 dev 创建分发器；dev 生命周期须长于分发器
func NewDispatcher(dev BusDevice) *Dispatcher {
	d := &Dispatcher{dev: dev}
	d.unicast = map[Opcode]handlerFunc{
		OpGivePhysicalAddress:   d.handleGivePhysicalAddress,
		OpGiveOSDName:           d.handleGiveOSDName,
		OpGiveDeviceVendorID:    d.handleGiveDeviceVendorID,
		OpDeviceVendorID:        d.handleDeviceVendorID,
		OpVendorCommandWithID:   d.handleVendorCommandWithID,
		OpGiveDeckStatus:        d.handleGiveDeckStatus,
		OpMenuRequest:           d.handleMenuRequest,
		OpGiveDevicePowerStatus: d.handleGiveDevicePowerStatus,
		OpGetCECVersion:         d.handleGetCECVersion,
		OpUserControlPressed:    d.handleUserControlPressed,
		OpUserControlRelease:    d.handleUserControlRelease,
	}
	d.broadcast = map[Opcode]handlerFunc{
		OpRequestActiveSource: d.handleRequestActiveSource,
		OpSetStreamPath:       d.handleSetStreamPath,
		OpRoutingChange:       d.handleRoutingChange,
		OpDeviceVendorID:      d.handleDeviceVendorID,
		OpVendorCommandWithID: d.handleVendorCommandWithID,
	}
	return d
}

// Dispatch 处理一帧，返回是否被识别并处理
func (d *Dispatcher) Dispatch(f Frame) bool {
	var table map[Opcode]handlerFunc
	switch Classify(f.Destination, d.dev.LogicalAddress()) {
	case ClassMine:
		table = d.unicast
	case ClassBroadcast:
		table = d.broadcast
	default:
		d.dev.EmitDiagnostic(zapcore.DebugLevel, "ignoring frame",
			zap.Uint8("destination", uint8(f.Destination)),
			zap.Uint8("self", uint8(d.dev.LogicalAddress())))
		return false
	}

	if f.HasOpcode {
		if h, ok := table[f.Opcode]; ok {
			return h(f)
		}
	}
	d.unhandled(f)
	return false
}

// UnicastOpcodes 单播路由表中的操作码（升序）
func (d *Dispatcher) UnicastOpcodes() []Opcode { return sortedKeys(d.unicast) }

// BroadcastOpcodes 广播路由表中的操作码（升序）
func (d *Dispatcher) BroadcastOpcodes() []Opcode { return sortedKeys(d.broadcast) }

func (d *Dispatcher) unhandled(f Frame) {
	d.dev.Processor().RecordUnhandledCommand(f)
}

func sortedKeys(m map[Opcode]handlerFunc) []Opcode {
	out := make([]Opcode, 0, len(m))
	for op := range m {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
