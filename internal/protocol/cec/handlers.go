package cec

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 所有处理器对已识别的操作码均返回 true，参数不足时不做任何协议动作

func (d *Dispatcher) handleGivePhysicalAddress(Frame) bool {
	d.dev.Processor().ReportPhysicalAddress()
	return true
}

func (d *Dispatcher) handleGiveOSDName(f Frame) bool {
	d.dev.Processor().ReportOSDName(f.Initiator)
	return true
}

func (d *Dispatcher) handleGiveDeviceVendorID(f Frame) bool {
	d.dev.Processor().ReportVendorID(f.Initiator)
	return true
}

func (d *Dispatcher) handleDeviceVendorID(f Frame) bool {
	d.dev.Processor().ParseVendorID(f.Initiator, f.Parameters)
	return true
}

// vendor-command-with-id 的载荷以厂商标识开头，与 device-vendor-id 同样解析
func (d *Dispatcher) handleVendorCommandWithID(f Frame) bool {
	d.dev.Processor().ParseVendorID(f.Initiator, f.Parameters)
	return true
}

// 尚未支持 play/deck-control，必须显式回复 feature abort
func (d *Dispatcher) handleGiveDeckStatus(f Frame) bool {
	d.dev.Processor().TransmitFeatureAbort(f.Initiator, OpGiveDeckStatus)
	return true
}

func (d *Dispatcher) handleMenuRequest(f Frame) bool {
	if p, ok := Params(f, 1); ok && p[0] == MenuRequestQuery {
		d.dev.Processor().ReportMenuState(f.Initiator)
	}
	return true
}

func (d *Dispatcher) handleGiveDevicePowerStatus(f Frame) bool {
	d.dev.Processor().ReportPowerState(f.Initiator)
	return true
}

func (d *Dispatcher) handleGetCECVersion(f Frame) bool {
	d.dev.Processor().ReportCECVersion(f.Initiator)
	return true
}

func (d *Dispatcher) handleUserControlPressed(f Frame) bool {
	proc := d.dev.Processor()
	proc.RecordKeyActivity()
	if p, ok := Params(f, 1); ok {
		code := UserControlCode(p[0])
		if code.Valid() {
			d.dev.EmitDiagnostic(zapcore.DebugLevel, "key pressed", zap.Uint8("code", uint8(code)))
			proc.SetCurrentPressedButton(code)
		}
	}
	return true
}

func (d *Dispatcher) handleUserControlRelease(Frame) bool {
	d.dev.Processor().RecordKeyActivity()
	return true
}

func (d *Dispatcher) handleRequestActiveSource(f Frame) bool {
	d.dev.EmitDiagnostic(zapcore.DebugLevel, "active source requested",
		zap.Uint8("initiator", uint8(f.Initiator)))
	d.dev.Processor().BroadcastActiveSource()
	return true
}

func (d *Dispatcher) handleSetStreamPath(f Frame) bool {
	p, ok := Params(f, 2)
	if !ok {
		return true
	}
	addr := PhysicalAddressFrom(p)
	d.dev.EmitDiagnostic(zapcore.DebugLevel, "stream path requested",
		zap.Uint8("initiator", uint8(f.Initiator)),
		zap.Stringer("physical_address", addr))
	if addr == d.dev.PhysicalAddress() {
		d.dev.Processor().BroadcastActiveSource()
	}
	return true
}

// routing-change 只接受恰好 4 字节：旧地址 + 新地址
func (d *Dispatcher) handleRoutingChange(f Frame) bool {
	if len(f.Parameters) != 4 {
		return true
	}
	oldAddr := PhysicalAddressFrom(f.Parameters[0:2])
	newAddr := PhysicalAddressFrom(f.Parameters[2:4])
	d.dev.SetPhysicalAddress(newAddr, oldAddr)
	return true
}
