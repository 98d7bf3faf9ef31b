package device

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/coremodel"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// Options 本机逻辑设备初始状态
type Options struct {
	LogicalAddress  cec.LogicalAddress
	PhysicalAddress cec.PhysicalAddress
	OSDName         string
	VendorID        cec.VendorID
	CECVersion      cec.Version
	PowerStatus     cec.PowerStatus
}

// Device 本机逻辑设备：地址与身份状态的唯一持有者
type Device struct {
	proc *Processor
	log  *zap.Logger

	mu      sync.RWMutex
	la      cec.LogicalAddress
	pa      cec.PhysicalAddress
	osdName string
	vendor  cec.VendorID
	version cec.Version
	power   cec.PowerStatus
	menu    cec.MenuState
}

var _ cec.BusDevice = (*Device)(nil)

// New 创建本机逻辑设备
func New(opts Options, proc *Processor, log *zap.Logger) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CECVersion == 0 {
		opts.CECVersion = cec.Version13a
	}
	return &Device{
		proc:    proc,
		log:     log.With(zap.Uint8("device", uint8(opts.LogicalAddress))),
		la:      opts.LogicalAddress,
		pa:      opts.PhysicalAddress,
		osdName: opts.OSDName,
		vendor:  opts.VendorID,
		version: opts.CECVersion,
		power:   opts.PowerStatus,
		menu:    cec.MenuStateActivated,
	}
}

// FromConfig 由配置项创建设备
func FromConfig(dc cfgpkg.DeviceConfig, proc *Processor, log *zap.Logger) (*Device, error) {
	pa, err := cec.ParsePhysicalAddress(dc.PhysicalAddress)
	if err != nil {
		return nil, fmt.Errorf("device %d: %w", dc.LogicalAddress, err)
	}
	return New(Options{
		LogicalAddress:  cec.LogicalAddress(dc.LogicalAddress),
		PhysicalAddress: pa,
		OSDName:         dc.OSDName,
		VendorID:        cec.VendorID(dc.VendorID),
		CECVersion:      cec.Version(dc.CECVersion),
		PowerStatus:     cec.PowerStatus(dc.PowerStatus),
	}, proc, log), nil
}

func (d *Device) LogicalAddress() cec.LogicalAddress {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.la
}

func (d *Device) PhysicalAddress() cec.PhysicalAddress {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pa
}

// SetPhysicalAddress 仅当 oldAddr 与当前地址一致时生效，否则忽略
func (d *Device) SetPhysicalAddress(newAddr, oldAddr cec.PhysicalAddress) {
	d.mu.Lock()
	cur := d.pa
	if cur != oldAddr {
		d.mu.Unlock()
		d.log.Debug("routing change does not match current address",
			zap.Stringer("current", cur), zap.Stringer("old", oldAddr), zap.Stringer("new", newAddr))
		return
	}
	d.pa = newAddr
	d.mu.Unlock()
	d.log.Info("physical address changed", zap.Stringer("old", oldAddr), zap.Stringer("new", newAddr))
}

func (d *Device) EmitDiagnostic(level zapcore.Level, msg string, fields ...zap.Field) {
	if ce := d.log.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (d *Device) Processor() cec.Processor {
	return boundProcessor{Processor: d.proc, dev: d}
}

func (d *Device) OSDName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.osdName
}

func (d *Device) VendorID() cec.VendorID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.vendor
}

func (d *Device) CECVersion() cec.Version {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

func (d *Device) PowerStatus() cec.PowerStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.power
}

func (d *Device) MenuState() cec.MenuState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.menu
}

// Snapshot 状态快照
func (d *Device) Snapshot() coremodel.DeviceSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	menu := "activated"
	if d.menu == cec.MenuStateDeactivated {
		menu = "deactivated"
	}
	return coremodel.DeviceSnapshot{
		LogicalAddress:  uint8(d.la),
		Role:            d.la.String(),
		PhysicalAddress: d.pa.String(),
		DeviceType:      uint8(cec.DeviceTypeOf(d.la)),
		OSDName:         d.osdName,
		VendorID:        d.vendor.String(),
		CECVersion:      d.version.String(),
		PowerStatus:     d.power.String(),
		MenuState:       menu,
	}
}
