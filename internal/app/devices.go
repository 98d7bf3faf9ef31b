package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/bus"
	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/device"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// NewVendorRegistry 加载厂商表；文件不可用时回退到内置表
func NewVendorRegistry(path string, log *zap.Logger) *device.VendorRegistry {
	if path == "" {
		return device.NewVendorRegistry(nil)
	}
	table, err := device.LoadVendorTable(path)
	if err != nil {
		log.Warn("load vendor table failed, using built-in table", zap.String("path", path), zap.Error(err))
		return device.NewVendorRegistry(nil)
	}
	log.Info("vendor table loaded", zap.String("path", path))
	return device.NewVendorRegistry(table)
}

// NewDevices 按配置创建本机逻辑设备
func NewDevices(cfg cfgpkg.CECConfig, proc *device.Processor, log *zap.Logger) ([]*device.Device, error) {
	if len(cfg.Devices) == 0 {
		return nil, fmt.Errorf("no cec devices configured")
	}
	devs := make([]*device.Device, 0, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		d, err := device.FromConfig(dc, proc, log)
		if err != nil {
			return nil, err
		}
		log.Info("cec device configured",
			zap.Uint8("logical_address", dc.LogicalAddress),
			zap.String("role", d.LogicalAddress().String()),
			zap.Stringer("physical_address", d.PhysicalAddress()),
			zap.String("osd_name", d.OSDName()))
		devs = append(devs, d)
	}
	return devs, nil
}

// NewBus 为本机设备建立分发总线
func NewBus(devs []*device.Device, inboxSize int, appm *metrics.AppMetrics, log *zap.Logger) *bus.Bus {
	bd := make([]cec.BusDevice, 0, len(devs))
	for _, d := range devs {
		bd = append(bd, d)
	}
	return bus.New(bd, inboxSize, log.With(zap.String("component", "bus")), bus.WithMetrics(appm))
}
