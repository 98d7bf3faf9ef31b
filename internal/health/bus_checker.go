package health

import (
	"context"
	"time"
)

// BusState 本机设备总线运行状态
type BusState interface {
	Running() bool
	Devices() int
	Stats() (delivered, dropped uint64)
}

// AdapterState 下行发送队列与适配器绑定状态
type AdapterState interface {
	HasSink() bool
	Pending() int
}

// BusChecker 分发总线与适配器连接的健康检查
type BusChecker struct {
	bus     BusState
	adapter AdapterState
}

// NewBusChecker 创建检查器；adapter 可为 nil
func NewBusChecker(bus BusState, adapter AdapterState) *BusChecker {
	return &BusChecker{bus: bus, adapter: adapter}
}

func (c *BusChecker) Name() string { return "bus" }

// Check 总线未运行为不健康；适配器未连接为降级
func (c *BusChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	delivered, dropped := c.bus.Stats()
	details := map[string]interface{}{
		"devices":   c.bus.Devices(),
		"delivered": delivered,
		"dropped":   dropped,
	}
	if !c.bus.Running() {
		return CheckResult{Status: StatusUnhealthy, Message: "bus not running", Details: details, Latency: time.Since(start)}
	}

	status, message := StatusHealthy, "ok"
	if c.adapter != nil {
		connected := c.adapter.HasSink()
		details["adapter_connected"] = connected
		details["outbound_pending"] = c.adapter.Pending()
		if !connected {
			status, message = StatusDegraded, "no adapter connected"
		}
	}
	return CheckResult{Status: status, Message: message, Details: details, Latency: time.Since(start)}
}
