package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/cec-server/internal/tcpserver"
)

// GateStatser 提供接入控制统计
type GateStatser interface {
	GateStats() tcpserver.GateStats
}

// TCPChecker 适配器接入端口的健康检查
type TCPChecker struct {
	server GateStatser
}

// NewTCPChecker 创建 TCP 健康检查器
func NewTCPChecker(server GateStatser) *TCPChecker {
	return &TCPChecker{server: server}
}

func (c *TCPChecker) Name() string { return "tcp" }

func (c *TCPChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	s := c.server.GateStats()

	status, message := StatusHealthy, "ok"
	if s.Utilization >= 1.0 {
		// 连接槽占满时新的适配器无法接入
		status, message = StatusDegraded, "connection slots exhausted"
	}
	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"active_connections": s.ActiveConnections,
			"max_connections":    s.MaxConnections,
			"utilization":        fmt.Sprintf("%.1f%%", s.Utilization*100),
			"rate_limited_total": s.RateLimitedTotal,
			"full_total":         s.FullTotal,
		},
		Latency: time.Since(start),
	}
}
