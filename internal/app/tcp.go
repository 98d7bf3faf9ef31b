package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/gateway"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/tcpserver"
)

// NewTCPServer 创建适配器接入服务并挂上网关处理器与指标回调
func NewTCPServer(cfg cfgpkg.TCPConfig, b gateway.Deliverer, out gateway.SinkBinder, appm *metrics.AppMetrics, log *zap.Logger) *tcpserver.Server {
	srv := tcpserver.New(cfg, log)
	srv.SetMetricsCallbacks(
		func() { appm.TCPAccepted.Inc() },
		func(string) { appm.TCPRejected.Inc() },
		func(n int) { appm.TCPBytesReceived.Add(float64(n)) },
	)
	srv.SetConnHandler(gateway.NewConnHandler(b, out, appm))
	return srv
}
