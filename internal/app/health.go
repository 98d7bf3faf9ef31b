package app

import (
	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/cec-server/internal/bus"
	"github.com/taoyao-code/cec-server/internal/health"
	"github.com/taoyao-code/cec-server/internal/outbound"
	"github.com/taoyao-code/cec-server/internal/tcpserver"
)

// NewHealthAggregator 创建健康检查聚合器，初始只检查总线与适配器
func NewHealthAggregator(b *bus.Bus, out *outbound.Queue) *health.Aggregator {
	return health.NewAggregator(health.NewBusChecker(b, out))
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddTCPChecker TCP 启动后加入检查
func AddTCPChecker(aggregator *health.Aggregator, tcpServer *tcpserver.Server) {
	aggregator.AddChecker(health.NewTCPChecker(tcpServer))
}
