package app

import (
	"context"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/outbound"
)

// StartOutbound 创建发送队列并启动写出循环，返回取消函数
func StartOutbound(cfg cfgpkg.OutboundConfig, appm *metrics.AppMetrics, log *zap.Logger) (*outbound.Queue, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	q := outbound.NewQueue(cfg, appm, log.With(zap.String("component", "outbound")))
	go q.Run(ctx)
	return q, cancel
}
