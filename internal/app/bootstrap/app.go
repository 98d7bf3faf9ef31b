package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/api"
	"github.com/taoyao-code/cec-server/internal/api/middleware"
	"github.com/taoyao-code/cec-server/internal/app"
	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/device"
	"github.com/taoyao-code/cec-server/internal/health"
	"github.com/taoyao-code/cec-server/internal/metrics"
)

// Run 统一启动流程：依赖就绪后最后开放 TCP 接入，收到信号后按相反顺序关闭
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	serverID := app.GenerateServerID()
	log = log.With(zap.String("server_id", serverID))
	log.Info("starting CEC server", zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	// 阶段1: 基础组件
	reg, appm := app.NewMetrics()
	metricsHandler := metrics.Handler(reg)
	ready := health.New()

	// 阶段2: Redis（可选，启用但不可用时直接返回）
	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 阶段3: 发送队列、共享处理器、本机设备与总线
	outQ, stopOutbound := app.StartOutbound(cfg.Outbound, appm, log)
	defer stopOutbound()

	vendors := app.NewVendorRegistry(cfg.CEC.VendorTablePath, log)
	sink := app.NewCommandSink(redisClient, cfg.Redis, cfg.CEC.UnhandledBuffer, log)
	proc := device.NewProcessor(outQ, vendors, sink, log.With(zap.String("component", "processor")),
		device.WithMetrics(appm))

	devs, err := app.NewDevices(cfg.CEC, proc, log)
	if err != nil {
		log.Error("device initialization failed", zap.Error(err))
		return err
	}
	cecBus := app.NewBus(devs, cfg.CEC.InboxSize, appm, log)
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	if err := cecBus.Start(busCtx); err != nil {
		return err
	}
	ready.SetBusReady(true)

	// 阶段4: HTTP（非阻塞）
	healthAgg := app.NewHealthAggregator(cecBus, outQ)
	app.AddRedisChecker(healthAgg, redisClient)

	httpSrv := app.NewHTTPServer(cfg.HTTP, cfg.Metrics, metricsHandler, ready.Ready, log)
	httpSrv.Register(func(r *gin.Engine) {
		authCfg := middleware.AuthConfig{
			APIKeys: cfg.API.Auth.APIKeys,
			Enabled: cfg.API.Auth.Enabled,
		}
		var console *api.TestConsoleHandler
		if cfg.App.Env != "prod" {
			console = api.NewTestConsoleHandler(cecBus, outQ, log)
		}
		api.RegisterRoutes(r, api.NewReadOnlyHandler(devs, proc, log), console, authCfg, log)
		app.RegisterHealthRoutes(r, healthAgg)
	})
	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// 阶段5: 最后开放适配器接入
	tcpSrv := app.NewTCPServer(cfg.TCP, cecBus, outQ, appm, log)
	if err := tcpSrv.Start(); err != nil {
		log.Error("tcp server start failed", zap.Error(err))
		return err
	}
	ready.SetTCPReady(true)
	app.AddTCPChecker(healthAgg, tcpSrv)
	log.Info("all services ready, waiting for adapter")

	// 阶段6: 等待关闭信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, gracefully shutting down...")
	ready.SetTCPReady(false)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tcpSrv.Shutdown(ctx)
	log.Info("tcp server stopped")

	cecBus.Stop()
	log.Info("bus stopped")

	_ = httpSrv.Shutdown(ctx)
	log.Info("http server stopped")

	log.Info("shutdown complete")
	return nil
}
