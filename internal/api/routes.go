package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/api/middleware"
)

// RegisterRoutes 注册 /api 路由组
// console 为 nil 时不开放调试接口
func RegisterRoutes(
	r *gin.Engine,
	readonly *ReadOnlyHandler,
	console *TestConsoleHandler,
	authCfg middleware.AuthConfig,
	logger *zap.Logger,
) {
	if r == nil || readonly == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api := r.Group("/api", middleware.CORS())
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	api.GET("/devices", readonly.ListDevices)
	api.GET("/devices/:la", readonly.GetDevice)
	api.GET("/devices/:la/opcodes", readonly.ListOpcodes)
	api.GET("/vendors", readonly.ListVendors)
	api.GET("/keys", readonly.GetKeys)
	api.GET("/commands/unhandled", readonly.ListUnhandled)

	if console != nil {
		api.POST("/console/receive", console.Inject)
		api.POST("/console/transmit", console.Send)
	}
}
