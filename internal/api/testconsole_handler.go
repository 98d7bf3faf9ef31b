package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// FrameInjector 把帧注入本机总线
type FrameInjector interface {
	Deliver(f cec.Frame)
}

// FrameTransmitter 把帧写入下行队列
type FrameTransmitter interface {
	Transmit(f cec.Frame) error
}

// TestConsoleHandler 运维调试：模拟收帧与手动发帧
type TestConsoleHandler struct {
	bus    FrameInjector
	tx     FrameTransmitter
	logger *zap.Logger
}

// NewTestConsoleHandler 创建调试处理器
func NewTestConsoleHandler(bus FrameInjector, tx FrameTransmitter, logger *zap.Logger) *TestConsoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestConsoleHandler{bus: bus, tx: tx, logger: logger}
}

// FrameRequest 文本帧，如 "0F:85"
type FrameRequest struct {
	Frame string `json:"frame" binding:"required"`
}

func (h *TestConsoleHandler) bind(c *gin.Context) (cec.Frame, bool) {
	var req FrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return cec.Frame{}, false
	}
	f, err := cec.ParseString(req.Frame)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return cec.Frame{}, false
	}
	return f, true
}

// Inject POST /api/console/receive 模拟从总线收到一帧
func (h *TestConsoleHandler) Inject(c *gin.Context) {
	f, ok := h.bind(c)
	if !ok {
		return
	}
	h.logger.Info("console: frame injected", zap.Stringer("frame", f), zap.String("client_ip", c.ClientIP()))
	h.bus.Deliver(f)
	c.JSON(http.StatusAccepted, gin.H{"frame": f.String()})
}

// Send POST /api/console/transmit 直接发送一帧
func (h *TestConsoleHandler) Send(c *gin.Context) {
	f, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.tx.Transmit(f); err != nil {
		h.logger.Warn("console: transmit failed", zap.Stringer("frame", f), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("console: frame queued", zap.Stringer("frame", f), zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusAccepted, gin.H{"frame": f.String()})
}
