package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/coremodel"
	"github.com/taoyao-code/cec-server/internal/device"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// ReadOnlyHandler 只读查询：本机设备、厂商登记、按键与未处理命令
type ReadOnlyHandler struct {
	devices map[cec.LogicalAddress]*device.Device
	order   []cec.LogicalAddress
	proc    *device.Processor
	logger  *zap.Logger
}

// NewReadOnlyHandler 创建只读处理器
func NewReadOnlyHandler(devices []*device.Device, proc *device.Processor, logger *zap.Logger) *ReadOnlyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ReadOnlyHandler{
		devices: make(map[cec.LogicalAddress]*device.Device, len(devices)),
		proc:    proc,
		logger:  logger,
	}
	for _, d := range devices {
		la := d.LogicalAddress()
		h.devices[la] = d
		h.order = append(h.order, la)
	}
	return h
}

// ListDevices GET /api/devices
func (h *ReadOnlyHandler) ListDevices(c *gin.Context) {
	list := make([]coremodel.DeviceSnapshot, 0, len(h.order))
	for _, la := range h.order {
		list = append(list, h.devices[la].Snapshot())
	}
	c.JSON(http.StatusOK, gin.H{"devices": list})
}

// GetDevice GET /api/devices/:la
func (h *ReadOnlyHandler) GetDevice(c *gin.Context) {
	d, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d.Snapshot())
}

// ListOpcodes GET /api/devices/:la/opcodes 本机处理的操作码
func (h *ReadOnlyHandler) ListOpcodes(c *gin.Context) {
	d, ok := h.lookup(c)
	if !ok {
		return
	}
	disp := cec.NewDispatcher(d)
	c.JSON(http.StatusOK, gin.H{
		"unicast":   opcodeNames(disp.UnicastOpcodes()),
		"broadcast": opcodeNames(disp.BroadcastOpcodes()),
	})
}

// ListVendors GET /api/vendors
func (h *ReadOnlyHandler) ListVendors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"vendors": h.proc.Vendors().Entries()})
}

// GetKeys GET /api/keys
func (h *ReadOnlyHandler) GetKeys(c *gin.Context) {
	c.JSON(http.StatusOK, h.proc.Keys().Snapshot())
}

// ListUnhandled GET /api/commands/unhandled?limit=50
func (h *ReadOnlyHandler) ListUnhandled(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-1000"})
			return
		}
		limit = n
	}
	ctx := c.Request.Context()
	list, err := h.proc.Sink().Recent(ctx, limit)
	if err != nil {
		h.logger.Error("list unhandled commands failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := h.proc.Sink().Len(ctx)
	if err != nil {
		h.logger.Error("count unhandled commands failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commands": list, "total": total})
}

func (h *ReadOnlyHandler) lookup(c *gin.Context) (*device.Device, bool) {
	n, err := strconv.ParseUint(c.Param("la"), 10, 8)
	if err != nil || !cec.LogicalAddress(n).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid logical address"})
		return nil, false
	}
	d, ok := h.devices[cec.LogicalAddress(n)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return nil, false
	}
	return d, true
}

func opcodeNames(ops []cec.Opcode) []gin.H {
	out := make([]gin.H, 0, len(ops))
	for _, op := range ops {
		out = append(out, gin.H{"opcode": op.Hex(), "name": op.String()})
	}
	return out
}
