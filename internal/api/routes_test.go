package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/cec-server/internal/api/middleware"
	"github.com/taoyao-code/cec-server/internal/device"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

type recorder struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (r *recorder) Transmit(f cec.Frame) error {
	if r.fail {
		return errors.New("outbound queue full")
	}
	r.mu.Lock()
	r.sent = append(r.sent, f.String())
	r.mu.Unlock()
	return nil
}

func (r *recorder) Deliver(f cec.Frame) {
	r.mu.Lock()
	r.sent = append(r.sent, "rx "+f.String())
	r.mu.Unlock()
}

type fixture struct {
	engine *gin.Engine
	proc   *device.Processor
	dev    *device.Device
	rec    *recorder
}

func setup(t *testing.T, auth middleware.AuthConfig) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := &recorder{}
	proc := device.NewProcessor(rec, nil, nil, nil)
	dev := device.New(device.Options{
		LogicalAddress:  cec.LogicalAddressPlayback1,
		PhysicalAddress: 0x1000,
		OSDName:         "Player",
		VendorID:        0x001582,
	}, proc, nil)

	r := gin.New()
	RegisterRoutes(r,
		NewReadOnlyHandler([]*device.Device{dev}, proc, nil),
		NewTestConsoleHandler(rec, rec, nil),
		auth, nil)
	return &fixture{engine: r, proc: proc, dev: dev, rec: rec}
}

func (f *fixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestListDevices(t *testing.T) {
	f := setup(t, middleware.AuthConfig{})
	w := f.do(http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Devices []map[string]any `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 1)
	assert.Equal(t, "1.0.0.0", resp.Devices[0]["physical_address"])
	assert.Equal(t, "001582", resp.Devices[0]["vendor_id"])
}

func TestGetDevice(t *testing.T) {
	f := setup(t, middleware.AuthConfig{})

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/devices/4", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/devices/5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/devices/16", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/devices/x", nil).Code)
}

func TestListOpcodes(t *testing.T) {
	f := setup(t, middleware.AuthConfig{})
	w := f.do(http.MethodGet, "/api/devices/4/opcodes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Unicast   []map[string]string `json:"unicast"`
		Broadcast []map[string]string `json:"broadcast"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Unicast, 11)
	assert.Len(t, resp.Broadcast, 5)
	assert.Equal(t, "1A", resp.Unicast[0]["opcode"])
}

func TestConsoleInjectAndUnhandled(t *testing.T) {
	f := setup(t, middleware.AuthConfig{})

	w := f.do(http.MethodPost, "/api/console/receive", FrameRequest{Frame: "0F:85"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"rx 0F:85"}, f.rec.sent)

	w = f.do(http.MethodPost, "/api/console/transmit", FrameRequest{Frame: "4F:82:10:00"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "4F:82:10:00", f.rec.sent[1])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/console/receive", FrameRequest{Frame: "zz"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/console/receive", map[string]string{}).Code)

	f.rec.fail = true
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodPost, "/api/console/transmit", FrameRequest{Frame: "40:36"}).Code)

	// 未处理命令经处理器进入内存队列
	cec.NewDispatcher(f.dev).Dispatch(cec.NewFrame(0, 4, cec.OpStandby))
	w = f.do(http.MethodGet, "/api/commands/unhandled?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Total    int64            `json:"total"`
		Commands []map[string]any `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "04:36", resp.Commands[0]["raw"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/commands/unhandled?limit=0", nil).Code)
}

func TestVendorsAndKeys(t *testing.T) {
	f := setup(t, middleware.AuthConfig{})
	d := cec.NewDispatcher(f.dev)
	d.Dispatch(cec.NewFrame(0, 15, cec.OpDeviceVendorID, 0x00, 0x00, 0xF0))
	d.Dispatch(cec.NewFrame(0, 4, cec.OpUserControlPressed, 0x44))

	w := f.do(http.MethodGet, "/api/vendors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Samsung"`)

	w = f.do(http.MethodGet, "/api/keys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_button":68`)
}

func TestAPIKeyAuth(t *testing.T) {
	f := setup(t, middleware.AuthConfig{Enabled: true, APIKeys: []string{"sk_test_12345678"}})

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/devices", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/devices", nil, "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/devices", nil, "X-API-Key", "sk_test_12345678").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/devices", nil, "Authorization", "Bearer sk_test_12345678").Code)
}
