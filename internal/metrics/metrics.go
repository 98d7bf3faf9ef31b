package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	TCPAccepted      prometheus.Counter
	TCPRejected      prometheus.Counter
	TCPBytesReceived prometheus.Counter
	AdapterConnected prometheus.Gauge
	FrameParseTotal  *prometheus.CounterVec // labels: result=ok|error|oversized
	DispatchTotal    *prometheus.CounterVec // labels: device, class, opcode, handled
	TransmitTotal    *prometheus.CounterVec // labels: opcode, result=sent|dropped|queue_full
	UnhandledTotal   *prometheus.CounterVec // labels: opcode
	KeyPressTotal    prometheus.Counter
	InboxDropped     *prometheus.CounterVec // labels: device
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		TCPAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_accept_total",
			Help: "Total accepted adapter TCP connections.",
		}),
		TCPRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_reject_total",
			Help: "Adapter TCP connections rejected by limiters.",
		}),
		TCPBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_bytes_received_total",
			Help: "Total bytes received from adapters.",
		}),
		AdapterConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cec_adapter_connected",
			Help: "1 when an adapter connection is bound as transmit sink.",
		}),
		FrameParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cec_frame_parse_total",
			Help: "CEC frame parse attempts.",
		}, []string{"result"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cec_dispatch_total",
			Help: "CEC frames dispatched per local device.",
		}, []string{"device", "class", "opcode", "handled"}),
		TransmitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cec_transmit_total",
			Help: "CEC frames queued for transmission by result.",
		}, []string{"opcode", "result"}),
		UnhandledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cec_unhandled_total",
			Help: "CEC frames forwarded to the unhandled command path.",
		}, []string{"opcode"}),
		KeyPressTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cec_key_press_total",
			Help: "Remote control key presses accepted.",
		}),
		InboxDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cec_inbox_dropped_total",
			Help: "Frames dropped because a device inbox was full.",
		}, []string{"device"}),
	}
	reg.MustRegister(m.TCPAccepted, m.TCPRejected, m.TCPBytesReceived, m.AdapterConnected,
		m.FrameParseTotal, m.DispatchTotal, m.TransmitTotal, m.UnhandledTotal, m.KeyPressTotal, m.InboxDropped)
	return m
}
