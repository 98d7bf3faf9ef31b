package gateway

import (
	"go.uber.org/zap"

	"github.com/taoyao-code/cec-server/internal/metrics"
	"github.com/taoyao-code/cec-server/internal/outbound"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
	"github.com/taoyao-code/cec-server/internal/tcpserver"
)

// Deliverer 收到的帧交给本机设备总线
type Deliverer interface {
	Deliver(f cec.Frame)
}

// SinkBinder 发送队列的写出目标绑定
type SinkBinder interface {
	SetSink(s outbound.Sink)
	ClearSink(s outbound.Sink)
}

// NewConnHandler 构建适配器连接处理器：
// 上行按行解析为帧投递到总线；连接本身成为下行写出目标（最新连接生效）
func NewConnHandler(bus Deliverer, out SinkBinder, appm *metrics.AppMetrics) tcpserver.ConnHandler {
	return func(cc *tcpserver.ConnContext) {
		log := cc.Logger()
		dec := NewLineDecoder()

		if out != nil {
			out.SetSink(cc)
			go func() {
				<-cc.Done()
				out.ClearSink(cc)
			}()
		}

		cc.SetOnRead(func(p []byte) {
			lines, oversized := dec.Feed(p)
			if oversized > 0 {
				log.Warn("oversized line discarded", zap.Int("count", oversized))
				if appm != nil {
					appm.FrameParseTotal.WithLabelValues("oversized").Add(float64(oversized))
				}
			}
			for _, line := range lines {
				f, err := cec.ParseString(line)
				if err != nil {
					log.Debug("frame parse failed", zap.String("line", line), zap.Error(err))
					if appm != nil {
						appm.FrameParseTotal.WithLabelValues("error").Inc()
					}
					continue
				}
				if appm != nil {
					appm.FrameParseTotal.WithLabelValues("ok").Inc()
				}
				if bus != nil {
					bus.Deliver(f)
				}
			}
		})
	}
}
