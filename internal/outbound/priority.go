package outbound

import "github.com/taoyao-code/cec-server/internal/protocol/cec"

// 发送优先级：数值越小越优先
const (
	// PriorityHigh 对端正在等待的应答与路由相关广播
	// 场景: feature abort、active source、report physical address
	PriorityHigh = 1

	// PriorityNormal 其余状态上报
	PriorityNormal = 2
)

// PriorityFor 根据操作码返回发送优先级
func PriorityFor(op cec.Opcode) int {
	switch op {
	case cec.OpFeatureAbort, cec.OpActiveSource, cec.OpReportPhysicalAddress:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
