package cec

// Class 帧目标分类
type Class uint8

const (
	ClassOther Class = iota
	ClassMine
	ClassBroadcast
)

func (c Class) String() string {
	switch c {
	case ClassMine:
		return "mine"
	case ClassBroadcast:
		return "broadcast"
	default:
		return "other"
	}
}

// Classify 按目标地址分类：发给本机、广播或其他设备
func Classify(dest, self LogicalAddress) Class {
	switch {
	case dest == self:
		return ClassMine
	case dest == LogicalAddressBroadcast:
		return ClassBroadcast
	default:
		return ClassOther
	}
}
