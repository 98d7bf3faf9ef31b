package cec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxParameters 单帧最大参数字节数
const MaxParameters = 14

var (
	ErrEmptyFrame   = errors.New("cec: empty frame")
	ErrInvalidByte  = errors.New("cec: invalid byte")
	ErrFrameTooLong = errors.New("cec: frame too long")
)

// Frame 总线帧（接收后只读）
// HasOpcode 为 false 时表示轮询帧（仅头字节）
type Frame struct {
	Initiator   LogicalAddress
	Destination LogicalAddress
	Opcode      Opcode
	HasOpcode   bool
	Parameters  []byte
}

// NewFrame 构建带操作码的帧
func NewFrame(from, to LogicalAddress, op Opcode, params ...byte) Frame {
	f := Frame{Initiator: from, Destination: to, Opcode: op, HasOpcode: true}
	if len(params) > 0 {
		f.Parameters = append([]byte(nil), params...)
	}
	return f
}

// NewPoll 构建轮询帧
func NewPoll(from, to LogicalAddress) Frame {
	return Frame{Initiator: from, Destination: to}
}

// IsBroadcast 目标是否为广播地址
func (f Frame) IsBroadcast() bool { return f.Destination == LogicalAddressBroadcast }

// Header 头字节：高 4 位发起方，低 4 位目标
func (f Frame) Header() byte {
	return byte(f.Initiator&0x0F)<<4 | byte(f.Destination&0x0F)
}

// Bytes 编码为线路字节序列
func (f Frame) Bytes() []byte {
	b := make([]byte, 0, 2+len(f.Parameters))
	b = append(b, f.Header())
	if !f.HasOpcode {
		return b
	}
	b = append(b, byte(f.Opcode))
	return append(b, f.Parameters...)
}

// String 文本形式，如 "4F:82:10:00"
func (f Frame) String() string {
	b := f.Bytes()
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}

// ParseBytes 从线路字节解析帧
func ParseBytes(b []byte) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	if len(b) > 2+MaxParameters {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(b))
	}
	f := Frame{
		Initiator:   LogicalAddress(b[0] >> 4),
		Destination: LogicalAddress(b[0] & 0x0F),
	}
	if len(b) > 1 {
		f.Opcode = Opcode(b[1])
		f.HasOpcode = true
	}
	if len(b) > 2 {
		f.Parameters = append([]byte(nil), b[2:]...)
	}
	return f, nil
}

// ParseString 解析文本形式的帧，字节间以 ':' 分隔
func ParseString(s string) (Frame, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Frame{}, ErrEmptyFrame
	}
	parts := strings.Split(s, ":")
	if len(parts) > 2+MaxParameters {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(parts))
	}
	b := make([]byte, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 16, 8)
		if err != nil {
			return Frame{}, fmt.Errorf("%w %q", ErrInvalidByte, p)
		}
		b = append(b, byte(n))
	}
	return ParseBytes(b)
}
