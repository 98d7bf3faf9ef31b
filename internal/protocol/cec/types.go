package cec

import (
	"fmt"
	"strconv"
	"strings"
)

// LogicalAddress 逻辑地址（0-15），15 同时表示广播与未注册
type LogicalAddress uint8

const (
	LogicalAddressTV           LogicalAddress = 0
	LogicalAddressRecording1   LogicalAddress = 1
	LogicalAddressRecording2   LogicalAddress = 2
	LogicalAddressTuner1       LogicalAddress = 3
	LogicalAddressPlayback1    LogicalAddress = 4
	LogicalAddressAudioSystem  LogicalAddress = 5
	LogicalAddressTuner2       LogicalAddress = 6
	LogicalAddressTuner3       LogicalAddress = 7
	LogicalAddressPlayback2    LogicalAddress = 8
	LogicalAddressRecording3   LogicalAddress = 9
	LogicalAddressTuner4       LogicalAddress = 10
	LogicalAddressPlayback3    LogicalAddress = 11
	LogicalAddressReserved1    LogicalAddress = 12
	LogicalAddressReserved2    LogicalAddress = 13
	LogicalAddressFreeUse      LogicalAddress = 14
	LogicalAddressBroadcast    LogicalAddress = 15
	LogicalAddressUnregistered LogicalAddress = 15
)

const maxLogicalAddress = 15

var logicalAddressNames = [...]string{
	"TV", "Recorder 1", "Recorder 2", "Tuner 1", "Playback 1", "Audio",
	"Tuner 2", "Tuner 3", "Playback 2", "Recorder 3", "Tuner 4",
	"Playback 3", "Reserved 1", "Reserved 2", "Free use", "Broadcast",
}

func (a LogicalAddress) String() string {
	if a > maxLogicalAddress {
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
	return logicalAddressNames[a]
}

// Valid 是否在 0-15 范围内
func (a LogicalAddress) Valid() bool { return a <= maxLogicalAddress }

// DeviceType 设备类型（report-physical-address 的第三个参数字节）
type DeviceType uint8

const (
	DeviceTypeTV              DeviceType = 0
	DeviceTypeRecordingDevice DeviceType = 1
	DeviceTypeReserved        DeviceType = 2
	DeviceTypeTuner           DeviceType = 3
	DeviceTypePlaybackDevice  DeviceType = 4
	DeviceTypeAudioSystem     DeviceType = 5
)

// DeviceTypeOf 由逻辑地址推导设备类型
func DeviceTypeOf(a LogicalAddress) DeviceType {
	switch a {
	case LogicalAddressTV:
		return DeviceTypeTV
	case LogicalAddressRecording1, LogicalAddressRecording2, LogicalAddressRecording3:
		return DeviceTypeRecordingDevice
	case LogicalAddressTuner1, LogicalAddressTuner2, LogicalAddressTuner3, LogicalAddressTuner4:
		return DeviceTypeTuner
	case LogicalAddressPlayback1, LogicalAddressPlayback2, LogicalAddressPlayback3:
		return DeviceTypePlaybackDevice
	case LogicalAddressAudioSystem:
		return DeviceTypeAudioSystem
	default:
		return DeviceTypeReserved
	}
}

// PhysicalAddress 物理地址：拓扑树中的位置，文本形式 a.b.c.d
type PhysicalAddress uint16

// PhysicalAddressInvalid 未分配物理地址
const PhysicalAddressInvalid PhysicalAddress = 0xFFFF

func (p PhysicalAddress) String() string {
	v := uint16(p)
	return fmt.Sprintf("%x.%x.%x.%x", (v>>12)&0xF, (v>>8)&0xF, (v>>4)&0xF, v&0xF)
}

// Bytes 高字节在前
func (p PhysicalAddress) Bytes() [2]byte {
	return [2]byte{byte(p >> 8), byte(p)}
}

// ParsePhysicalAddress 解析 "1.0.0.0" 或 "1000"/"0x1000" 形式的物理地址
func ParsePhysicalAddress(s string) (PhysicalAddress, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		parts := strings.Split(s, ".")
		if len(parts) != 4 {
			return 0, fmt.Errorf("physical address %q: want 4 nibbles", s)
		}
		var v uint16
		for _, p := range parts {
			n, err := strconv.ParseUint(p, 16, 4)
			if err != nil {
				return 0, fmt.Errorf("physical address %q: %w", s, err)
			}
			v = v<<4 | uint16(n)
		}
		return PhysicalAddress(v), nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("physical address %q: %w", s, err)
	}
	return PhysicalAddress(n), nil
}

// VendorID 24 位厂商标识（IEEE OUI）
type VendorID uint32

func (v VendorID) String() string { return fmt.Sprintf("%06X", uint32(v)) }

// 菜单请求类型
const (
	MenuRequestActivate   byte = 0x00
	MenuRequestDeactivate byte = 0x01
	MenuRequestQuery      byte = 0x02
)

// MenuState 菜单状态
type MenuState uint8

const (
	MenuStateActivated   MenuState = 0x00
	MenuStateDeactivated MenuState = 0x01
)

// PowerStatus 电源状态
type PowerStatus uint8

const (
	PowerStatusOn                      PowerStatus = 0x00
	PowerStatusStandby                 PowerStatus = 0x01
	PowerStatusInTransitionStandbyToOn PowerStatus = 0x02
	PowerStatusInTransitionOnToStandby PowerStatus = 0x03
)

func (s PowerStatus) String() string {
	switch s {
	case PowerStatusOn:
		return "on"
	case PowerStatusStandby:
		return "standby"
	case PowerStatusInTransitionStandbyToOn:
		return "standby->on"
	case PowerStatusInTransitionOnToStandby:
		return "on->standby"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Version 协议版本
type Version uint8

const (
	Version13a Version = 0x04
	Version14  Version = 0x05
)

func (v Version) String() string {
	switch v {
	case Version13a:
		return "1.3a"
	case Version14:
		return "1.4"
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

// AbortReason feature-abort 原因
type AbortReason uint8

const (
	AbortReasonUnrecognizedOpcode  AbortReason = 0x00
	AbortReasonNotInCorrectMode    AbortReason = 0x01
	AbortReasonCannotProvideSource AbortReason = 0x02
	AbortReasonInvalidOperand      AbortReason = 0x03
	AbortReasonRefused             AbortReason = 0x04
)

// UserControlCode 遥控键码
type UserControlCode uint8

// UserControlCodeMax 合法键码上限（含）
const UserControlCodeMax UserControlCode = 0x76

// Valid 键码是否在合法范围
func (c UserControlCode) Valid() bool { return c <= UserControlCodeMax }
