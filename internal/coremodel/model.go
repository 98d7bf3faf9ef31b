package coremodel

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// DeviceSnapshot 本机逻辑设备状态快照（API 输出）
type DeviceSnapshot struct {
	LogicalAddress  uint8  `json:"logical_address"`
	Role            string `json:"role"`
	PhysicalAddress string `json:"physical_address"`
	DeviceType      uint8  `json:"device_type"`
	OSDName         string `json:"osd_name"`
	VendorID        string `json:"vendor_id"`
	CECVersion      string `json:"cec_version"`
	PowerStatus     string `json:"power_status"`
	MenuState       string `json:"menu_state"`
}

// KeySnapshot 遥控按键状态
type KeySnapshot struct {
	CurrentButton *uint8    `json:"current_button,omitempty"`
	LastActivity  time.Time `json:"last_activity"`
	Presses       uint64    `json:"presses"`
}

// VendorEntry 远端设备厂商登记
type VendorEntry struct {
	LogicalAddress uint8  `json:"logical_address"`
	VendorID       string `json:"vendor_id"`
	Name           string `json:"name"`
}

// UnhandledCommand 未在本地处理、转交上层的命令
type UnhandledCommand struct {
	ID          string    `json:"id"`
	Device      uint8     `json:"device"`
	Initiator   uint8     `json:"initiator"`
	Destination uint8     `json:"destination"`
	Opcode      *uint8    `json:"opcode,omitempty"`
	Parameters  string    `json:"parameters"`
	Raw         string    `json:"raw"`
	ReceivedAt  time.Time `json:"received_at"`
}

// NewUnhandledCommand 由本机设备 self 收到的帧构建记录
func NewUnhandledCommand(self cec.LogicalAddress, f cec.Frame, at time.Time) *UnhandledCommand {
	c := &UnhandledCommand{
		ID:          uuid.New().String(),
		Device:      uint8(self),
		Initiator:   uint8(f.Initiator),
		Destination: uint8(f.Destination),
		Parameters:  hex.EncodeToString(f.Parameters),
		Raw:         f.String(),
		ReceivedAt:  at,
	}
	if f.HasOpcode {
		op := uint8(f.Opcode)
		c.Opcode = &op
	}
	return c
}
