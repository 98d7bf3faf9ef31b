package cec

import "fmt"

// Opcode 协议操作码
type Opcode uint8

const (
	OpFeatureAbort          Opcode = 0x00
	OpImageViewOn           Opcode = 0x04
	OpTextViewOn            Opcode = 0x0D
	OpGiveDeckStatus        Opcode = 0x1A
	OpDeckStatus            Opcode = 0x1B
	OpSetMenuLanguage       Opcode = 0x32
	OpStandby               Opcode = 0x36
	OpPlay                  Opcode = 0x41
	OpDeckControl           Opcode = 0x42
	OpUserControlPressed    Opcode = 0x44
	OpUserControlRelease    Opcode = 0x45
	OpGiveOSDName           Opcode = 0x46
	OpSetOSDName            Opcode = 0x47
	OpRoutingChange         Opcode = 0x80
	OpRoutingInformation    Opcode = 0x81
	OpActiveSource          Opcode = 0x82
	OpGivePhysicalAddress   Opcode = 0x83
	OpReportPhysicalAddress Opcode = 0x84
	OpRequestActiveSource   Opcode = 0x85
	OpSetStreamPath         Opcode = 0x86
	OpDeviceVendorID        Opcode = 0x87
	OpVendorCommand         Opcode = 0x89
	OpGiveDeviceVendorID    Opcode = 0x8C
	OpMenuRequest           Opcode = 0x8D
	OpMenuStatus            Opcode = 0x8E
	OpGiveDevicePowerStatus Opcode = 0x8F
	OpReportPowerStatus     Opcode = 0x90
	OpGetMenuLanguage       Opcode = 0x91
	OpInactiveSource        Opcode = 0x9D
	OpCECVersion            Opcode = 0x9E
	OpGetCECVersion         Opcode = 0x9F
	OpVendorCommandWithID   Opcode = 0xA0
	OpAbort                 Opcode = 0xFF
)

var opcodeNames = map[Opcode]string{
	OpFeatureAbort:          "feature abort",
	OpImageViewOn:           "image view on",
	OpTextViewOn:            "text view on",
	OpGiveDeckStatus:        "give deck status",
	OpDeckStatus:            "deck status",
	OpSetMenuLanguage:       "set menu language",
	OpStandby:               "standby",
	OpPlay:                  "play",
	OpDeckControl:           "deck control",
	OpUserControlPressed:    "user control pressed",
	OpUserControlRelease:    "user control release",
	OpGiveOSDName:           "give osd name",
	OpSetOSDName:            "set osd name",
	OpRoutingChange:         "routing change",
	OpRoutingInformation:    "routing information",
	OpActiveSource:          "active source",
	OpGivePhysicalAddress:   "give physical address",
	OpReportPhysicalAddress: "report physical address",
	OpRequestActiveSource:   "request active source",
	OpSetStreamPath:         "set stream path",
	OpDeviceVendorID:        "device vendor id",
	OpVendorCommand:         "vendor command",
	OpGiveDeviceVendorID:    "give device vendor id",
	OpMenuRequest:           "menu request",
	OpMenuStatus:            "menu status",
	OpGiveDevicePowerStatus: "give device power status",
	OpReportPowerStatus:     "report power status",
	OpGetMenuLanguage:       "get menu language",
	OpInactiveSource:        "inactive source",
	OpCECVersion:            "cec version",
	OpGetCECVersion:         "get cec version",
	OpVendorCommandWithID:   "vendor command with id",
	OpAbort:                 "abort",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("unknown(0x%02X)", uint8(o))
}

// Hex 两位十六进制表示，用于指标标签
func (o Opcode) Hex() string { return fmt.Sprintf("%02X", uint8(o)) }
