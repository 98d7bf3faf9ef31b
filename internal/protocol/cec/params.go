package cec

// Params 读取前 n 个参数字节；不足 n 个时返回 false，调用方应跳过处理
func Params(f Frame, n int) ([]byte, bool) {
	if n < 0 || len(f.Parameters) < n {
		return nil, false
	}
	return f.Parameters[:n], true
}

// PhysicalAddressFrom 两字节（高位在前）解码物理地址
func PhysicalAddressFrom(b []byte) PhysicalAddress {
	return PhysicalAddress(uint16(b[0])<<8 | uint16(b[1]))
}

// VendorIDFrom 三字节（高位在前）解码厂商标识
func VendorIDFrom(b []byte) VendorID {
	return VendorID(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
}
