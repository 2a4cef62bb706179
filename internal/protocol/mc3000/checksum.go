package mc3000

// CalculateChecksum 计算MC3000校验和
// 算法：对所有字节累加，byte溢出自动丢弃高位（即 sum mod 256）
func CalculateChecksum(data []byte) byte {
	var checksum byte
	for _, b := range data {
		checksum += b
	}
	return checksum
}

// VerifyChecksum 验证校验和
// frame: 完整帧，最后一个字节为校验和
func VerifyChecksum(frame []byte) error {
	if len(frame) < 1 {
		return ErrShortPacket
	}
	pos := len(frame) - 1
	if frame[pos] != CalculateChecksum(frame[:pos]) {
		return ErrBadChecksum
	}
	return nil
}
