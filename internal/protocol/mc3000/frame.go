package mc3000

import (
	"errors"
	"fmt"
)

// 帧布局：magic[1] | cmd[1] | payload[..] | sum[1]
// 下行帧固定20字节，payload 为17字节（参数 + 0填充）；上行帧长度可变，最少3字节。
const (
	Magic       byte = 0x0F
	FrameLen         = 20
	PayloadLen       = FrameLen - 3
	MinFrameLen      = 3
)

var (
	ErrShortPacket  = errors.New("short packet")
	ErrInvalidMagic = errors.New("invalid magic")
	ErrBadChecksum  = errors.New("bad checksum")
	ErrArgsTooLong  = errors.New("command args exceed payload length")
)

// Frame 解析后的上行帧
type Frame struct {
	Cmd     Command
	Payload []byte
	// ChecksumOK 为 false 时表示校验失败但被放行（仅版本信息应答）
	ChecksumOK bool
}

// Build 构造一帧下行命令
func Build(cmd Command, args []byte) ([]byte, error) {
	if len(args) > PayloadLen {
		return nil, fmt.Errorf("%w: %d > %d", ErrArgsTooLong, len(args), PayloadLen)
	}
	buf := make([]byte, FrameLen)
	buf[0] = Magic
	buf[1] = byte(cmd)
	copy(buf[2:], args)
	buf[FrameLen-1] = CalculateChecksum(buf[:FrameLen-1])
	return buf, nil
}

// Parse 校验并拆分一帧上行数据
// 版本信息应答的校验和在固件中计算错误，对该命令放行校验失败。
// 返回的 Payload 与 raw 共享底层数组。
func Parse(raw []byte) (*Frame, error) {
	if len(raw) < MinFrameLen {
		return nil, ErrShortPacket
	}
	if raw[0] != Magic {
		return nil, ErrInvalidMagic
	}
	cmd := Command(raw[1])
	ok := VerifyChecksum(raw) == nil
	if !ok && cmd != CmdGetVersionInfo {
		return nil, ErrBadChecksum
	}
	return &Frame{Cmd: cmd, Payload: raw[2 : len(raw)-1], ChecksumOK: ok}, nil
}
