package sim

import (
	"encoding/binary"
	"math"

	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

// 设备侧编码：与 mc3000 包的解码互逆

func milli(v float64) uint16 {
	return uint16(math.Round(v * 1000))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ledBits 通道指示灯位图：bit ch 为红灯，bit ch+ChannelCount 为绿灯
func ledBits(channel int, c mc3000.LedColor) byte {
	switch c {
	case mc3000.LedRed:
		return 1 << channel
	case mc3000.LedGreen:
		return 1 << (channel + mc3000.ChannelCount)
	}
	return 0
}

func encodeChannelData(channel int, c *mc3000.ChannelData) []byte {
	p := make([]byte, 17)
	p[0] = byte(channel)
	p[1] = byte(c.Type)
	p[2] = byte(c.Mode)
	p[3] = c.Count
	p[4] = byte(c.Status)
	binary.BigEndian.PutUint16(p[5:], c.Time)
	binary.BigEndian.PutUint16(p[7:], milli(c.Voltage))
	binary.BigEndian.PutUint16(p[9:], milli(c.Current))
	binary.BigEndian.PutUint16(p[11:], c.Capacity)
	p[13] = c.Temperature
	binary.BigEndian.PutUint16(p[14:], c.Resistance)
	p[16] = ledBits(channel, c.LED)
	return p
}

func encodeBasicData(b *mc3000.BasicData) []byte {
	p := make([]byte, 7)
	p[0] = byte(b.TempUnit)
	p[1] = boolByte(b.SystemBeep)
	p[2] = byte(b.Display)
	p[3] = boolByte(b.Screensaver)
	p[4] = byte(b.CoolingFan)
	binary.BigEndian.PutUint16(p[5:], milli(b.InputVoltage))
	return p
}

func encodeVersionInfo(f Firmware) []byte {
	p := make([]byte, 15)
	p[12] = f.Major
	p[13] = f.Minor
	p[14] = f.HW
	return p
}

// frame 构造上行帧；badSum 时写入错误的校验和
func frame(cmd mc3000.Command, payload []byte, badSum bool) []byte {
	buf := make([]byte, 0, len(payload)+3)
	buf = append(buf, mc3000.Magic, byte(cmd))
	buf = append(buf, payload...)
	sum := mc3000.CalculateChecksum(buf)
	if badSum {
		sum ^= 0xFF
	}
	return append(buf, sum)
}
