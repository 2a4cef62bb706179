package mc3000

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrPayloadTooShort = errors.New("payload too short")
	ErrInvalidChannel  = errors.New("invalid channel")
)

// 各命令应答的最小 payload 长度（从帧偏移2开始）
const (
	channelDataLen = 17
	versionInfoLen = 15 // 12字节保留 + fw_major + fw_minor + hw
	basicDataLen   = 7

	versionReserved = 12
)

func needLen(cmd Command, p []byte, n int) error {
	if len(p) < n {
		return fmt.Errorf("%s: %w: %d < %d", cmd, ErrPayloadTooShort, len(p), n)
	}
	return nil
}

// DecodeChannelData 解析通道遥测（大端）
// channel u8 | type u8 | mode u8 | count u8 | status u8 | time u16 | voltage u16 |
// current u16 | capacity u16 | temperature u8 | resistance u16 | leds u8
func DecodeChannelData(p []byte) (int, *ChannelData, error) {
	if err := needLen(CmdGetChannelData, p, channelDataLen); err != nil {
		return 0, nil, err
	}
	channel := int(p[0])
	if channel >= ChannelCount {
		return channel, nil, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	typ, err := lookupCode("battery type", batteryTypeNames, p[1])
	if err != nil {
		return channel, nil, err
	}
	mode, err := lookupCode("channel mode", channelModeNames, p[2])
	if err != nil {
		return channel, nil, err
	}
	status, err := lookupCode("channel status", channelStatusNames, p[4])
	if err != nil {
		return channel, nil, err
	}
	return channel, &ChannelData{
		Type:        typ,
		Mode:        mode,
		Count:       p[3],
		Status:      status,
		Time:        binary.BigEndian.Uint16(p[5:7]),
		Voltage:     float64(binary.BigEndian.Uint16(p[7:9])) / 1000.0,
		Current:     float64(binary.BigEndian.Uint16(p[9:11])) / 1000.0,
		Capacity:    binary.BigEndian.Uint16(p[11:13]),
		Temperature: p[13],
		Resistance:  binary.BigEndian.Uint16(p[14:16]),
		LED:         ResolveLED(p[16], channel),
	}, nil
}

// ResolveLED 从 leds 位图推导通道指示灯：
// bit(channel) 置位为红灯，否则 bit(channel+ChannelCount) 置位为绿灯，否则熄灭
func ResolveLED(leds uint8, channel int) LedColor {
	if (leds>>channel)&1 == 1 {
		return LedRed
	}
	if (leds>>(channel+ChannelCount))&1 == 1 {
		return LedGreen
	}
	return LedOff
}

// DecodeVersionInfo 解析版本信息：跳过12字节保留区后为 fw_major, fw_minor, hw
func DecodeVersionInfo(p []byte) (*VersionInfo, error) {
	if err := needLen(CmdGetVersionInfo, p, versionInfoLen); err != nil {
		return nil, err
	}
	major, minor, hw := p[versionReserved], p[versionReserved+1], p[versionReserved+2]
	return &VersionInfo{
		SWVersion: fmt.Sprintf("%d.%d", major, minor),
		HWVersion: fmt.Sprintf("%d.%d", hw/10, hw%10),
	}, nil
}

// DecodeBasicData 解析设备基础设置
// temp_unit u8 | system_beep bool | display u8 | screensaver bool | cooling_fan u8 | input_voltage u16
func DecodeBasicData(p []byte) (*BasicData, error) {
	if err := needLen(CmdGetBasicData, p, basicDataLen); err != nil {
		return nil, err
	}
	unit, err := lookupCode("temperature unit", temperatureUnitNames, p[0])
	if err != nil {
		return nil, err
	}
	display, err := lookupCode("display mode", displayModeNames, p[2])
	if err != nil {
		return nil, err
	}
	fan, err := lookupCode("cooling fan mode", coolingFanModeNames, p[4])
	if err != nil {
		return nil, err
	}
	return &BasicData{
		TempUnit:     unit,
		SystemBeep:   p[1] != 0,
		Display:      display,
		Screensaver:  p[3] != 0,
		CoolingFan:   fan,
		InputVoltage: float64(binary.BigEndian.Uint16(p[5:7])) / 1000.0,
	}, nil
}
