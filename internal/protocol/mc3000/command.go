package mc3000

import "fmt"

// Command MC3000 命令码（单字节）
type Command uint8

const (
	CmdStartCharge     Command = 0x05
	CmdGetChannelData  Command = 0x55
	CmdGetVoltageCurve Command = 0x56 // 多包传输，不支持，按未知命令处理
	CmdGetVersionInfo  Command = 0x57
	CmdGetBasicData    Command = 0x61
	CmdStopCharge      Command = 0xFE
)

// Known 是否为已识别命令（电压曲线属于不支持的多包命令，视为未知）
func (c Command) Known() bool {
	switch c {
	case CmdStartCharge, CmdGetChannelData, CmdGetVersionInfo, CmdGetBasicData, CmdStopCharge:
		return true
	}
	return false
}

func (c Command) String() string {
	switch c {
	case CmdStartCharge:
		return "start_charge"
	case CmdGetChannelData:
		return "get_channel_data"
	case CmdGetVoltageCurve:
		return "get_voltage_curve"
	case CmdGetVersionInfo:
		return "get_version_info"
	case CmdGetBasicData:
		return "get_basic_data"
	case CmdStopCharge:
		return "stop_charge"
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(c))
}
