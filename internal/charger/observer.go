package charger

import "time"

// Observer 命令与帧处理的观测钩子（指标采集）
type Observer interface {
	// CommandDone result: ok|timeout|error
	CommandDone(cmd, result string, d time.Duration)
	// FrameReceived result: ok|short_packet|invalid_magic|bad_checksum|decode_error|unknown
	FrameReceived(cmd, result string)
}

type nopObserver struct{}

func (nopObserver) CommandDone(string, string, time.Duration) {}
func (nopObserver) FrameReceived(string, string)              {}

// NopObserver 空实现
func NopObserver() Observer { return nopObserver{} }
