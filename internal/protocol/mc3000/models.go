package mc3000

// ChannelCount MC3000 充电通道数
const ChannelCount = 4

// BasicData 设备级设置快照
type BasicData struct {
	TempUnit     TemperatureUnit `json:"temp_unit" yaml:"temp_unit"`
	SystemBeep   bool            `json:"system_beep" yaml:"system_beep"`
	Display      DisplayMode     `json:"display" yaml:"display"`
	Screensaver  bool            `json:"screensaver" yaml:"screensaver"`
	CoolingFan   CoolingFanMode  `json:"cooling_fan" yaml:"cooling_fan"`
	InputVoltage float64         `json:"input_voltage" yaml:"input_voltage"` // V
}

// ChannelData 单通道遥测
type ChannelData struct {
	Type        BatteryType   `json:"type" yaml:"type"`
	Mode        ChannelMode   `json:"mode" yaml:"mode"`
	Count       uint8         `json:"count" yaml:"count"`
	Status      ChannelStatus `json:"status" yaml:"status"`
	Time        uint16        `json:"time" yaml:"time"`               // s
	Voltage     float64       `json:"voltage" yaml:"voltage"`         // V
	Current     float64       `json:"current" yaml:"current"`         // A
	Capacity    uint16        `json:"capacity" yaml:"capacity"`       // mAh
	Temperature uint8         `json:"temperature" yaml:"temperature"` // °C
	Resistance  uint16        `json:"resistance" yaml:"resistance"`   // mΩ
	LED         LedColor      `json:"led" yaml:"led"`
}

// IsWorking 通道是否处于充电/放电/暂停中
func (c *ChannelData) IsWorking() bool {
	switch c.Status {
	case StatusCharge, StatusDischarge, StatusPause:
		return true
	}
	return false
}

// VersionInfo 固件/硬件版本
type VersionInfo struct {
	SWVersion string `json:"sw_version" yaml:"sw_version"`
	HWVersion string `json:"hw_version" yaml:"hw_version"`
}

// State 设备状态快照：记录只整体替换，不做字段级合并
type State struct {
	BasicData *BasicData                 `json:"basic_data" yaml:"basic_data"`
	Channels  [ChannelCount]*ChannelData `json:"channels" yaml:"channels"`
}
