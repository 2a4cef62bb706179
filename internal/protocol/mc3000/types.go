package mc3000

import (
	"fmt"
	"strings"
)

// UnknownCodeError 枚举字段出现未定义的编码
type UnknownCodeError struct {
	Field string
	Code  uint8
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s code %d", e.Field, e.Code)
}

type code interface{ ~uint8 }

func lookupCode[T code](field string, names map[T]string, v uint8) (T, error) {
	if _, ok := names[T(v)]; !ok {
		return 0, &UnknownCodeError{Field: field, Code: v}
	}
	return T(v), nil
}

func codeName[T code](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

func parseName[T code](field string, names map[T]string, s string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, v := range names {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", field, s)
}

// TemperatureUnit 温度单位
type TemperatureUnit uint8

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

var temperatureUnitNames = map[TemperatureUnit]string{
	Celsius:    "celsius",
	Fahrenheit: "fahrenheit",
}

func (u TemperatureUnit) String() string { return codeName(temperatureUnitNames, u) }

func (u TemperatureUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *TemperatureUnit) UnmarshalText(b []byte) error {
	v, err := parseName("temperature unit", temperatureUnitNames, string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// DisplayMode 屏幕背光模式
type DisplayMode uint8

const (
	DisplayOff DisplayMode = iota
	DisplayAuto
	DisplayTime1Min
	DisplayTime2Min
	DisplayTime5Min
	DisplayAlwaysOn
)

var displayModeNames = map[DisplayMode]string{
	DisplayOff:      "off",
	DisplayAuto:     "auto",
	DisplayTime1Min: "1min",
	DisplayTime2Min: "2min",
	DisplayTime5Min: "5min",
	DisplayAlwaysOn: "always_on",
}

func (d DisplayMode) String() string { return codeName(displayModeNames, d) }

func (d DisplayMode) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DisplayMode) UnmarshalText(b []byte) error {
	v, err := parseName("display mode", displayModeNames, string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// CoolingFanMode 散热风扇模式
type CoolingFanMode uint8

const (
	FanAuto CoolingFanMode = iota
	FanOff
	FanOn
	FanTemp20C
	FanTemp25C
	FanTemp30C
	FanTemp35C
	FanTemp40C
	FanTemp45C
	FanTemp50C
)

var coolingFanModeNames = map[CoolingFanMode]string{
	FanAuto:    "auto",
	FanOff:     "off",
	FanOn:      "on",
	FanTemp20C: "20c",
	FanTemp25C: "25c",
	FanTemp30C: "30c",
	FanTemp35C: "35c",
	FanTemp40C: "40c",
	FanTemp45C: "45c",
	FanTemp50C: "50c",
}

func (f CoolingFanMode) String() string { return codeName(coolingFanModeNames, f) }

func (f CoolingFanMode) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *CoolingFanMode) UnmarshalText(b []byte) error {
	v, err := parseName("cooling fan mode", coolingFanModeNames, string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// BatteryType 电池类型
type BatteryType uint8

const (
	BatteryLiIon BatteryType = iota
	BatteryLiFe
	BatteryLiIon435
	BatteryNiMH
	BatteryNiCd
	BatteryNiZn
	BatteryEneloop
	BatteryRAM
	BatteryBatLTO
)

var batteryTypeNames = map[BatteryType]string{
	BatteryLiIon:    "liion",
	BatteryLiFe:     "life",
	BatteryLiIon435: "liion_4_35",
	BatteryNiMH:     "nimh",
	BatteryNiCd:     "nicd",
	BatteryNiZn:     "nizn",
	BatteryEneloop:  "eneloop",
	BatteryRAM:      "ram",
	BatteryBatLTO:   "batlto",
}

func (t BatteryType) String() string { return codeName(batteryTypeNames, t) }

func (t BatteryType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *BatteryType) UnmarshalText(b []byte) error {
	v, err := parseName("battery type", batteryTypeNames, string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Lithium 锂电类（LiIon / LiFe / LiIon 4.35V）
func (t BatteryType) Lithium() bool {
	return t == BatteryLiIon || t == BatteryLiFe || t == BatteryLiIon435
}

// ChannelMode 通道工作模式
// 编码2对锂电为 storage，对镍电为 break-in
type ChannelMode uint8

const (
	ModeCharge ChannelMode = iota
	ModeRefresh
	ModeStorage
	ModeDischarge
	ModeCycle

	ModeBreakIn = ModeStorage
)

var channelModeNames = map[ChannelMode]string{
	ModeCharge:    "charge",
	ModeRefresh:   "refresh",
	ModeStorage:   "storage",
	ModeDischarge: "discharge",
	ModeCycle:     "cycle",
}

func (m ChannelMode) String() string { return codeName(channelModeNames, m) }

// Label 按电池类型给出模式名称
func (m ChannelMode) Label(t BatteryType) string {
	if m == ModeBreakIn && !t.Lithium() {
		return "break_in"
	}
	return m.String()
}

func (m ChannelMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *ChannelMode) UnmarshalText(b []byte) error {
	if strings.ToLower(strings.TrimSpace(string(b))) == "break_in" {
		*m = ModeBreakIn
		return nil
	}
	v, err := parseName("channel mode", channelModeNames, string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ChannelStatus 通道状态；0x80 以上为故障码
type ChannelStatus uint8

const (
	StatusStandby   ChannelStatus = 0
	StatusCharge    ChannelStatus = 1
	StatusDischarge ChannelStatus = 2
	StatusPause     ChannelStatus = 3
	StatusDone      ChannelStatus = 4

	StatusInputVoltageLow     ChannelStatus = 128
	StatusInputVoltageHigh    ChannelStatus = 129
	StatusMCP3424Error1       ChannelStatus = 130
	StatusMCP3424Error2       ChannelStatus = 131
	StatusConnectionBreak     ChannelStatus = 132
	StatusCheckVoltage        ChannelStatus = 133
	StatusCapacityProtection  ChannelStatus = 134
	StatusTimeProtection      ChannelStatus = 135
	StatusTempHigh            ChannelStatus = 136
	StatusBatteryTempHigh     ChannelStatus = 137
	StatusBatteryShortCircuit ChannelStatus = 138
	StatusReversePolarity     ChannelStatus = 139
)

var channelStatusNames = map[ChannelStatus]string{
	StatusStandby:             "standby",
	StatusCharge:              "charge",
	StatusDischarge:           "discharge",
	StatusPause:               "pause",
	StatusDone:                "done",
	StatusInputVoltageLow:     "input_voltage_low",
	StatusInputVoltageHigh:    "input_voltage_high",
	StatusMCP3424Error1:       "mcp3424_1_error",
	StatusMCP3424Error2:       "mcp3424_2_error",
	StatusConnectionBreak:     "connection_break",
	StatusCheckVoltage:        "check_voltage",
	StatusCapacityProtection:  "capacity_protection",
	StatusTimeProtection:      "time_protection",
	StatusTempHigh:            "temp_high",
	StatusBatteryTempHigh:     "battery_temp_high",
	StatusBatteryShortCircuit: "battery_short_circuit",
	StatusReversePolarity:     "reverse_polarity",
}

func (s ChannelStatus) String() string { return codeName(channelStatusNames, s) }

func (s ChannelStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ChannelStatus) UnmarshalText(b []byte) error {
	v, err := parseName("channel status", channelStatusNames, string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Fault 是否为故障状态
func (s ChannelStatus) Fault() bool { return s >= StatusInputVoltageLow }

// LedColor 通道指示灯颜色（由 leds 位图推导）
type LedColor uint8

const (
	LedOff LedColor = iota
	LedRed
	LedGreen
)

var ledColorNames = map[LedColor]string{
	LedOff:   "off",
	LedRed:   "red",
	LedGreen: "green",
}

func (c LedColor) String() string { return codeName(ledColorNames, c) }

func (c LedColor) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *LedColor) UnmarshalText(b []byte) error {
	v, err := parseName("led color", ledColorNames, string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
