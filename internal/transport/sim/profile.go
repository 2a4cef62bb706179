package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

// Firmware 模拟设备版本号
type Firmware struct {
	Major uint8 `yaml:"major"`
	Minor uint8 `yaml:"minor"`
	HW    uint8 `yaml:"hw"` // 22 => "2.2"
	// GoodChecksum 为 false 时版本应答沿用真机的错误校验和
	GoodChecksum bool `yaml:"good_checksum"`
}

// Profile 模拟充电器配置
type Profile struct {
	Name     string                                   `yaml:"name"`
	Address  string                                   `yaml:"address"`
	Latency  time.Duration                            `yaml:"latency"`
	Firmware Firmware                                 `yaml:"firmware"`
	Basic    mc3000.BasicData                         `yaml:"basic"`
	Channels [mc3000.ChannelCount]*mc3000.ChannelData `yaml:"channels"`
}

// DefaultProfile 与一台实测设备的应答一致
func DefaultProfile() *Profile {
	ch := func(status mc3000.ChannelStatus, t uint16, v, a float64, capa, r uint16, led mc3000.LedColor) *mc3000.ChannelData {
		return &mc3000.ChannelData{
			Type: mc3000.BatteryLiIon, Mode: mc3000.ModeCharge, Status: status,
			Time: t, Voltage: v, Current: a, Capacity: capa, Temperature: 24, Resistance: r, LED: led,
		}
	}
	return &Profile{
		Name:     "Charger",
		Address:  "SIM:MC:30:00:00:01",
		Latency:  20 * time.Millisecond,
		Firmware: Firmware{Major: 1, Minor: 15, HW: 22},
		Basic: mc3000.BasicData{
			TempUnit:     mc3000.Celsius,
			Display:      mc3000.DisplayTime1Min,
			CoolingFan:   mc3000.FanAuto,
			InputVoltage: 11.0,
		},
		Channels: [mc3000.ChannelCount]*mc3000.ChannelData{
			ch(mc3000.StatusStandby, 5107, 3.642, 0, 1207, 27, mc3000.LedRed),
			ch(mc3000.StatusCharge, 54, 3.694, 1.001, 13, 25, mc3000.LedRed),
			ch(mc3000.StatusDone, 5142, 4.154, 0, 1220, 30, mc3000.LedGreen),
			ch(mc3000.StatusStandby, 5452, 0, 0, 1211, 136, mc3000.LedOff),
		},
	}
}

// LoadProfile 从 YAML 文件加载；未给出的字段取默认值
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sim profile: %w", err)
	}
	return ParseProfile(b)
}

func ParseProfile(b []byte) (*Profile, error) {
	p := DefaultProfile()
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("unmarshal sim profile: %w", err)
	}
	if p.InputVoltageOutOfRange() {
		return nil, fmt.Errorf("sim profile: input_voltage %.3f out of range", p.Basic.InputVoltage)
	}
	p.fillChannels()
	return p, nil
}

func (p *Profile) fillChannels() {
	for i, c := range p.Channels {
		if c == nil {
			p.Channels[i] = &mc3000.ChannelData{}
		}
	}
}

// InputVoltageOutOfRange 输入电压需能编码为 uint16 毫伏
func (p *Profile) InputVoltageOutOfRange() bool {
	return p.Basic.InputVoltage < 0 || p.Basic.InputVoltage*1000 > 0xFFFF
}
