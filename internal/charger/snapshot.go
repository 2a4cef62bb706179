package charger

import (
	"time"

	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

// Snapshot 设备对外视图（HTTP / Redis / CLI 输出）
type Snapshot struct {
	Manufacturer string       `json:"manufacturer" yaml:"manufacturer"`
	Model        string       `json:"model" yaml:"model"`
	Name         string       `json:"name" yaml:"name"`
	Address      string       `json:"address" yaml:"address"`
	Connected    bool         `json:"connected" yaml:"connected"`
	ConnectionID string       `json:"connection_id,omitempty" yaml:"connection_id,omitempty"`
	HWVersion    string       `json:"hw_version" yaml:"hw_version"`
	SWVersion    string       `json:"sw_version" yaml:"sw_version"`
	State        mc3000.State `json:"state" yaml:"state"`
	UpdatedAt    time.Time    `json:"updated_at" yaml:"updated_at"`
}

// Snapshot 生成当前快照
func (m *Mc3000) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Manufacturer: Manufacturer,
		Model:        Model,
		Name:         m.Name(),
		Address:      m.Address(),
		Connected:    m.connected.Load(),
		ConnectionID: m.connID,
		HWVersion:    m.hwVersion,
		SWVersion:    m.swVersion,
		State:        m.state,
		UpdatedAt:    m.updatedAt,
	}
}

// Channel 返回单通道遥测；尚未读取时 ok 为 false
func (s Snapshot) Channel(index int) (*mc3000.ChannelData, bool) {
	if index < 0 || index >= mc3000.ChannelCount {
		return nil, false
	}
	c := s.State.Channels[index]
	return c, c != nil
}
