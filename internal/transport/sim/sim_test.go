package sim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

func TestEncode_DecodesBack(t *testing.T) {
	p := DefaultProfile()
	for i, want := range p.Channels {
		ch, got, err := mc3000.DecodeChannelData(encodeChannelData(i, want))
		require.NoError(t, err)
		assert.Equal(t, i, ch)
		assert.Equal(t, *want, *got)
	}

	bd, err := mc3000.DecodeBasicData(encodeBasicData(&p.Basic))
	require.NoError(t, err)
	assert.Equal(t, p.Basic, *bd)

	vi, err := mc3000.DecodeVersionInfo(encodeVersionInfo(p.Firmware))
	require.NoError(t, err)
	assert.Equal(t, "1.15", vi.SWVersion)
	assert.Equal(t, "2.2", vi.HWVersion)
}

func TestFrame_VersionChecksumQuirk(t *testing.T) {
	raw := frame(mc3000.CmdGetVersionInfo, encodeVersionInfo(Firmware{Major: 1, Minor: 15, HW: 22}), true)
	fr, err := mc3000.Parse(raw)
	require.NoError(t, err)
	assert.False(t, fr.ChecksumOK)

	raw = frame(mc3000.CmdGetBasicData, encodeBasicData(&mc3000.BasicData{}), true)
	_, err = mc3000.Parse(raw)
	assert.ErrorIs(t, err, mc3000.ErrBadChecksum)
}

func TestParseProfile(t *testing.T) {
	src := `
name: bench
address: "AA:BB:CC:DD:EE:FF"
latency: 5ms
firmware:
  major: 1
  minor: 20
  hw: 23
basic:
  temp_unit: fahrenheit
  input_voltage: 12.5
`
	p, err := ParseProfile([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "bench", p.Name)
	assert.Equal(t, 5*time.Millisecond, p.Latency)
	assert.Equal(t, uint8(20), p.Firmware.Minor)
	assert.Equal(t, mc3000.Fahrenheit, p.Basic.TempUnit)
	assert.InDelta(t, 12.5, p.Basic.InputVoltage, 1e-9)
	// 未覆盖的字段保持默认
	assert.Equal(t, mc3000.DisplayTime1Min, p.Basic.Display)
	require.NotNil(t, p.Channels[1])
	assert.Equal(t, mc3000.StatusCharge, p.Channels[1].Status)

	_, err = ParseProfile([]byte("basic:\n  input_voltage: 70\n"))
	assert.Error(t, err)

	_, err = ParseProfile([]byte("basic:\n  temp_unit: kelvin\n"))
	assert.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: desk\n"), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "desk", p.Name)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadProfile_Sample(t *testing.T) {
	p, err := LoadProfile(filepath.Join("..", "..", "..", "configs", "sim-profile.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, p.Latency)
	assert.Equal(t, mc3000.DisplayAlwaysOn, p.Basic.Display)
	assert.Equal(t, mc3000.BatteryNiMH, p.Channels[0].Type)
	assert.Equal(t, "break_in", mc3000.ModeBreakIn.Label(p.Channels[0].Type))
	assert.Equal(t, mc3000.StatusDischarge, p.Channels[2].Status)
	assert.Equal(t, mc3000.LedOff, p.Channels[3].LED)
}

func newCharger(t *testing.T, opts ...charger.Option) (*charger.Mc3000, *Transport) {
	t.Helper()
	p := DefaultProfile()
	p.Latency = time.Millisecond
	tr := New(p, zaptest.NewLogger(t))
	opts = append([]charger.Option{charger.WithLogger(zaptest.NewLogger(t))}, opts...)
	return charger.New(tr, opts...), tr
}

func TestTransport_RefreshMatchesProfile(t *testing.T) {
	m, tr := newCharger(t)
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx))
	assert.True(t, m.IsConnected())
	assert.Equal(t, "1.15", m.SWVersion())
	assert.Equal(t, "2.2", m.HWVersion())
	assert.Equal(t, tr.Name(), m.Name())

	st := m.State()
	require.NotNil(t, st.BasicData)
	assert.Equal(t, DefaultProfile().Basic, *st.BasicData)
	for i, want := range DefaultProfile().Channels {
		require.NotNil(t, st.Channels[i])
		assert.Equal(t, *want, *st.Channels[i], "channel %d", i)
	}
	assert.Equal(t, 1+1+mc3000.ChannelCount, tr.Writes())
}

func TestTransport_StartStopCharge(t *testing.T) {
	m, tr := newCharger(t)
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))

	require.NoError(t, m.StartCharge(ctx, 3))
	assert.Equal(t, mc3000.StatusCharge, tr.Channel(3).Status)
	require.NoError(t, m.Refresh(ctx))
	assert.True(t, m.State().Channels[3].IsWorking())

	require.NoError(t, m.StopCharge(ctx, 3))
	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, mc3000.StatusStandby, m.State().Channels[3].Status)
	assert.Equal(t, mc3000.LedOff, m.State().Channels[3].LED)
}

func TestTransport_Faults(t *testing.T) {
	tests := []struct {
		name  string
		fault Fault
	}{
		{"不应答", FaultSilent},
		{"校验和错误", FaultCorruptChecksum},
		{"短包", FaultShortPacket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, tr := newCharger(t, charger.WithResponseTimeout(30*time.Millisecond))
			ctx := context.Background()
			require.NoError(t, m.Refresh(ctx))
			before := m.State()

			tr.SetChannel(0, mc3000.ChannelData{Status: mc3000.StatusDone})
			tr.SetFault(tt.fault)
			require.NoError(t, m.Refresh(ctx))

			// 状态保持上一轮
			assert.Equal(t, before, m.State())
			assert.True(t, m.IsConnected())

			tr.SetFault(FaultNone)
			require.NoError(t, m.Refresh(ctx))
			assert.Equal(t, mc3000.StatusDone, m.State().Channels[0].Status)
		})
	}
}

func TestTransport_DropAndReconnect(t *testing.T) {
	m, tr := newCharger(t)
	ctx := context.Background()
	require.NoError(t, m.Refresh(ctx))
	first := m.Snapshot().ConnectionID

	tr.Drop()
	assert.False(t, m.IsConnected())
	assert.ErrorIs(t, m.StartCharge(ctx, 0), charger.ErrNotConnected)

	require.NoError(t, m.Refresh(ctx))
	assert.True(t, m.IsConnected())
	assert.NotEqual(t, first, m.Snapshot().ConnectionID)
}

func TestTransport_ConnectError(t *testing.T) {
	m, tr := newCharger(t)
	tr.SetConnectError(errors.New("adapter off"))

	require.NoError(t, m.Refresh(context.Background()))
	assert.False(t, m.IsConnected())
	assert.Zero(t, tr.Writes())

	tr.SetConnectError(nil)
	ok, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransport_WriteAfterDisconnect(t *testing.T) {
	tr := New(nil, nil)
	err := tr.Write(context.Background(), make([]byte, mc3000.FrameLen))
	assert.ErrorIs(t, err, ErrLinkDown)
}
