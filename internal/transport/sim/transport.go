// Package sim 提供一台内存中的 MC3000 模拟器，实现 charger.Transport，
// 用于无硬件环境下运行服务与集成测试。
package sim

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

var ErrLinkDown = errors.New("sim: link down")

// Fault 故障注入模式
type Fault int

const (
	FaultNone            Fault = iota
	FaultSilent                // 不应答
	FaultCorruptChecksum       // 应答校验和错误
	FaultShortPacket           // 应答不足最小帧长
)

// Transport 模拟器链路
type Transport struct {
	log *zap.Logger

	mu           sync.Mutex
	profile      *Profile
	fault        Fault
	connectErr   error
	notify       func([]byte)
	disconnected func()
	writes       int
}

// New 创建模拟器；p 为 nil 时使用 DefaultProfile
func New(p *Profile, log *zap.Logger) *Transport {
	if p == nil {
		p = DefaultProfile()
	}
	p.fillChannels()
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{profile: p, log: log.Named("sim")}
}

func (t *Transport) Name() string    { return t.profile.Name }
func (t *Transport) Address() string { return t.profile.Address }

// Connect 实现 charger.Transport
func (t *Transport) Connect(ctx context.Context, notify func([]byte), disconnected func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return t.connectErr
	}
	t.notify = notify
	t.disconnected = disconnected
	t.log.Debug("sim: connected", zap.String("address", t.profile.Address))
	return nil
}

func (t *Transport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = nil
	t.disconnected = nil
	return nil
}

// Write 接收一帧下行命令，按 profile.Latency 异步应答
func (t *Transport) Write(ctx context.Context, pkt []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notify == nil {
		return ErrLinkDown
	}
	t.writes++

	if len(pkt) != mc3000.FrameLen || pkt[0] != mc3000.Magic || mc3000.VerifyChecksum(pkt) != nil {
		t.log.Warn("sim: malformed command ignored", zap.String("packet", hex.EncodeToString(pkt)))
		return nil
	}
	resp := t.handle(mc3000.Command(pkt[1]), pkt[2:mc3000.FrameLen-1])
	if resp == nil {
		return nil
	}
	switch t.fault {
	case FaultSilent:
		return nil
	case FaultCorruptChecksum:
		resp[len(resp)-1] ^= 0xFF
	case FaultShortPacket:
		resp = resp[:2]
	}

	notify := t.notify
	time.AfterFunc(t.profile.Latency, func() { notify(resp) })
	return nil
}

// handle 更新模拟状态并生成应答帧，调用方持有 t.mu
func (t *Transport) handle(cmd mc3000.Command, args []byte) []byte {
	p := t.profile
	switch cmd {
	case mc3000.CmdGetVersionInfo:
		return frame(cmd, encodeVersionInfo(p.Firmware), !p.Firmware.GoodChecksum)

	case mc3000.CmdGetBasicData:
		return frame(cmd, encodeBasicData(&p.Basic), false)

	case mc3000.CmdGetChannelData:
		ch := int(args[0])
		if ch >= mc3000.ChannelCount {
			return nil
		}
		return frame(cmd, encodeChannelData(ch, p.Channels[ch]), false)

	case mc3000.CmdStartCharge, mc3000.CmdStopCharge:
		// 下行通道号从1起
		ch := int(args[0]) - 1
		if ch < 0 || ch >= mc3000.ChannelCount {
			return nil
		}
		c := *p.Channels[ch]
		if cmd == mc3000.CmdStartCharge {
			c.Status = mc3000.StatusCharge
			c.LED = mc3000.LedRed
			return t.replace(ch, &c, frame(cmd, []byte{args[0]}, false))
		}
		c.Status = mc3000.StatusStandby
		c.Current = 0
		c.LED = mc3000.LedOff
		return t.replace(ch, &c, frame(cmd, []byte{args[0], 0xF0, 0xFF, 0xFF}, false))
	}

	t.log.Debug("sim: unsupported command", zap.Stringer("cmd", cmd))
	return nil
}

func (t *Transport) replace(ch int, c *mc3000.ChannelData, resp []byte) []byte {
	t.profile.Channels[ch] = c
	return resp
}

// SetFault 设置后续应答的故障模式
func (t *Transport) SetFault(f Fault) {
	t.mu.Lock()
	t.fault = f
	t.mu.Unlock()
}

// SetConnectError 使后续 Connect 失败；nil 恢复
func (t *Transport) SetConnectError(err error) {
	t.mu.Lock()
	t.connectErr = err
	t.mu.Unlock()
}

// SetChannel 直接改写通道状态
func (t *Transport) SetChannel(ch int, c mc3000.ChannelData) {
	t.mu.Lock()
	t.profile.Channels[ch] = &c
	t.mu.Unlock()
}

// Channel 返回模拟器侧的通道状态
func (t *Transport) Channel(ch int) mc3000.ChannelData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.profile.Channels[ch]
}

// Drop 模拟链路意外断开
func (t *Transport) Drop() {
	t.mu.Lock()
	cb := t.disconnected
	t.notify = nil
	t.disconnected = nil
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Writes 已接收的下行帧数
func (t *Transport) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}
