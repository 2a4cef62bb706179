package charger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
	"go.uber.org/zap"
)

// send 发送一条命令并等待下一帧上行通知。
//
// 协议没有请求ID，应答只按"写入后的下一帧"关联，因此整个 写入+等待 过程
// 由 gate 串行化，同一时刻最多一条未完成命令。
//
// 等待超时不是错误：返回 nil，对应状态本轮不刷新。已知限制：无法区分
// "设备忙"与"设备未应答"，且没有重发。
func (m *Mc3000) send(ctx context.Context, cmd mc3000.Command, args ...byte) error {
	frame, err := mc3000.Build(cmd, args)
	if err != nil {
		return err
	}

	select {
	case m.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.gate }()

	if !m.connected.Load() {
		return ErrNotConnected
	}

	m.clearReceived()
	start := time.Now()
	m.log.Debug("mc3000: sending packet",
		zap.String("cmd", cmd.String()),
		zap.String("packet", hex.EncodeToString(frame)))

	if err := m.transport.Write(ctx, frame); err != nil {
		m.observer.CommandDone(cmd.String(), "error", time.Since(start))
		return fmt.Errorf("write %s: %w", cmd, err)
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case <-m.received:
		m.observer.CommandDone(cmd.String(), "ok", time.Since(start))
		return nil
	case <-timer.C:
		m.log.Debug("mc3000: response timeout",
			zap.String("cmd", cmd.String()),
			zap.Duration("timeout", m.timeout))
		m.observer.CommandDone(cmd.String(), "timeout", time.Since(start))
		return nil
	case <-ctx.Done():
		m.observer.CommandDone(cmd.String(), "error", time.Since(start))
		return ctx.Err()
	}
}

func (m *Mc3000) clearReceived() {
	select {
	case <-m.received:
	default:
	}
}

func (m *Mc3000) raiseReceived() {
	select {
	case m.received <- struct{}{}:
	default:
	}
}

// handleNotification 处理一帧上行通知：解码成功则更新状态；
// 无论成功与否最后都置位应答信号，且置位发生在状态更新之后。
func (m *Mc3000) handleNotification(raw []byte) {
	defer m.raiseReceived()

	m.log.Debug("mc3000: received packet", zap.String("packet", hex.EncodeToString(raw)))

	fr, err := mc3000.Parse(raw)
	if err != nil {
		m.log.Warn("mc3000: drop packet", zap.Error(err), zap.Int("len", len(raw)))
		m.observer.FrameReceived(frameCmd(raw), frameErrorResult(err))
		return
	}
	if !fr.ChecksumOK {
		m.log.Debug("mc3000: accepting version info with bad checksum (firmware quirk)")
	}

	result := "ok"
	switch fr.Cmd {
	case mc3000.CmdGetChannelData:
		ch, data, err := mc3000.DecodeChannelData(fr.Payload)
		if err != nil {
			m.log.Warn("mc3000: decode channel data failed", zap.Int("channel", ch), zap.Error(err))
			result = "decode_error"
			break
		}
		m.mu.Lock()
		m.state.Channels[ch] = data
		m.mu.Unlock()

	case mc3000.CmdGetVersionInfo:
		info, err := mc3000.DecodeVersionInfo(fr.Payload)
		if err != nil {
			m.log.Warn("mc3000: decode version info failed", zap.Error(err))
			result = "decode_error"
			break
		}
		m.mu.Lock()
		m.hwVersion = info.HWVersion
		m.swVersion = info.SWVersion
		m.mu.Unlock()

	case mc3000.CmdGetBasicData:
		bd, err := mc3000.DecodeBasicData(fr.Payload)
		if err != nil {
			m.log.Warn("mc3000: decode basic data failed", zap.Error(err))
			result = "decode_error"
			break
		}
		m.mu.Lock()
		m.state.BasicData = bd
		m.mu.Unlock()

	case mc3000.CmdStartCharge, mc3000.CmdStopCharge:
		// 仅作为应答确认

	default:
		m.log.Info("mc3000: unknown packet type", zap.String("cmd", fr.Cmd.String()))
		result = "unknown"
	}
	m.observer.FrameReceived(fr.Cmd.String(), result)
}

func frameCmd(raw []byte) string {
	if len(raw) < 2 {
		return "none"
	}
	return mc3000.Command(raw[1]).String()
}

func frameErrorResult(err error) string {
	switch {
	case errors.Is(err, mc3000.ErrShortPacket):
		return "short_packet"
	case errors.Is(err, mc3000.ErrInvalidMagic):
		return "invalid_magic"
	case errors.Is(err, mc3000.ErrBadChecksum):
		return "bad_checksum"
	}
	return "error"
}
