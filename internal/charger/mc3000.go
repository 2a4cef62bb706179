package charger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
	"go.uber.org/zap"
)

const (
	Manufacturer = "SkyRC"
	Model        = "MC3000"
)

// Mc3000 SkyRC MC3000 充电器驱动
// 对外方法可并发调用；命令在内部串行执行。
type Mc3000 struct {
	transport Transport
	log       *zap.Logger
	observer  Observer
	timeout   time.Duration

	gate     chan struct{} // 发送+等待 全程互斥
	received chan struct{} // 应答信号，容量1

	connected  atomic.Bool
	connecting atomic.Bool

	mu        sync.RWMutex
	state     mc3000.State
	hwVersion string
	swVersion string
	connID    string
	updatedAt time.Time
	gen       uint64 // 连接代数，每次 Connect 递增
	lostGen   uint64 // 最近一次断开所属的代数
}

// New 创建驱动实例
func New(t Transport, opts ...Option) *Mc3000 {
	if t == nil {
		panic("charger: transport cannot be nil")
	}
	m := &Mc3000{
		transport: t,
		log:       zap.NewNop(),
		observer:  NopObserver(),
		timeout:   DefaultResponseTimeout,
		gate:      make(chan struct{}, 1),
		received:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("device", m.Name()))
	return m
}

// Name 设备名称，缺省时回退为地址
func (m *Mc3000) Name() string {
	if id, ok := m.transport.(Identity); ok {
		if n := id.Name(); n != "" {
			return n
		}
		return id.Address()
	}
	return ""
}

// Address 设备地址
func (m *Mc3000) Address() string {
	if id, ok := m.transport.(Identity); ok {
		return id.Address()
	}
	return ""
}

func (m *Mc3000) IsConnected() bool { return m.connected.Load() }

func (m *Mc3000) HWVersion() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hwVersion
}

func (m *Mc3000) SWVersion() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.swVersion
}

// State 返回状态副本；其中的记录只会被整体替换，可安全共享
func (m *Mc3000) State() mc3000.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connect 建立链路并读取版本信息。
// 已连接或另一连接过程进行中时直接返回当前连接状态。
func (m *Mc3000) Connect(ctx context.Context) (bool, error) {
	if m.connected.Load() {
		return true, nil
	}
	if !m.connecting.CompareAndSwap(false, true) {
		return m.connected.Load(), nil
	}
	defer m.connecting.Store(false)

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.log.Debug("mc3000: connecting", zap.String("address", m.Address()))
	disconnected := func() { m.handleDisconnect(gen) }
	if err := m.transport.Connect(ctx, m.handleNotification, disconnected); err != nil {
		m.log.Error("mc3000: failed to connect", zap.String("address", m.Address()), zap.Error(err))
		return false, fmt.Errorf("connect: %w", err)
	}

	// 断开回调可能在 transport.Connect 返回前就已触发
	id := uuid.NewString()
	m.mu.Lock()
	if m.lostGen == gen {
		m.mu.Unlock()
		m.log.Warn("mc3000: link lost while connecting", zap.String("address", m.Address()))
		return false, fmt.Errorf("connect: %w", ErrNotConnected)
	}
	m.connID = id
	m.connected.Store(true)
	m.mu.Unlock()
	m.log.Debug("mc3000: connected", zap.String("conn_id", id))

	if err := m.send(ctx, mc3000.CmdGetVersionInfo); err != nil {
		if m.connected.Load() {
			return true, fmt.Errorf("read version info: %w", err)
		}
		m.log.Warn("mc3000: link lost while reading version info", zap.Error(err))
	}
	return m.connected.Load(), nil
}

// handleDisconnect 只处理当前代连接的断开；旧连接的迟到回调被忽略
func (m *Mc3000) handleDisconnect(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.lostGen = gen
	m.connected.Store(false)
	m.log.Warn("mc3000: disconnected", zap.String("address", m.Address()))
}

// Disconnect 主动断开链路；等待进行中的命令结束
func (m *Mc3000) Disconnect(ctx context.Context) error {
	if !m.connected.Load() {
		return nil
	}
	select {
	case m.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.gate }()

	m.log.Debug("mc3000: disconnecting", zap.String("address", m.Address()))
	err := m.transport.Disconnect()
	m.connected.Store(false)
	return err
}

// Refresh 读取基础设置与全部通道遥测。
// 未连接时先尝试连接；链路已断开导致的传输错误被吞掉，调用方看到的是
// 上一轮的一致快照；仍处于连接状态时的错误向上返回。
func (m *Mc3000) Refresh(ctx context.Context) error {
	if !m.connected.Load() {
		if ok, err := m.Connect(ctx); err != nil {
			if ok || ctx.Err() != nil {
				return err
			}
			m.log.Warn("mc3000: refresh skipped", zap.Error(err))
			return nil
		}
	}

	if err := m.refresh(ctx); err != nil {
		if ctx.Err() != nil || m.connected.Load() {
			return err
		}
		m.log.Debug("mc3000: refresh aborted by disconnect", zap.Error(err))
		return nil
	}

	m.mu.Lock()
	m.updatedAt = time.Now()
	m.mu.Unlock()
	return nil
}

func (m *Mc3000) refresh(ctx context.Context) error {
	if err := m.send(ctx, mc3000.CmdGetBasicData); err != nil {
		return err
	}
	for ch := 0; ch < mc3000.ChannelCount; ch++ {
		if err := m.send(ctx, mc3000.CmdGetChannelData, byte(ch)); err != nil {
			return err
		}
	}
	return nil
}

// StartCharge 启动指定通道（0起）充电
func (m *Mc3000) StartCharge(ctx context.Context, channel int) error {
	if err := validChannel(channel); err != nil {
		return err
	}
	return m.send(ctx, mc3000.CmdStartCharge, byte(channel+1))
}

// StopCharge 停止指定通道（0起）
func (m *Mc3000) StopCharge(ctx context.Context, channel int) error {
	if err := validChannel(channel); err != nil {
		return err
	}
	return m.send(ctx, mc3000.CmdStopCharge, byte(channel+1))
}

func validChannel(channel int) error {
	if channel < 0 || channel >= mc3000.ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return nil
}

// IsInvalidArgument 判断是否为参数错误
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
