// Package ble 基于 tinygo.org/x/bluetooth 的 MC3000 链路实现。
//
// 断线检测：bluetooth v0.10.0 在 Linux 上断开时不会回调 connect handler，
// 且 WriteWithoutResponse 对已离线的外设未必报错。因此链路在以下任一情况
// 视为断开并触发 disconnected 回调：写入失败；或自上次收到通知以来已有
// MaxUnanswered 次写入没有任何应答（下一次写入直接返回 ErrLinkDown）。
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

const (
	DefaultServiceUUID        = "0000ffe0-0000-1000-8000-00805f9b34fb"
	DefaultCharacteristicUUID = "0000ffe1-0000-1000-8000-00805f9b34fb"
	DefaultDeviceName         = "Charger"
	DefaultScanTimeout        = 10 * time.Second
	DefaultMaxUnanswered      = 3
)

var (
	ErrDeviceNotFound = errors.New("ble: device not found")
	ErrNoService      = errors.New("ble: service not found")
	ErrNoChar         = errors.New("ble: characteristic not found")
	ErrLinkDown       = errors.New("ble: link down")
	errSilent         = errors.New("ble: peripheral stopped answering")
)

// Config 设备发现与 GATT 参数
type Config struct {
	// Address 非空时只连接该地址，忽略名称匹配
	Address            string
	Names              []string
	ServiceUUID        string
	CharacteristicUUID string
	ScanTimeout        time.Duration
	// MaxUnanswered 连续无应答写入上限；<=0 取默认值
	MaxUnanswered      int
}

func (c Config) withDefaults() Config {
	if len(c.Names) == 0 {
		c.Names = []string{DefaultDeviceName}
	}
	if c.ServiceUUID == "" {
		c.ServiceUUID = DefaultServiceUUID
	}
	if c.CharacteristicUUID == "" {
		c.CharacteristicUUID = DefaultCharacteristicUUID
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = DefaultScanTimeout
	}
	if c.MaxUnanswered <= 0 {
		c.MaxUnanswered = DefaultMaxUnanswered
	}
	return c
}

// matches 判断扫描结果是否为目标设备
func (c Config) matches(name, address string) bool {
	if c.Address != "" {
		return strings.EqualFold(c.Address, address)
	}
	for _, n := range c.Names {
		if n != "" && name == n {
			return true
		}
	}
	return false
}

// Transport 单设备 BLE 链路
type Transport struct {
	cfg     Config
	svcUUID bluetooth.UUID
	chrUUID bluetooth.UUID
	adapter *bluetooth.Adapter
	log     *zap.Logger

	enableOnce sync.Once
	enableErr  error

	mu           sync.Mutex
	name         string
	address      string
	device       bluetooth.Device
	char         bluetooth.DeviceCharacteristic
	up           bool
	disconnected func()
	quiet        silence
}

// silence 统计自上次收到通知以来的写入次数
type silence struct {
	limit int
	n     int
}

func (s *silence) heard() { s.n = 0 }

func (s *silence) sent() { s.n++ }

// exceeded 已达上限时为 true
func (s *silence) exceeded() bool { return s.limit > 0 && s.n >= s.limit }

// New 创建链路；adapter 为 nil 时使用系统默认适配器
func New(cfg Config, adapter *bluetooth.Adapter, log *zap.Logger) (*Transport, error) {
	cfg = cfg.withDefaults()
	svc, err := bluetooth.ParseUUID(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("parse service uuid: %w", err)
	}
	chr, err := bluetooth.ParseUUID(cfg.CharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("parse characteristic uuid: %w", err)
	}
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{
		cfg:     cfg,
		svcUUID: svc,
		chrUUID: chr,
		adapter: adapter,
		log:     log.Named("ble"),
		name:    cfg.Names[0],
		address: cfg.Address,
		quiet:   silence{limit: cfg.MaxUnanswered},
	}, nil
}

func (t *Transport) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

func (t *Transport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.address
}

// Connect 扫描、连接并订阅通知特征
func (t *Transport) Connect(ctx context.Context, notify func([]byte), disconnected func()) error {
	t.enableOnce.Do(func() { t.enableErr = t.adapter.Enable() })
	if t.enableErr != nil {
		return fmt.Errorf("enable adapter: %w", t.enableErr)
	}

	result, err := t.scan(ctx)
	if err != nil {
		return err
	}

	dev, err := t.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("connect %s: %w", result.Address.String(), err)
	}
	chr, err := t.discover(dev)
	if err != nil {
		_ = dev.Disconnect()
		return err
	}
	err = chr.EnableNotifications(func(buf []byte) {
		// 底层缓冲会被复用
		b := make([]byte, len(buf))
		copy(b, buf)
		t.mu.Lock()
		t.quiet.heard()
		t.mu.Unlock()
		notify(b)
	})
	if err != nil {
		_ = dev.Disconnect()
		return fmt.Errorf("enable notifications: %w", err)
	}

	t.mu.Lock()
	t.device = dev
	t.char = chr
	t.up = true
	t.disconnected = disconnected
	t.quiet.heard()
	if n := result.LocalName(); n != "" {
		t.name = n
	}
	t.address = result.Address.String()
	t.mu.Unlock()

	t.log.Info("ble: connected", zap.String("name", t.Name()), zap.String("address", t.Address()))
	return nil
}

func (t *Transport) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.ScanTimeout)
	defer cancel()

	var (
		found  bluetooth.ScanResult
		ok     bool
		doneCh = make(chan struct{})
	)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.adapter.StopScan()
		case <-doneCh:
		}
	}()

	t.log.Debug("ble: scanning", zap.Strings("names", t.cfg.Names), zap.String("address", t.cfg.Address))
	err := t.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
		if ok || !t.cfg.matches(r.LocalName(), r.Address.String()) {
			return
		}
		found, ok = r, true
		_ = a.StopScan()
	})
	close(doneCh)
	if err != nil {
		return found, fmt.Errorf("scan: %w", err)
	}
	if !ok {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return found, ctx.Err()
		}
		return found, ErrDeviceNotFound
	}
	return found, nil
}

func (t *Transport) discover(dev bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	var chr bluetooth.DeviceCharacteristic
	svcs, err := dev.DiscoverServices([]bluetooth.UUID{t.svcUUID})
	if err != nil {
		return chr, fmt.Errorf("discover services: %w", err)
	}
	if len(svcs) == 0 {
		return chr, ErrNoService
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{t.chrUUID})
	if err != nil {
		return chr, fmt.Errorf("discover characteristics: %w", err)
	}
	for _, c := range chars {
		if c.UUID() == t.chrUUID {
			return c, nil
		}
	}
	return chr, ErrNoChar
}

// Disconnect 主动断开，不触发 disconnected 回调
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.up {
		return nil
	}
	t.up = false
	t.disconnected = nil
	return t.device.Disconnect()
}

// Write 无应答写入；写失败或外设长期无应答时视为链路断开并触发 disconnected 回调
func (t *Transport) Write(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	if !t.up {
		t.mu.Unlock()
		return ErrLinkDown
	}
	if t.quiet.exceeded() {
		n := t.quiet.n
		t.mu.Unlock()
		t.lost(fmt.Errorf("%w: %d writes without notification", errSilent, n))
		return ErrLinkDown
	}
	t.quiet.sent()
	chr := t.char
	t.mu.Unlock()

	if _, err := chr.WriteWithoutResponse(frame); err != nil {
		t.lost(err)
		return err
	}
	return nil
}

func (t *Transport) lost(cause error) {
	t.mu.Lock()
	cb := t.disconnected
	wasUp := t.up
	t.up = false
	t.disconnected = nil
	dev := t.device
	t.mu.Unlock()
	if !wasUp {
		return
	}
	t.log.Warn("ble: link lost", zap.String("address", t.Address()), zap.Error(cause))
	_ = dev.Disconnect()
	if cb != nil {
		cb()
	}
}
