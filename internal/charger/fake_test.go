package charger

import (
	"bytes"
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/taoyao-code/skyrc-ble/internal/protocol/mc3000"
)

// 设备实测应答帧
const (
	fxVersion  = "0f57003130303038330100000000010f1600adfc"
	fxBasic    = "0f6100000200002af80000000000000000000094"
	fxChannel0 = "0f55000000000013f30e3a000004b718001b07a7"
	fxChannel1 = "0f55010000000100360e6e03e9000d1800190749"
	fxChannel2 = "0f5502000000041416103a000004c418001e704c"
	fxChannel3 = "0f550300000000154c0000000004bb1800887097"
	fxStart1   = "0f05010000000000000000000000000000000015"
	fxStop1    = "0ffe01f0ffff00000000000000000000000000fc"
)

func unhex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// fixtureResponse 按命令返回实测应答；未知请求返回单字节垃圾帧
func fixtureResponse(frame []byte) []byte {
	cmd, arg := mc3000.Command(frame[1]), frame[2]
	switch {
	case cmd == mc3000.CmdGetVersionInfo:
		return unhex(fxVersion)
	case cmd == mc3000.CmdGetBasicData:
		return unhex(fxBasic)
	case cmd == mc3000.CmdGetChannelData && arg == 0:
		return unhex(fxChannel0)
	case cmd == mc3000.CmdGetChannelData && arg == 1:
		return unhex(fxChannel1)
	case cmd == mc3000.CmdGetChannelData && arg == 2:
		return unhex(fxChannel2)
	case cmd == mc3000.CmdGetChannelData && arg == 3:
		return unhex(fxChannel3)
	case cmd == mc3000.CmdStartCharge && arg == 1:
		return unhex(fxStart1)
	case cmd == mc3000.CmdStopCharge && arg == 1:
		return unhex(fxStop1)
	}
	return []byte{0}
}

type fakeTransport struct {
	mu           sync.Mutex
	notify       func([]byte)
	disconnected func()
	writes       [][]byte
	events       []string
	connects     int

	// respond 为 nil 时不应答
	respond     func(frame []byte) []byte
	delay       time.Duration
	writeErr    func(f *fakeTransport, frame []byte) error
	connectErr  error
	connectHold chan struct{}

	// dropOnConnect 在 Connect 返回前触发断开回调
	dropOnConnect bool
}

func newFake() *fakeTransport {
	return &fakeTransport{respond: fixtureResponse}
}

func (f *fakeTransport) Name() string    { return "Charger" }
func (f *fakeTransport) Address() string { return "00:01:02:03:04:05" }

func (f *fakeTransport) Connect(ctx context.Context, notify func([]byte), disconnected func()) error {
	if f.connectHold != nil {
		<-f.connectHold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connects++
	f.notify = notify
	f.disconnected = disconnected
	if f.dropOnConnect {
		f.notify = nil
		disconnected()
	}
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notify = nil
	return nil
}

func (f *fakeTransport) Write(ctx context.Context, frame []byte) error {
	f.mu.Lock()
	f.writes = append(f.writes, bytes.Clone(frame))
	f.events = append(f.events, "write:"+mc3000.Command(frame[1]).String())
	writeErr, respond, notify, delay := f.writeErr, f.respond, f.notify, f.delay
	f.mu.Unlock()

	if writeErr != nil {
		if err := writeErr(f, frame); err != nil {
			return err
		}
	}
	if respond == nil || notify == nil {
		return nil
	}
	resp := respond(frame)
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		f.mu.Lock()
		f.events = append(f.events, "notify")
		f.mu.Unlock()
		notify(resp)
	}()
	return nil
}

// drop 模拟链路意外断开
func (f *fakeTransport) drop() {
	f.mu.Lock()
	cb := f.disconnected
	f.notify = nil
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeTransport) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type recordingObserver struct {
	mu       sync.Mutex
	commands []string
	frames   []string
}

func (o *recordingObserver) CommandDone(cmd, result string, _ time.Duration) {
	o.mu.Lock()
	o.commands = append(o.commands, cmd+":"+result)
	o.mu.Unlock()
}

func (o *recordingObserver) FrameReceived(cmd, result string) {
	o.mu.Lock()
	o.frames = append(o.frames, cmd+":"+result)
	o.mu.Unlock()
}
