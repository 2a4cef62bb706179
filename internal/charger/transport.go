package charger

import "context"

// Transport 充电器链路抽象（BLE 或模拟器），由上层应用提供
// notify 对每一帧上行通知调用一次，可能在独立的 goroutine 中执行；
// disconnected 在链路意外断开时调用。
type Transport interface {
	Connect(ctx context.Context, notify func([]byte), disconnected func()) error
	Disconnect() error
	Write(ctx context.Context, frame []byte) error
}

// Identity 可选：提供设备名称与地址
type Identity interface {
	Name() string
	Address() string
}
