package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	"github.com/taoyao-code/skyrc-ble/internal/transport/ble"
	"github.com/taoyao-code/skyrc-ble/internal/transport/sim"
)

// NewTransport 按 device.transport 创建链路
func NewTransport(cfg cfgpkg.DeviceConfig, logger *zap.Logger) (charger.Transport, error) {
	switch cfg.Transport {
	case cfgpkg.TransportSim:
		profile := sim.DefaultProfile()
		if cfg.Sim.Profile != "" {
			p, err := sim.LoadProfile(cfg.Sim.Profile)
			if err != nil {
				return nil, err
			}
			profile = p
		}
		logger.Info("using simulated charger",
			zap.String("profile", cfg.Sim.Profile),
			zap.String("address", profile.Address))
		return sim.New(profile, logger.Named("sim")), nil

	case cfgpkg.TransportBLE:
		t, err := ble.New(ble.Config{
			Address:            cfg.BLE.Address,
			Names:              cfg.BLE.Names,
			ServiceUUID:        cfg.BLE.ServiceUUID,
			CharacteristicUUID: cfg.BLE.CharacteristicUUID,
			ScanTimeout:        cfg.BLE.ScanTimeout,
			MaxUnanswered:      cfg.BLE.MaxUnanswered,
		}, nil, logger.Named("ble"))
		if err != nil {
			return nil, err
		}
		logger.Info("using ble charger",
			zap.String("address", cfg.BLE.Address),
			zap.Strings("names", cfg.BLE.Names))
		return t, nil
	}
	return nil, fmt.Errorf("unknown device transport %q", cfg.Transport)
}

// NewCharger 创建充电器客户端；observer 可为 nil
func NewCharger(cfg cfgpkg.DeviceConfig, t charger.Transport, observer charger.Observer, logger *zap.Logger) *charger.Mc3000 {
	opts := []charger.Option{
		charger.WithLogger(logger.Named("charger")),
		charger.WithResponseTimeout(cfg.ResponseTimeout),
	}
	if observer != nil {
		opts = append(opts, charger.WithObserver(observer))
	}
	return charger.New(t, opts...)
}
