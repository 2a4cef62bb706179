package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/skyrc-ble/internal/api"
	"github.com/taoyao-code/skyrc-ble/internal/api/middleware"
	"github.com/taoyao-code/skyrc-ble/internal/app"
	"github.com/taoyao-code/skyrc-ble/internal/charger"
	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	"github.com/taoyao-code/skyrc-ble/internal/health"
	"github.com/taoyao-code/skyrc-ble/internal/metrics"
	"github.com/taoyao-code/skyrc-ble/internal/poller"
	redisstorage "github.com/taoyao-code/skyrc-ble/internal/storage/redis"
)

const shutdownTimeout = 10 * time.Second

// Run 统一启动流程，阻塞直到收到 SIGINT/SIGTERM
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, cfg, log)
}

func run(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger) error {
	instanceID := app.GenerateServerID(cfg.App.Name)
	log.Info("starting charger gateway",
		zap.String("instance_id", instanceID),
		zap.String("transport", cfg.Device.Transport))

	// ========== 阶段1: 基础组件 ==========
	reg, appm := app.NewMetrics()
	ready := health.New()

	// ========== 阶段2: 设备链路 ==========
	transport, err := app.NewTransport(cfg.Device, log)
	if err != nil {
		log.Error("transport initialization failed", zap.Error(err))
		return err
	}
	dev := app.NewCharger(cfg.Device, transport, appm, log)
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), cfg.Device.ResponseTimeout)
		defer cancel()
		if err := dev.Disconnect(dctx); err != nil {
			log.Warn("charger disconnect failed", zap.Error(err))
		}
	}()

	// ========== 阶段3: Redis（可选，仅用于发布快照）==========
	redisClient, err := app.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// ========== 阶段4: 健康检查与 HTTP ==========
	var maxAge time.Duration
	if cfg.Poll.Enable {
		maxAge = cfg.Poll.Interval
	}
	healthAgg := app.NewHealthAggregator(dev, maxAge)
	app.AddRedisChecker(healthAgg, redisClient)

	httpSrv := app.NewHTTPServer(cfg, metrics.Handler(reg), ready.Ready, log)
	httpSrv.Register(func(r *gin.Engine) {
		api.RegisterChargerRoutes(r, dev,
			middleware.AuthConfig{Enabled: cfg.API.AuthEnabled, APIKeys: cfg.API.APIKeys},
			middleware.RateLimitConfig{
				Enabled: cfg.API.RateLimit.Enabled,
				RPS:     cfg.API.RateLimit.RPS,
				Burst:   cfg.API.RateLimit.Burst,
			},
			log)
		app.RegisterHealthRoutes(r, healthAgg)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Start()
	}()
	ready.SetHTTPReady(true)
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// ========== 阶段5: 周期刷新 ==========
	pctx, pcancel := context.WithCancel(ctx)
	defer pcancel()
	if cfg.Poll.Enable {
		p := poller.New(dev, cfg.Poll.Interval, log.Named("poller"))
		p.SetRecorder(appm)
		p.OnRefreshed = func(charger.Snapshot) { ready.SetDeviceReady(true) }
		p.AddSink(func(_ context.Context, s charger.Snapshot) error {
			appm.ObserveSnapshot(s)
			return nil
		})
		if redisClient != nil {
			pub := redisstorage.NewSnapshotPublisher(redisClient, cfg.Redis.Channel, instanceID, log.Named("redis"))
			p.AddSink(app.NewPublishSink(pub, appm))
		}
		go p.Run(pctx)
	} else {
		// 不轮询时设备按需连接，就绪只取决于 HTTP
		ready.SetDeviceReady(true)
		log.Info("poller disabled, device refreshed on demand")
	}

	// ========== 阶段6: 等待关闭 ==========
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal, gracefully shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", zap.Error(err))
			return err
		}
	}
	pcancel()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(sctx)
	log.Info("http server stopped")
	return nil
}

// RunOnce 连接、刷新一轮并把快照以 YAML 写到 w
func RunOnce(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger, w io.Writer) error {
	transport, err := app.NewTransport(cfg.Device, log)
	if err != nil {
		return err
	}
	dev := app.NewCharger(cfg.Device, transport, nil, log)
	defer func() { _ = dev.Disconnect(context.Background()) }()

	if _, err := dev.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := dev.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	snap := dev.Snapshot()
	if snap.UpdatedAt.IsZero() {
		return fmt.Errorf("refresh: %w", charger.ErrNotConnected)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return err
	}
	return enc.Close()
}
