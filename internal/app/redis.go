package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
	cfgpkg "github.com/taoyao-code/skyrc-ble/internal/config"
	"github.com/taoyao-code/skyrc-ble/internal/health"
	"github.com/taoyao-code/skyrc-ble/internal/metrics"
	"github.com/taoyao-code/skyrc-ble/internal/poller"
	redisstorage "github.com/taoyao-code/skyrc-ble/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用时返回 nil, nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
		zap.String("channel", cfg.Channel))

	return client, nil
}

// NewPublishSink 把快照发布包装为轮询器的消费者，并记录发布指标
func NewPublishSink(pub *redisstorage.SnapshotPublisher, appm *metrics.AppMetrics) poller.Sink {
	return func(ctx context.Context, s charger.Snapshot) error {
		_, err := pub.Publish(ctx, s)
		if appm != nil {
			appm.PublishDone(err)
		}
		return err
	}
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
