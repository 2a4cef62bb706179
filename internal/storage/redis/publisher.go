package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taoyao-code/skyrc-ble/internal/charger"
)

// publisher 由 *redis.Client 与 *Client 实现
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// SnapshotMessage 发布到频道的消息体
type SnapshotMessage struct {
	InstanceID  string           `json:"instance_id"`
	PublishedAt time.Time        `json:"published_at"`
	Snapshot    charger.Snapshot `json:"snapshot"`
}

// SnapshotPublisher 将每轮刷新后的快照以 JSON 发布到 Redis 频道（不落库）
type SnapshotPublisher struct {
	rdb        publisher
	channel    string
	instanceID string
	log        *zap.Logger
}

func NewSnapshotPublisher(rdb publisher, channel, instanceID string, log *zap.Logger) *SnapshotPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotPublisher{rdb: rdb, channel: channel, instanceID: instanceID, log: log}
}

// Publish 发布一份快照，返回收到消息的订阅者数
func (p *SnapshotPublisher) Publish(ctx context.Context, s charger.Snapshot) (int64, error) {
	data, err := json.Marshal(SnapshotMessage{
		InstanceID:  p.instanceID,
		PublishedAt: time.Now(),
		Snapshot:    s,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	n, err := p.rdb.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", p.channel, err)
	}
	p.log.Debug("snapshot published", zap.String("channel", p.channel), zap.Int64("receivers", n))
	return n, nil
}
