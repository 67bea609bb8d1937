package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/value"
)

// RedisDeduper suppresses duplicate dispatches across processes. The key
// covers (webhook, upc, source) plus the current time bucket; within one
// bucket the first SETNX wins and every later dispatch of the same
// opportunity is a duplicate.
type RedisDeduper struct {
	client *redis.Client
	bucket time.Duration
}

func NewRedisDeduper(client *redis.Client, bucket time.Duration) *RedisDeduper {
	return &RedisDeduper{
		client: client,
		bucket: bucket,
	}
}

func (d *RedisDeduper) Seen(ctx context.Context, webhookID value.WebhookID, item entity.ExportItem) (bool, error) {
	key := d.key(webhookID, item)

	set, err := d.client.SetNX(ctx, key, 1, d.bucket).Result()
	if err != nil {
		return false, fmt.Errorf("redis.SetNX: %w", err)
	}

	return !set, nil
}

func (d *RedisDeduper) key(webhookID value.WebhookID, item entity.ExportItem) string {
	bucket := time.Now().Truncate(d.bucket).Unix()

	return fmt.Sprintf("dedupe:%s:%s:%s:%d", webhookID, item.UPC, item.Source, bucket)
}
