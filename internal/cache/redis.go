package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/constants"
	"github.com/lucianot/liquidity-pool/internal/models"
)

// RedisCache keeps a capped list of recent pool events and fans them out
// over Pub/Sub. It implements storage.EventCache and the pool engine's
// event sink.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisCache(addr string, logger *logrus.Logger) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: addr, DB: 0}), logger)
}

func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) AddRecentEvent(ctx context.Context, event *models.PoolEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentEvents, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentEvents, 0, constants.MaxRecentEvents-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache event: %w", err)
	}
	return nil
}

func (r *RedisCache) GetRecentEvents(ctx context.Context, limit int64) ([]*models.PoolEvent, error) {
	if limit <= 0 || limit > constants.MaxRecentEvents {
		limit = constants.MaxRecentEvents
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentEvents, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent events: %w", err)
	}

	events := make([]*models.PoolEvent, 0, len(vals))
	for _, v := range vals {
		var ev models.PoolEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			r.logger.WithError(err).Warn("skipping malformed cached event")
			continue
		}
		events = append(events, &ev)
	}
	return events, nil
}

// PublishEvent fans the event out to the firehose channel plus a
// kind-specific channel so subscribers can filter server-side.
func (r *RedisCache) PublishEvent(ctx context.Context, event *models.PoolEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channels := []string{
		constants.PubSubChannelEvents,
		constants.PubSubChannelKindPrefix + event.Kind,
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// SubscribeEvents streams the firehose channel until ctx is cancelled.
// The returned channel closes when the subscription ends.
func (r *RedisCache) SubscribeEvents(ctx context.Context) (<-chan *models.PoolEvent, error) {
	pubsub := r.client.Subscribe(ctx, constants.PubSubChannelEvents)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe events: %w", err)
	}

	out := make(chan *models.PoolEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.PoolEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					r.logger.WithError(err).Warn("skipping malformed published event")
					continue
				}
				select {
				case out <- &ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
