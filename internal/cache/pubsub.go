// ============================================================================
// cache/pubsub.go - Redis Pub/Sub Wrapper
// ============================================================================
package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/models"
	"github.com/lucianot/liquidity-pool/internal/storage"
)

type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(addr string, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		logger: logger,
	}
}

// Subscribe to a channel
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler storage.EventHandler) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	p.logger.WithField("channel", channel).Info("subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.PoolEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.WithError(err).Warn("error unmarshaling event")
				continue
			}
			handler(&ev)
		}
	}
}

// Subscribe to pattern (e.g., "pool:events:kind:*")
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler storage.EventHandler) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	p.logger.WithField("pattern", pattern).Info("subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.PoolEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.WithError(err).Warn("error unmarshaling event")
				continue
			}
			handler(&ev)
		}
	}
}

func (p *PubSubManager) Close() error {
	return p.client.Close()
}
