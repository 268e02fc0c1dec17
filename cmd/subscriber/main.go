// ============================================================================
// cmd/subscriber/main.go - Event Subscriber (Consumer)
// ============================================================================
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/cache"
	"github.com/lucianot/liquidity-pool/internal/config"
	"github.com/lucianot/liquidity-pool/internal/constants"
	"github.com/lucianot/liquidity-pool/internal/models"
)

// main consumes the pool event firehose and persists every event into
// ClickHouse for analytics.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to ClickHouse")
	}
	defer store.Close()

	pubsub := cache.NewPubSubManager(cfg.RedisAddr, logger)
	defer pubsub.Close()

	logger.Info("starting pool event subscriber")

	// Persist the firehose
	go func() {
		err := pubsub.Subscribe(ctx, constants.PubSubChannelEvents, func(ev *models.PoolEvent) {
			logger.WithFields(logrus.Fields{
				"id":   ev.ID,
				"kind": ev.Kind,
				"pair": ev.Pair,
			}).Info("received event")

			if err := store.InsertEvent(ctx, ev); err != nil {
				logger.WithError(err).Error("failed to persist event")
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("subscription ended")
		}
	}()

	// Log swap activity separately for quick eyeballing
	go func() {
		_ = pubsub.PSubscribe(ctx, constants.PubSubChannelKindPrefix+"*", func(ev *models.PoolEvent) {
			logger.WithFields(logrus.Fields{
				"kind":       ev.Kind,
				"amount_in":  ev.AmountIn,
				"amount_out": ev.AmountOut,
			}).Debug("kind channel event")
		})
	}()

	logger.Info("subscriber running, press Ctrl+C to stop")

	<-sigChan
	logger.Info("shutting down subscriber")
	cancel()
}
