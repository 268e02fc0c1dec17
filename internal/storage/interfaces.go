package storage

import (
	"context"
	"io"

	"github.com/lucianot/liquidity-pool/internal/models"
)

// EventCache defines the interface for caching pool events
type EventCache interface {
	// AddRecentEvent adds an event to the recent events list
	AddRecentEvent(ctx context.Context, event *models.PoolEvent) error

	// GetRecentEvents retrieves the most recent events
	GetRecentEvents(ctx context.Context, limit int64) ([]*models.PoolEvent, error)

	// PublishEvent publishes a pool event to the Pub/Sub channels
	PublishEvent(ctx context.Context, event *models.PoolEvent) error

	// SubscribeEvents subscribes to real-time pool events
	SubscribeEvents(ctx context.Context) (<-chan *models.PoolEvent, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

// EventStore defines the interface for persistent event storage
type EventStore interface {
	// InsertEvent inserts a pool event into the store
	InsertEvent(ctx context.Context, event *models.PoolEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// EventHandler is a function that processes pool events
type EventHandler func(*models.PoolEvent)
