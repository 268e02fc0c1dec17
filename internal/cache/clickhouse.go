package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/lucianot/liquidity-pool/internal/constants"
	"github.com/lucianot/liquidity-pool/internal/models"
)

// ClickHouseStore persists pool events for analytics. Amounts are stored
// as strings so the exact integer values survive; analytical queries cast
// them as needed.
type ClickHouseStore struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertEvent(ctx context.Context, event *models.PoolEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, timestamp, kind, pair, account, token_in, token_out,
			amount_in, amount_out, lp_delta, price, k
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.EventTable)

	err := c.conn.Exec(ctx, query,
		event.ID,
		event.Timestamp,
		event.Kind,
		event.Pair,
		event.Account,
		event.TokenIn,
		event.TokenOut,
		event.AmountIn,
		event.AmountOut,
		event.LPDelta,
		event.Price,
		event.K,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
