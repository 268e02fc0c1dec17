package oracle

import (
	"context"
	"errors"
	"math/big"
	"sync"
)

var (
	// ErrUnavailable indicates the feed could not be read at all.
	ErrUnavailable = errors.New("oracle: price feed unavailable")
	// ErrNonPositivePrice indicates the feed answered with a price <= 0.
	ErrNonPositivePrice = errors.New("oracle: non-positive price")
)

// DefaultDecimals is the fixed exponent of the observed feed configuration
// (secondary units per primary unit, scaled by 1e8).
const DefaultDecimals uint8 = 8

// PriceFeed is a read-only latest-price source. Every call must hit the
// live feed; the engine never caches prices across calls.
type PriceFeed interface {
	// LatestAnswer returns the current price scaled by 10^Decimals().
	LatestAnswer(ctx context.Context) (*big.Int, error)
	Decimals() uint8
}

// StaticFeed is a fixed-answer feed for tests and local runs, the
// in-process analog of a mock aggregator deployment.
type StaticFeed struct {
	mu       sync.RWMutex
	answer   *big.Int
	decimals uint8
}

func NewStaticFeed(answer *big.Int) *StaticFeed {
	return &StaticFeed{answer: new(big.Int).Set(answer), decimals: DefaultDecimals}
}

func (f *StaticFeed) LatestAnswer(ctx context.Context) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.answer.Sign() <= 0 {
		return nil, ErrNonPositivePrice
	}
	return new(big.Int).Set(f.answer), nil
}

func (f *StaticFeed) Decimals() uint8 { return f.decimals }

// SetAnswer replaces the fixed answer. A non-positive answer makes the
// feed fail, which tests use to exercise the oracle error path.
func (f *StaticFeed) SetAnswer(answer *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answer = new(big.Int).Set(answer)
}
