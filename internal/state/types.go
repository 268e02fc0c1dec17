package state

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("pool state not found")

// PoolState is the durable snapshot written after every settled pool
// operation. PriceConstant is the 36-decimal invariant as a base-10
// integer string; balances stay authoritative on the token ledgers.
type PoolState struct {
	Pair          string    `json:"pair"`
	PriceConstant string    `json:"price_constant"`
	UpdatedAt     time.Time `json:"updated_at"`
}
