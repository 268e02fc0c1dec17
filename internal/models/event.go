// ============================================================================
// models/event.go
// ============================================================================
package models

import "time"

// PoolEvent records one completed pool operation (swap, deposit or withdraw).
// All amounts are exact base-10 integer strings in the token's native
// precision; Price is the 18-decimal execution price as an integer string.
type PoolEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // "swap", "deposit", "withdraw"
	Pair      string    `json:"pair"` // e.g. "WETH/USDC"
	Account   string    `json:"account"`
	TokenIn   string    `json:"token_in"`
	TokenOut  string    `json:"token_out"`
	AmountIn  string    `json:"amount_in"`
	AmountOut string    `json:"amount_out"`
	LPDelta   string    `json:"lp_delta"` // LP tokens minted (+) or burned (-)
	Price     string    `json:"price"`    // execution price, 1e18 scale
	K         string    `json:"k"`        // price constant after the operation, 1e36 scale
}
