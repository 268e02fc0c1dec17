package amm

import "errors"

var (
	// ErrInvalidTicker indicates a ticker argument that names neither pool asset.
	ErrInvalidTicker = errors.New("amm: ticker does not name a pool asset")

	// ErrInvalidWithdrawPercentage indicates a withdraw percent outside (0, 1e18].
	ErrInvalidWithdrawPercentage = errors.New("amm: withdraw percentage must be in (0, 100%]")

	// ErrReceiveBalanceZero indicates the receive-side reserve holds nothing,
	// so swapping or converting against it is rejected rather than returning
	// a degenerate result.
	ErrReceiveBalanceZero = errors.New("amm: receive balance is zero")

	// ErrAmountZero indicates a zero or negative amount argument.
	ErrAmountZero = errors.New("amm: amount must be positive")

	// ErrInsufficientLiquidity indicates a swap whose computed output would
	// exceed the receive-side reserve.
	ErrInsufficientLiquidity = errors.New("amm: insufficient pool liquidity")
)
