package server

// All token amounts on the wire are exact base-10 integer strings in the
// token's native precision. Percentages and prices are 1e18-scaled
// integer strings.

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// PoolResponse is the public snapshot of the pool.
type PoolResponse struct {
	Pair             string `json:"pair"`
	PrimarySymbol    string `json:"primary_symbol"`
	SecondarySymbol  string `json:"secondary_symbol"`
	PrimaryReserve   string `json:"primary_reserve"`
	SecondaryReserve string `json:"secondary_reserve"`
	LiquiditySupply  string `json:"liquidity_supply"`
	PriceConstant    string `json:"price_constant"` // 1e36 scale

	// Last persisted invariant, present when a state store is configured
	// and has a snapshot for the pair.
	PersistedConstant string `json:"persisted_constant,omitempty"`
	PersistedAt       string `json:"persisted_at,omitempty"`
}

// PoolStateResponse is one persisted invariant snapshot.
type PoolStateResponse struct {
	Pair          string `json:"pair"`
	PriceConstant string `json:"price_constant"`
	UpdatedAt     string `json:"updated_at"`
}

// DepositAmountsResponse quotes both legs of a prospective deposit.
type DepositAmountsResponse struct {
	PrimaryAmount   string `json:"primary_amount"`
	SecondaryAmount string `json:"secondary_amount"`
}

// SwapDataResponse quotes a prospective swap.
type SwapDataResponse struct {
	SendAmount     string `json:"send_amount"`
	ReceiveAmount  string `json:"receive_amount"`
	ExecutionPrice string `json:"execution_price"` // 1e18 scale
}

// ConvertResponse prices one asset in units of the other.
type ConvertResponse struct {
	FromTicker string `json:"from_ticker"`
	ToTicker   string `json:"to_ticker"`
	Amount     string `json:"amount"`
	Converted  string `json:"converted"`
}

// AccountResponse reports a holder's share of the pool and the reserve
// amounts that share claims at current balances.
type AccountResponse struct {
	Address          string `json:"address"`
	SharePercent     string `json:"share_percent"` // 1e18 scale
	PrimaryShare     string `json:"primary_share"`
	SecondaryShare   string `json:"secondary_share"`
	LiquidityBalance string `json:"liquidity_balance"`
	LiquiditySupply  string `json:"liquidity_supply"`
}

// DepositRequest asks the pool to pull a two-sided deposit from account.
type DepositRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Ticker  string `json:"ticker"`
}

// DepositResponse reports the settled deposit.
type DepositResponse struct {
	Minted        string `json:"minted"`
	PriceConstant string `json:"price_constant"`
}

// WithdrawRequest redeems a 1e18-scaled percentage of the pool.
type WithdrawRequest struct {
	Account string `json:"account"`
	Percent string `json:"percent"`
}

// WithdrawResponse reports the settled withdrawal.
type WithdrawResponse struct {
	PrimaryAmount   string `json:"primary_amount"`
	SecondaryAmount string `json:"secondary_amount"`
	Burned          string `json:"burned"`
	PriceConstant   string `json:"price_constant"`
}

// SwapRequest trades amount units of ticker for the other asset.
type SwapRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Ticker  string `json:"ticker"`
}

// SwapResponse reports the settled swap.
type SwapResponse struct {
	ReceiveAmount string `json:"receive_amount"`
	PriceConstant string `json:"price_constant"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about pool activity
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
