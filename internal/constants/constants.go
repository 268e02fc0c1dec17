package constants

// Redis keys
const (
	RedisKeyRecentEvents = "pool:events:recent"
	RedisKeyStatePrefix  = "pool:state:"
	RedisKeyStateIndex   = "pool:state:index"
)

// Redis Pub/Sub channels
const (
	PubSubChannelEvents     = "pool:events:all"
	PubSubChannelKindPrefix = "pool:events:kind:"
)

// Limits
const (
	MaxRecentEvents = 100
)

// ClickHouse
const (
	EventTable = "pool_events"
)

// Event kinds
const (
	EventKindSwap     = "swap"
	EventKindDeposit  = "deposit"
	EventKindWithdraw = "withdraw"
)
