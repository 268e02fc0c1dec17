package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Oracle settings. With no ORACLE_URL the static feed serves the
	// configured price instead.
	OracleURL    string
	OracleAPIKey string
	OraclePrice  string

	// AI settings
	OpenRouterAPIKey string

	// Pool asset settings
	PrimarySymbol     string
	PrimaryDecimals   int
	SecondarySymbol   string
	SecondaryDecimals int
	LiquiditySymbol   string

	// Ledger bootstrap settings
	PoolAddress     string
	TreasuryAddress string
	PrimarySupply   string
	SecondarySupply string

	// HTTP client settings
	HTTPTimeout time.Duration
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "pool"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Oracle
		OracleURL:    getEnv("ORACLE_URL", ""),
		OracleAPIKey: getEnv("ORACLE_API_KEY", ""),
		OraclePrice:  getEnv("ORACLE_PRICE", "200000000000"), // 2000 at 1e8

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),

		// Pool assets
		PrimarySymbol:     getEnv("PRIMARY_SYMBOL", "WETH"),
		PrimaryDecimals:   getIntEnv("PRIMARY_DECIMALS", 18),
		SecondarySymbol:   getEnv("SECONDARY_SYMBOL", "USDC"),
		SecondaryDecimals: getIntEnv("SECONDARY_DECIMALS", 18),
		LiquiditySymbol:   getEnv("LIQUIDITY_SYMBOL", "LPT"),

		// Ledgers
		PoolAddress:     getEnv("POOL_ADDRESS", "0x00000000000000000000000000000000000000AA"),
		TreasuryAddress: getEnv("TREASURY_ADDRESS", "0x00000000000000000000000000000000000000BB"),
		PrimarySupply:   getEnv("PRIMARY_SUPPLY", "1000000000000000000000000"),      // 1M at 1e18
		SecondarySupply: getEnv("SECONDARY_SUPPLY", "2000000000000000000000000000"), // 2B at 1e18

		// HTTP
		HTTPTimeout: getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("API_ADDR must not be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR must not be empty")
	}
	if c.PrimarySymbol == "" || c.SecondarySymbol == "" || c.LiquiditySymbol == "" {
		return fmt.Errorf("asset symbols must not be empty")
	}
	if c.PrimarySymbol == c.SecondarySymbol {
		return fmt.Errorf("primary and secondary symbols must differ")
	}
	if c.PrimaryDecimals < 0 || c.PrimaryDecimals > 18 || c.SecondaryDecimals < 0 || c.SecondaryDecimals > 18 {
		return fmt.Errorf("asset decimals must be in [0, 18]")
	}
	if c.PoolAddress == c.TreasuryAddress {
		return fmt.Errorf("pool and treasury addresses must differ")
	}
	for _, v := range []struct{ name, val string }{
		{"ORACLE_PRICE", c.OraclePrice},
		{"PRIMARY_SUPPLY", c.PrimarySupply},
		{"SECONDARY_SUPPLY", c.SecondarySupply},
	} {
		n, ok := new(big.Int).SetString(v.val, 10)
		if !ok || n.Sign() <= 0 {
			return fmt.Errorf("%s must be a positive integer string", v.name)
		}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
