package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/ai"
	"github.com/lucianot/liquidity-pool/internal/amm"
	"github.com/lucianot/liquidity-pool/internal/cache"
	"github.com/lucianot/liquidity-pool/internal/config"
	"github.com/lucianot/liquidity-pool/internal/oracle"
	"github.com/lucianot/liquidity-pool/internal/server"
	"github.com/lucianot/liquidity-pool/internal/state"
	"github.com/lucianot/liquidity-pool/internal/token"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// mustBig parses validated big integer config values.
func mustBig(logger *logrus.Logger, name, val string) *big.Int {
	n, ok := new(big.Int).SetString(val, 10)
	if !ok {
		logger.Fatalf("invalid %s: %q", name, val)
	}
	return n
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client for event caching and pool state
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	// Initialize event cache for recent events and Pub/Sub fan-out
	eventCache := cache.NewRedisCacheFromClient(rclient, logger)

	// Initialize pool state store for invariant persistence
	stateStore, err := state.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create state store")
	}

	// Surface the last persisted invariant from a previous run; the engine
	// recomputes k from live reserves either way.
	if st, err := stateStore.Get(ctx, cfg.PrimarySymbol+"/"+cfg.SecondarySymbol); err == nil {
		logger.WithFields(logrus.Fields{
			"pair":       st.Pair,
			"k":          st.PriceConstant,
			"updated_at": st.UpdatedAt,
		}).Info("restored persisted pool state")
	} else if !errors.Is(err, state.ErrNotFound) {
		logger.WithError(err).Warn("failed to read persisted pool state")
	}

	// Bootstrap the token ledgers: treasury holds the initial supplies
	poolAddr := common.HexToAddress(cfg.PoolAddress)
	treasuryAddr := common.HexToAddress(cfg.TreasuryAddress)
	primary := token.NewLedger(cfg.PrimarySymbol, uint8(cfg.PrimaryDecimals), treasuryAddr,
		mustBig(logger, "PRIMARY_SUPPLY", cfg.PrimarySupply))
	secondary := token.NewLedger(cfg.SecondarySymbol, uint8(cfg.SecondaryDecimals), treasuryAddr,
		mustBig(logger, "SECONDARY_SUPPLY", cfg.SecondarySupply))
	liquidity := token.NewLiquidityLedger(cfg.LiquiditySymbol, 18, poolAddr)

	// Select the price feed: live HTTP aggregator when configured,
	// otherwise a static feed at the configured price
	var feed oracle.PriceFeed
	if cfg.OracleURL != "" {
		feed = oracle.NewClient(cfg.OracleURL, cfg.OracleAPIKey, cfg.HTTPTimeout)
		logger.WithField("url", cfg.OracleURL).Info("using http price feed")
	} else {
		feed = oracle.NewStaticFeed(mustBig(logger, "ORACLE_PRICE", cfg.OraclePrice))
		logger.WithField("price", cfg.OraclePrice).Info("using static price feed")
	}

	// Assemble the pool engine
	pool, err := amm.New(amm.Config{
		Primary:   primary,
		Secondary: secondary,
		Liquidity: liquidity,
		Feed:      feed,
		Address:   poolAddr,
		States:    stateStore,
		Events:    eventCache,
		Logger:    logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create pool")
	}
	logger.WithField("pair", pool.Pair()).Info("pool initialized")

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              ai.DefaultModel,
		Logger:             logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close() // Clean up AI resources on shutdown
			}()
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Pool:         pool,       // The liquidity pool engine
		Cache:        eventCache, // Redis-backed event cache
		State:        stateStore, // Persisted invariant snapshots
		AI:           agent,      // Optional AI agent (can be nil)
		AIBaseConfig: aiBase,     // Base AI configuration for model overrides
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	// Create HTTP server with configuration and handlers
	srv := server.NewServer(h, server.Config{
		Addr:    cfg.APIAddr,
		DevMode: cfg.DevMode,
		APIKey:  cfg.APIKey,
	})

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
