package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/ai"
	"github.com/lucianot/liquidity-pool/internal/config"
)

// Console for asking questions about pool activity. With -q it answers
// once and exits; otherwise it reads questions from stdin until a blank
// line or a signal.
func main() {
	question := flag.String("q", "", "ask a single question and exit")
	model := flag.String("model", ai.DefaultModel, "OpenRouter model name")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.OpenRouterAPIKey == "" {
		logger.Fatal("OPENROUTER_API_KEY must be set to run the agent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := ai.NewAgent(ctx, ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              *model,
		Logger:             logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to start agent")
	}
	defer agent.Close()

	if *question != "" {
		if err := answer(ctx, agent, *question); err != nil {
			logger.WithError(err).Fatal("ask failed")
		}
		return
	}

	console(ctx, agent)
}

func answer(ctx context.Context, agent *ai.Agent, q string) error {
	res, err := agent.Ask(ctx, q)
	if err != nil {
		return err
	}
	fmt.Printf("sql: %s\n\n%s\n", res.SQL, res.Answer)
	return nil
}

func console(ctx context.Context, agent *ai.Agent) {
	fmt.Println("ask about pool activity (swaps, deposits, withdrawals); blank line to quit")

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("pool> ")
		if !in.Scan() {
			return
		}
		q := strings.TrimSpace(in.Text())
		if q == "" {
			return
		}

		if err := answer(ctx, agent, q); err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		fmt.Println()
	}
}
