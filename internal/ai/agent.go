package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used whenever no model override is supplied.
	DefaultModel = "openai/gpt-4.1-mini"

	maxCompletionTokens = 512
)

// AgentConfig holds configuration for the AI agent.
type AgentConfig struct {
	// ClickHouse connection settings.
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// OpenRouter / LLM settings.
	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "openai/gpt-4.1-mini".
	Model string

	Logger *logrus.Logger
}

// Agent answers natural language questions about pool activity. Each
// question becomes a guarded ClickHouse SELECT over pool_events, the
// rows come back as JSON, and a second completion turns them into a
// readable answer.
type Agent struct {
	llm    llms.Model
	db     *sql.DB
	logger *logrus.Logger
}

// NewAgent opens the LLM and ClickHouse clients the agent owns.
func NewAgent(ctx context.Context, cfg AgentConfig) (*Agent, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("ai: OPENROUTER_API_KEY is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL(openRouterBaseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("ai: create llm client: %w", err)
	}

	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.ClickHouseAddr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
	})
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ai: ping clickhouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"model":      model,
		"clickhouse": cfg.ClickHouseAddr,
	}).Info("ai agent ready")

	return &Agent{llm: llm, db: db, logger: cfg.Logger}, nil
}

// Close releases the agent's ClickHouse connection.
func (a *Agent) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// AskResult carries the generated SQL alongside the final answer.
type AskResult struct {
	SQL    string
	Answer string
}

// Ask runs the full question-to-answer pipeline.
func (a *Agent) Ask(ctx context.Context, question string) (*AskResult, error) {
	query, err := a.generateSQL(ctx, question)
	if err != nil {
		return nil, err
	}

	rows, err := a.queryRows(ctx, query)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("ai: encode rows: %w", err)
	}

	answer, err := a.summarise(ctx, question, query, string(data))
	if err != nil {
		return nil, err
	}
	return &AskResult{SQL: query, Answer: answer}, nil
}

func (a *Agent) generateSQL(ctx context.Context, question string) (string, error) {
	var b strings.Builder
	b.WriteString("You write ClickHouse SQL for a two-asset liquidity pool.\n\nSchema:\n")
	b.WriteString(eventsSchemaDescription)
	b.WriteString("\nWrite one SELECT statement answering the question below.\n")
	b.WriteString("- kind is one of 'swap', 'deposit', 'withdraw'; filter on it to separate trades from liquidity moves.\n")
	b.WriteString("- amount_in, amount_out, lp_delta, price and k are integer strings; wrap them in toFloat64() before any arithmetic.\n")
	b.WriteString("- divide toFloat64(amount) by 1e18 when reporting whole token units.\n")
	b.WriteString("- order by timestamp DESC with a LIMIT for 'latest' or 'biggest' style questions.\n")
	b.WriteString("- reply with the SQL only, no commentary.\n\nQuestion: ")
	b.WriteString(question)

	reply, err := llms.GenerateFromSinglePrompt(ctx, a.llm, b.String(), llms.WithMaxTokens(maxCompletionTokens))
	if err != nil {
		return "", fmt.Errorf("ai: generate sql: %w", err)
	}

	query := extractSQL(reply)
	if err := guardSQL(query); err != nil {
		return "", err
	}
	a.logger.WithField("sql", query).Debug("generated events query")
	return query, nil
}

func (a *Agent) queryRows(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ai: run query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("ai: read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("ai: scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, name := range cols {
			row[name] = cells[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ai: iterate rows: %w", err)
	}
	return out, nil
}

func (a *Agent) summarise(ctx context.Context, question, query, rowsJSON string) (string, error) {
	var b strings.Builder
	b.WriteString("You are reporting on activity in a two-asset liquidity pool.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nSQL used: %s\n\nRows (JSON): %s\n\n", question, query, rowsJSON)
	b.WriteString("Answer the question from the rows alone.\n")
	b.WriteString("- an empty row set means no matching pool activity; say so.\n")
	b.WriteString("- amounts carry 18 decimals; report whole token units.\n")
	b.WriteString("- keep it short: the key figures plus a sentence or two of context.\n")

	reply, err := llms.GenerateFromSinglePrompt(ctx, a.llm, b.String(), llms.WithMaxTokens(maxCompletionTokens))
	if err != nil {
		return "", fmt.Errorf("ai: summarise result: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// extractSQL pulls the bare statement out of the model reply, which may
// arrive fenced or prefixed with a language tag.
func extractSQL(reply string) string {
	s := strings.TrimSpace(reply)
	if _, rest, ok := strings.Cut(s, "```"); ok {
		s = rest
		if inner, _, ok := strings.Cut(s, "```"); ok {
			s = inner
		}
	}
	s = strings.TrimSpace(s)
	if len(s) > 3 && strings.EqualFold(s[:3], "sql") && !isWordByte(s[3]) {
		s = s[3:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// guardSQL rejects anything but a single SELECT over the events table.
func guardSQL(query string) error {
	if query == "" {
		return fmt.Errorf("ai: model returned no SQL")
	}
	if strings.ContainsRune(query, ';') {
		return fmt.Errorf("ai: multiple statements are not allowed")
	}
	upper := strings.ToUpper(query)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("ai: only SELECT queries are allowed")
	}
	for _, kw := range []string{
		"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE",
		"CREATE", "RENAME", "ATTACH", "DETACH", "GRANT", "SYSTEM",
	} {
		if containsWord(upper, kw) {
			return fmt.Errorf("ai: keyword %s is not allowed", kw)
		}
	}
	if !containsWord(upper, "POOL_EVENTS") {
		return fmt.Errorf("ai: query must read pool_events")
	}
	return nil
}

func containsWord(s, w string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		i += from
		j := i + len(w)
		if (i == 0 || !isWordByte(s[i-1])) && (j >= len(s) || !isWordByte(s[j])) {
			return true
		}
		from = j
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
