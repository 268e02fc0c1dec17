package server

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/ai"
	"github.com/lucianot/liquidity-pool/internal/amm"
	"github.com/lucianot/liquidity-pool/internal/oracle"
	"github.com/lucianot/liquidity-pool/internal/state"
	"github.com/lucianot/liquidity-pool/internal/storage"
	"github.com/lucianot/liquidity-pool/internal/token"
)

// StateStore is the persisted pool state surface the API reads; the
// Redis-backed state.Store satisfies it.
type StateStore interface {
	Get(ctx context.Context, pair string) (*state.PoolState, error)
	List(ctx context.Context) ([]*state.PoolState, error)
	Delete(ctx context.Context, pair string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Pool         *amm.Pool          // The liquidity pool engine
	Cache        storage.EventCache // Redis-backed event cache
	State        StateStore         // Persisted invariant snapshots (optional)
	AI           *ai.Agent          // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig     // Base configuration for AI agents
	DevMode      bool               // Enable detailed error responses in development
	Logger       *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// poolErr maps engine errors onto HTTP status codes: bad arguments are
// 400, settlement conflicts are 409, oracle outages are 502.
func (h *Handlers) poolErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, amm.ErrInvalidTicker),
		errors.Is(err, amm.ErrInvalidWithdrawPercentage),
		errors.Is(err, amm.ErrAmountZero):
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, amm.ErrReceiveBalanceZero),
		errors.Is(err, amm.ErrInsufficientLiquidity),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		return h.err(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, oracle.ErrUnavailable),
		errors.Is(err, oracle.ErrNonPositivePrice):
		return h.err(c, http.StatusBadGateway, err.Error(), nil)
	}
	h.Logger.WithError(err).Error("pool operation failed")
	return h.err(c, http.StatusInternalServerError, "pool operation failed", map[string]any{"err": err.Error()})
}

// parseAmount parses an exact base-10 integer amount string.
func parseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	return v, ok
}

// parseAddress validates and parses a 0x-prefixed hex account address.
func parseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// PoolSnapshot returns the pool's reserves, liquidity supply and invariant,
// alongside the last persisted invariant when a state store is configured
func (h *Handlers) PoolSnapshot(c echo.Context) error {
	primary, secondary := h.Pool.Reserves()
	pair := h.Pool.Pair()
	symbols := strings.SplitN(pair, "/", 2)

	resp := PoolResponse{
		Pair:             pair,
		PrimarySymbol:    symbols[0],
		SecondarySymbol:  symbols[1],
		PrimaryReserve:   primary.String(),
		SecondaryReserve: secondary.String(),
		LiquiditySupply:  h.Pool.LiquiditySupply().String(),
		PriceConstant:    h.Pool.PriceConstant().String(),
	}

	if h.State != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		st, err := h.State.Get(ctx, pair)
		switch {
		case err == nil:
			resp.PersistedConstant = st.PriceConstant
			resp.PersistedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
		case !errors.Is(err, state.ErrNotFound):
			h.Logger.WithError(err).Warn("failed to read persisted pool state")
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// PoolStates lists every persisted invariant snapshot
func (h *Handlers) PoolStates(c echo.Context) error {
	items := []PoolStateResponse{}
	if h.State != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		states, err := h.State.List(ctx)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to list pool states", nil)
		}
		for _, st := range states {
			items = append(items, PoolStateResponse{
				Pair:          st.Pair,
				PriceConstant: st.PriceConstant,
				UpdatedAt:     st.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// PoolStateDelete drops the persisted snapshot for a pair
// Accepts a pair query parameter, e.g. pair=WETH/USDC
func (h *Handlers) PoolStateDelete(c echo.Context) error {
	if h.State == nil {
		return h.err(c, http.StatusBadRequest, "state store is not configured", nil)
	}
	pair := strings.TrimSpace(c.QueryParam("pair"))
	if err := state.ValidatePair(pair); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pair", map[string]any{"pair": "expected SYMBOL/SYMBOL"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.State.Delete(ctx, pair); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete pool state", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": pair})
}

// DepositAmounts quotes both legs of a deposit
// Accepts amount and ticker query parameters
func (h *Handlers) DepositAmounts(c echo.Context) error {
	amount, ok := parseAmount(c.QueryParam("amount"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be an integer string"})
	}
	ticker := c.QueryParam("ticker")

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	primary, secondary, err := h.Pool.GetDepositAmounts(ctx, amount, ticker)
	if err != nil {
		return h.poolErr(c, err)
	}
	return c.JSON(http.StatusOK, DepositAmountsResponse{
		PrimaryAmount:   primary.String(),
		SecondaryAmount: secondary.String(),
	})
}

// SwapData quotes a swap without settling it
// Accepts amount and ticker query parameters
func (h *Handlers) SwapData(c echo.Context) error {
	amount, ok := parseAmount(c.QueryParam("amount"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be an integer string"})
	}
	ticker := c.QueryParam("ticker")

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	quote, err := h.Pool.GetSwapData(ctx, amount, ticker)
	if err != nil {
		return h.poolErr(c, err)
	}
	return c.JSON(http.StatusOK, SwapDataResponse{
		SendAmount:     quote.SendAmount.String(),
		ReceiveAmount:  quote.ReceiveAmount.String(),
		ExecutionPrice: quote.ExecutionPrice.String(),
	})
}

// Convert prices an amount of one pool asset in units of the other
// Accepts amount, from and to query parameters
func (h *Handlers) Convert(c echo.Context) error {
	amount, ok := parseAmount(c.QueryParam("amount"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be an integer string"})
	}
	from := c.QueryParam("from")
	to := c.QueryParam("to")

	converted, err := h.Pool.ConvertTokenAmount(amount, from, to)
	if err != nil {
		return h.poolErr(c, err)
	}
	return c.JSON(http.StatusOK, ConvertResponse{
		FromTicker: strings.ToUpper(strings.TrimSpace(from)),
		ToTicker:   strings.ToUpper(strings.TrimSpace(to)),
		Amount:     amount.String(),
		Converted:  converted.String(),
	})
}

// Account reports a holder's pool share and the reserve amounts it claims
func (h *Handlers) Account(c echo.Context) error {
	addr, ok := parseAddress(c.Param("address"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"address": "must be a hex address"})
	}

	data := h.Pool.GetUserAccountData(addr)
	return c.JSON(http.StatusOK, AccountResponse{
		Address:          data.Address.Hex(),
		SharePercent:     data.SharePercent.String(),
		PrimaryShare:     data.PrimaryShare.String(),
		SecondaryShare:   data.SecondaryShare.String(),
		LiquidityBalance: data.LiquidityBalance.String(),
		LiquiditySupply:  data.LiquiditySupply.String(),
	})
}

// RecentEvents returns the most recent pool events with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentEvents(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentEvents(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get events", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Deposit settles a two-sided deposit pulled from the request account
func (h *Handlers) Deposit(c echo.Context) error {
	var req DepositRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	addr, ok := parseAddress(req.Account)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"account": "must be a hex address"})
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be an integer string"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	minted, err := h.Pool.Deposit(ctx, addr, amount, req.Ticker)
	if err != nil {
		return h.poolErr(c, err)
	}
	return c.JSON(http.StatusOK, DepositResponse{
		Minted:        minted.String(),
		PriceConstant: h.Pool.PriceConstant().String(),
	})
}

// Withdraw redeems a 1e18-scaled percentage of the pool for the account
func (h *Handlers) Withdraw(c echo.Context) error {
	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	addr, ok := parseAddress(req.Account)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"account": "must be a hex address"})
	}
	percent, ok := parseAmount(req.Percent)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid percent", map[string]any{"percent": "must be an integer string"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	primary, secondary, burned, err := h.Pool.Withdraw(ctx, addr, percent)
	if err != nil {
		return h.poolErr(c, err)
	}
	return c.JSON(http.StatusOK, WithdrawResponse{
		PrimaryAmount:   primary.String(),
		SecondaryAmount: secondary.String(),
		Burned:          burned.String(),
		PriceConstant:   h.Pool.PriceConstant().String(),
	})
}

// Swap trades the request amount of ticker for the other pool asset
func (h *Handlers) Swap(c echo.Context) error {
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	addr, ok := parseAddress(req.Account)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"account": "must be a hex address"})
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be an integer string"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	received, err := h.Pool.Swap(ctx, addr, amount, req.Ticker)
	if err != nil {
		return h.poolErr(c, err)
	}
	return c.JSON(http.StatusOK, SwapResponse{
		ReceiveAmount: received.String(),
		PriceConstant: h.Pool.PriceConstant().String(),
	})
}

// AIAsk processes natural language questions about pool activity using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	var tmp *ai.Agent
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		tmp = a
		agent = a
		defer func() {
			_ = tmp.Close() // Clean up temporary agent
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
