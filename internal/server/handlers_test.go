package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucianot/liquidity-pool/internal/amm"
	"github.com/lucianot/liquidity-pool/internal/models"
	"github.com/lucianot/liquidity-pool/internal/oracle"
	"github.com/lucianot/liquidity-pool/internal/state"
	"github.com/lucianot/liquidity-pool/internal/token"
)

// stubCache is an in-memory EventCache for handler tests.
type stubCache struct {
	events []*models.PoolEvent
}

func (s *stubCache) AddRecentEvent(_ context.Context, ev *models.PoolEvent) error {
	s.events = append([]*models.PoolEvent{ev}, s.events...)
	return nil
}

func (s *stubCache) GetRecentEvents(_ context.Context, limit int64) ([]*models.PoolEvent, error) {
	if int64(len(s.events)) < limit {
		limit = int64(len(s.events))
	}
	return s.events[:limit], nil
}

func (s *stubCache) PublishEvent(context.Context, *models.PoolEvent) error { return nil }

func (s *stubCache) SubscribeEvents(context.Context) (<-chan *models.PoolEvent, error) {
	ch := make(chan *models.PoolEvent)
	close(ch)
	return ch, nil
}

func (s *stubCache) Ping(context.Context) error { return nil }
func (s *stubCache) Close() error               { return nil }

// stubStates is an in-memory pool state store wired into both the engine
// persister and the read-side handlers.
type stubStates struct {
	states map[string]*state.PoolState
}

func (s *stubStates) SavePriceConstant(_ context.Context, pair string, k *big.Int) error {
	s.states[pair] = &state.PoolState{Pair: pair, PriceConstant: k.String(), UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *stubStates) Get(_ context.Context, pair string) (*state.PoolState, error) {
	st, ok := s.states[pair]
	if !ok {
		return nil, state.ErrNotFound
	}
	return st, nil
}

func (s *stubStates) List(context.Context) ([]*state.PoolState, error) {
	out := make([]*state.PoolState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out, nil
}

func (s *stubStates) Delete(_ context.Context, pair string) error {
	delete(s.states, pair)
	return nil
}

func eth(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func newTestServer(t *testing.T) (*echo.Echo, *stubCache) {
	t.Helper()

	poolAddr := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	treasury := common.HexToAddress("0x00000000000000000000000000000000000000BB")
	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")

	weth := token.NewLedger("WETH", 18, treasury, eth(1_000_000))
	usdc := token.NewLedger("USDC", 18, treasury, eth(100_000_000))
	liquidity := token.NewLiquidityLedger("LPT", 18, poolAddr)

	require.NoError(t, weth.Transfer(treasury, poolAddr, eth(10)))
	require.NoError(t, usdc.Transfer(treasury, poolAddr, eth(20000)))
	require.NoError(t, weth.Transfer(treasury, alice, eth(100)))
	require.NoError(t, usdc.Transfer(treasury, alice, eth(200_000)))
	require.NoError(t, weth.Approve(alice, poolAddr, eth(100)))
	require.NoError(t, usdc.Approve(alice, poolAddr, eth(200_000)))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cacheStub := &stubCache{}
	statesStub := &stubStates{states: map[string]*state.PoolState{}}
	pool, err := amm.New(amm.Config{
		Primary:   weth,
		Secondary: usdc,
		Liquidity: liquidity,
		Feed:      oracle.NewStaticFeed(big.NewInt(200_000_000_000)),
		Address:   poolAddr,
		States:    statesStub,
		Events:    cacheStub,
		Logger:    logger,
	})
	require.NoError(t, err)

	h := &Handlers{Pool: pool, Cache: cacheStub, State: statesStub, DevMode: true, Logger: logger}

	e := echo.New()
	RegisterRoutes(e, h, Config{})
	return e, cacheStub
}

func doJSON(t *testing.T, e *echo.Echo, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Health(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestHandlers_PoolSnapshot(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/pool", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PoolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "WETH/USDC", resp.Pair)
	assert.Equal(t, "WETH", resp.PrimarySymbol)
	assert.Equal(t, eth(10).String(), resp.PrimaryReserve)
	assert.Equal(t, eth(20000).String(), resp.SecondaryReserve)

	// Nothing settled yet, so no persisted snapshot is reported.
	assert.Empty(t, resp.PersistedConstant)
}

func TestHandlers_PoolStates(t *testing.T) {
	e, _ := newTestServer(t)

	// Settle one swap so the invariant is persisted.
	rec := doJSON(t, e, http.MethodPost, "/v1/pool/swap", SwapRequest{
		Account: "0x0000000000000000000000000000000000000001",
		Amount:  eth(2).String(),
		Ticker:  "WETH",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/pool", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap PoolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, snap.PriceConstant, snap.PersistedConstant)
	assert.NotEmpty(t, snap.PersistedAt)

	rec = doJSON(t, e, http.MethodGet, "/v1/pool/states", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []PoolStateResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "WETH/USDC", list.Items[0].Pair)
	assert.Equal(t, snap.PriceConstant, list.Items[0].PriceConstant)

	rec = doJSON(t, e, http.MethodDelete, "/v1/pool/states?pair=WETH/USDC", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/pool/states", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Items)

	rec = doJSON(t, e, http.MethodDelete, "/v1/pool/states?pair=WETHUSDC", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_Account(t *testing.T) {
	e, _ := newTestServer(t)

	// No liquidity outstanding: the share and its claims are zero.
	rec := doJSON(t, e, http.MethodGet, "/v1/accounts/0x0000000000000000000000000000000000000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0", resp.SharePercent)
	assert.Equal(t, "0", resp.PrimaryShare)
	assert.Equal(t, "0", resp.SecondaryShare)

	// After the only deposit the account owns the entire 12/24000 pool.
	rec = doJSON(t, e, http.MethodPost, "/v1/pool/deposit", DepositRequest{
		Account: "0x0000000000000000000000000000000000000001",
		Amount:  eth(2).String(),
		Ticker:  "WETH",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/accounts/0x0000000000000000000000000000000000000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, eth(1).String(), resp.SharePercent)
	assert.Equal(t, eth(12).String(), resp.PrimaryShare)
	assert.Equal(t, eth(24000).String(), resp.SecondaryShare)
	assert.Equal(t, eth(8000).String(), resp.LiquidityBalance)

	rec = doJSON(t, e, http.MethodGet, "/v1/accounts/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_DepositAmounts(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/pool/deposit-amounts?amount="+eth(2).String()+"&ticker=WETH", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DepositAmountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, eth(2).String(), resp.PrimaryAmount)
	assert.Equal(t, eth(4000).String(), resp.SecondaryAmount)

	// Non-integer amount
	rec = doJSON(t, e, http.MethodGet, "/v1/pool/deposit-amounts?amount=2.5&ticker=WETH", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown ticker
	rec = doJSON(t, e, http.MethodGet, "/v1/pool/deposit-amounts?amount=1&ticker=DOGE", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_SwapData(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/pool/swap-data?amount="+eth(2).String()+"&ticker=WETH", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SwapDataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "3333333333333333333334", resp.ReceiveAmount)
}

func TestHandlers_SwapSettlesAndCachesEvent(t *testing.T) {
	e, cacheStub := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/pool/swap", SwapRequest{
		Account: "0x0000000000000000000000000000000000000001",
		Amount:  eth(2).String(),
		Ticker:  "WETH",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SwapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "3333333333333333333334", resp.ReceiveAmount)
	require.Len(t, cacheStub.events, 1)
	assert.Equal(t, "swap", cacheStub.events[0].Kind)
}

func TestHandlers_SwapConflict(t *testing.T) {
	e, _ := newTestServer(t)

	// Account without an allowance: the pull fails and maps to 409.
	rec := doJSON(t, e, http.MethodPost, "/v1/pool/swap", SwapRequest{
		Account: "0x0000000000000000000000000000000000000002",
		Amount:  eth(2).String(),
		Ticker:  "WETH",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlers_WithdrawValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/pool/withdraw", WithdrawRequest{
		Account: "0x0000000000000000000000000000000000000001",
		Percent: "0",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/v1/pool/withdraw", WithdrawRequest{
		Account: "not-an-address",
		Percent: "1000000000000000000",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_AIDisabled(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/ai/ask", AIAskRequest{Question: "how many swaps today?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_NotFoundIsJSON(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
