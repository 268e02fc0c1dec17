package amm

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/lucianot/liquidity-pool/internal/constants"
	"github.com/lucianot/liquidity-pool/internal/models"
	"github.com/lucianot/liquidity-pool/internal/oracle"
	"github.com/lucianot/liquidity-pool/internal/token"
)

// StatePersister persists the pool's price constant after each mutation.
type StatePersister interface {
	SavePriceConstant(ctx context.Context, pair string, k *big.Int) error
}

// EventSink receives a PoolEvent for every settled mutation. RedisCache
// satisfies it.
type EventSink interface {
	AddRecentEvent(ctx context.Context, event *models.PoolEvent) error
	PublishEvent(ctx context.Context, event *models.PoolEvent) error
}

// Config wires a Pool together. Primary, Secondary, Liquidity, Feed,
// Address and Logger are required; States and Events are optional and
// best-effort when present.
type Config struct {
	Primary   token.Token
	Secondary token.Token
	Liquidity token.LiquidityToken
	Feed      oracle.PriceFeed
	Address   common.Address
	States    StatePersister
	Events    EventSink
	Logger    *logrus.Logger
}

// Pool is a constant-product market over two assets. Reserves are never
// tracked in a counter: every read goes through the token ledgers via
// BalanceOf on the pool's own address, so third-party transfers into the
// pool are absorbed on the next operation. A single mutex serializes
// mutations so the invariant is recomputed against settled balances.
type Pool struct {
	mu sync.Mutex

	primary   token.Token
	secondary token.Token
	liquidity token.LiquidityToken
	feed      oracle.PriceFeed
	address   common.Address

	k *big.Int

	states StatePersister
	events EventSink
	logger *logrus.Logger
}

// New builds a Pool and computes the initial price constant from the
// current ledger balances.
func New(cfg Config) (*Pool, error) {
	if cfg.Primary == nil || cfg.Secondary == nil || cfg.Liquidity == nil {
		return nil, fmt.Errorf("amm: pool requires primary, secondary and liquidity tokens")
	}
	if cfg.Feed == nil {
		return nil, fmt.Errorf("amm: pool requires a price feed")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	p := &Pool{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		liquidity: cfg.Liquidity,
		feed:      cfg.Feed,
		address:   cfg.Address,
		states:    cfg.States,
		events:    cfg.Events,
		logger:    cfg.Logger,
	}
	p.k = p.computePriceConstant()
	return p, nil
}

// Pair returns the pool identifier, e.g. "WETH/USDC".
func (p *Pool) Pair() string {
	return p.primary.Symbol() + "/" + p.secondary.Symbol()
}

// Address returns the ledger address holding the pool's reserves.
func (p *Pool) Address() common.Address {
	return p.address
}

func (p *Pool) tokenAt(s Slot) token.Token {
	if s == SlotPrimary {
		return p.primary
	}
	return p.secondary
}

func (p *Pool) reserveOf(s Slot) *big.Int {
	return p.tokenAt(s).BalanceOf(p.address)
}

// Reserves reports the current primary and secondary balances held at
// the pool address.
func (p *Pool) Reserves() (primary, secondary *big.Int) {
	return p.reserveOf(SlotPrimary), p.reserveOf(SlotSecondary)
}

// LiquiditySupply reports the outstanding liquidity token supply.
func (p *Pool) LiquiditySupply() *big.Int {
	return p.liquidity.TotalSupply()
}

// PriceConstant returns the invariant k at the 36-decimal scale as of
// the last settled mutation.
func (p *Pool) PriceConstant() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.k)
}

func (p *Pool) computePriceConstant() *big.Int {
	return priceConstant(
		p.reserveOf(SlotPrimary), p.reserveOf(SlotSecondary),
		p.primary.Decimals(), p.secondary.Decimals(),
	)
}

// LatestOraclePrice reads the secondary-per-primary oracle answer at the
// feed's native precision.
func (p *Pool) LatestOraclePrice(ctx context.Context) (*big.Int, error) {
	return p.feed.LatestAnswer(ctx)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	return nil
}

// ---------------------------------------------------------------------
// Quotes
// ---------------------------------------------------------------------

// GetDepositAmounts quotes both legs of a deposit of amount units of the
// ticker asset. With liquidity on both sides the paired leg follows the
// reserve ratio; when either reserve is empty the ratio is anchored to
// the oracle instead.
func (p *Pool) GetDepositAmounts(ctx context.Context, amount *big.Int, ticker string) (primaryAmount, secondaryAmount *big.Int, err error) {
	named, err := p.resolveSlot(ticker)
	if err != nil {
		return nil, nil, err
	}
	if err := checkAmount(amount); err != nil {
		return nil, nil, err
	}
	paired, err := p.pairedDepositAmount(ctx, amount, named)
	if err != nil {
		return nil, nil, err
	}
	if named == SlotPrimary {
		return new(big.Int).Set(amount), paired, nil
	}
	return paired, new(big.Int).Set(amount), nil
}

func (p *Pool) pairedDepositAmount(ctx context.Context, amount *big.Int, named Slot) (*big.Int, error) {
	other := named.other()
	namedRes := p.reserveOf(named)
	otherRes := p.reserveOf(other)

	if namedRes.Sign() == 0 || otherRes.Sign() == 0 {
		return p.oracleDepositAmount(ctx, amount, named)
	}

	named18 := scaleAmount(amount, p.tokenAt(named).Decimals(), AccountingDecimals)
	namedRes18 := scaleAmount(namedRes, p.tokenAt(named).Decimals(), AccountingDecimals)
	otherRes18 := scaleAmount(otherRes, p.tokenAt(other).Decimals(), AccountingDecimals)

	paired := new(big.Int).Mul(otherRes18, named18)
	paired.Quo(paired, namedRes18)
	return scaleAmount(paired, AccountingDecimals, p.tokenAt(other).Decimals()), nil
}

func (p *Pool) oracleDepositAmount(ctx context.Context, amount *big.Int, named Slot) (*big.Int, error) {
	price, err := p.feed.LatestAnswer(ctx)
	if err != nil {
		return nil, err
	}
	feedUnit := pow10(int(p.feed.Decimals()))
	named18 := scaleAmount(amount, p.tokenAt(named).Decimals(), AccountingDecimals)

	paired := new(big.Int)
	if named == SlotPrimary {
		paired.Mul(named18, price)
		paired.Quo(paired, feedUnit)
	} else {
		paired.Mul(named18, feedUnit)
		paired.Quo(paired, price)
	}
	return scaleAmount(paired, AccountingDecimals, p.tokenAt(named.other()).Decimals()), nil
}

// SwapQuote is the preview of a swap against current reserves.
type SwapQuote struct {
	SendAmount     *big.Int
	ReceiveAmount  *big.Int
	ExecutionPrice *big.Int // send per receive, 1e18 scale
}

// GetSwapData quotes the receive amount and execution price for sending
// amount units of the ticker asset, without settling anything.
func (p *Pool) GetSwapData(ctx context.Context, amount *big.Int, ticker string) (*SwapQuote, error) {
	send, recv, err := p.resolveSlots(ticker)
	if err != nil {
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	sendBal := p.reserveOf(send)
	recvBal := p.reserveOf(recv)
	if recvBal.Sign() == 0 {
		return nil, ErrReceiveBalanceZero
	}
	receive := swapReceiveAmount(amount, sendBal, recvBal,
		p.tokenAt(send).Decimals(), p.tokenAt(recv).Decimals())
	if receive.Cmp(recvBal) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return &SwapQuote{
		SendAmount:    new(big.Int).Set(amount),
		ReceiveAmount: receive,
		ExecutionPrice: executionPrice(amount, receive,
			p.tokenAt(send).Decimals(), p.tokenAt(recv).Decimals()),
	}, nil
}

// ConvertTokenAmount prices amount units of fromTicker in units of
// toTicker against current reserves. The two tickers must name distinct
// pool assets.
func (p *Pool) ConvertTokenAmount(amount *big.Int, fromTicker, toTicker string) (*big.Int, error) {
	from, err := p.resolveSlot(fromTicker)
	if err != nil {
		return nil, err
	}
	to, err := p.resolveSlot(toTicker)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, ErrInvalidTicker
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	recvBal := p.reserveOf(to)
	if recvBal.Sign() == 0 {
		return nil, ErrReceiveBalanceZero
	}
	return convertAmount(amount, p.reserveOf(from), recvBal,
		p.tokenAt(from).Decimals(), p.tokenAt(to).Decimals()), nil
}

// AccountData is a point-in-time view of one holder's pool position.
type AccountData struct {
	Address          common.Address
	SharePercent     *big.Int // 1e18 scale, zero when no liquidity is outstanding
	PrimaryShare     *big.Int
	SecondaryShare   *big.Int
	LiquidityBalance *big.Int
	LiquiditySupply  *big.Int
}

// GetUserAccountData reports the holder's share of the pool: the 1e18
// fraction of liquidity tokens they hold and the slice of each reserve
// that share claims at current balances, truncating.
func (p *Pool) GetUserAccountData(account common.Address) *AccountData {
	lpBalance := p.liquidity.BalanceOf(account)
	supply := p.liquidity.TotalSupply()

	data := &AccountData{
		Address:          account,
		SharePercent:     new(big.Int),
		PrimaryShare:     new(big.Int),
		SecondaryShare:   new(big.Int),
		LiquidityBalance: lpBalance,
		LiquiditySupply:  supply,
	}
	if supply.Sign() == 0 {
		return data
	}
	data.SharePercent.Mul(lpBalance, oneEth)
	data.SharePercent.Quo(data.SharePercent, supply)
	data.PrimaryShare.Mul(p.reserveOf(SlotPrimary), lpBalance)
	data.PrimaryShare.Quo(data.PrimaryShare, supply)
	data.SecondaryShare.Mul(p.reserveOf(SlotSecondary), lpBalance)
	data.SecondaryShare.Quo(data.SecondaryShare, supply)
	return data
}

// ---------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------

// journal collects compensating actions so a half-settled operation can
// be rolled back. Undo runs in reverse order; a failing compensation is
// logged and the remainder still runs.
type journal struct {
	undos  []func() error
	logger *logrus.Logger
}

func (j *journal) add(fn func() error) { j.undos = append(j.undos, fn) }

func (j *journal) rollback() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		if err := j.undos[i](); err != nil {
			j.logger.WithError(err).Error("rollback step failed, ledgers may need reconciliation")
		}
	}
}

// Deposit pulls amount units of the ticker asset plus the matching leg
// of the other asset from account into the pool, then mints liquidity
// worth twice the secondary-equivalent value of the deposit. Both pulls
// require prior approval of the pool address; failure of any leg rolls
// the others back.
func (p *Pool) Deposit(ctx context.Context, account common.Address, amount *big.Int, ticker string) (minted *big.Int, err error) {
	named, err := p.resolveSlot(ticker)
	if err != nil {
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	paired, err := p.pairedDepositAmount(ctx, amount, named)
	if err != nil {
		return nil, err
	}

	primaryAmount, secondaryAmount := amount, paired
	if named == SlotSecondary {
		primaryAmount, secondaryAmount = paired, amount
	}

	minted = new(big.Int).Mul(
		scaleAmount(secondaryAmount, p.secondary.Decimals(), AccountingDecimals), two)

	j := &journal{logger: p.logger}
	if err := p.primary.TransferFrom(p.address, account, p.address, primaryAmount); err != nil {
		return nil, err
	}
	j.add(func() error { return p.primary.Transfer(p.address, account, primaryAmount) })

	if err := p.secondary.TransferFrom(p.address, account, p.address, secondaryAmount); err != nil {
		j.rollback()
		return nil, err
	}
	j.add(func() error { return p.secondary.Transfer(p.address, account, secondaryAmount) })

	if err := p.liquidity.Mint(p.address, account, minted); err != nil {
		j.rollback()
		return nil, err
	}

	p.settle(ctx, &models.PoolEvent{
		Kind:      constants.EventKindDeposit,
		Account:   account.Hex(),
		TokenIn:   p.primary.Symbol(),
		TokenOut:  p.secondary.Symbol(),
		AmountIn:  primaryAmount.String(),
		AmountOut: secondaryAmount.String(),
		LPDelta:   minted.String(),
	})
	return minted, nil
}

// Withdraw pays account percent of each reserve and burns percent of the
// account's liquidity balance. percent is 1e18-scaled and must lie in
// (0, 1e18].
func (p *Pool) Withdraw(ctx context.Context, account common.Address, percent *big.Int) (primaryOut, secondaryOut, burned *big.Int, err error) {
	if percent == nil || percent.Sign() <= 0 || percent.Cmp(oneEth) > 0 {
		return nil, nil, nil, ErrInvalidWithdrawPercentage
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	primaryOut = mulPercent(p.reserveOf(SlotPrimary), percent)
	secondaryOut = mulPercent(p.reserveOf(SlotSecondary), percent)
	burned = mulPercent(p.liquidity.BalanceOf(account), percent)

	j := &journal{logger: p.logger}
	if err := p.primary.Transfer(p.address, account, primaryOut); err != nil {
		return nil, nil, nil, err
	}
	j.add(func() error { return p.primary.Transfer(account, p.address, primaryOut) })

	if err := p.secondary.Transfer(p.address, account, secondaryOut); err != nil {
		j.rollback()
		return nil, nil, nil, err
	}
	j.add(func() error { return p.secondary.Transfer(account, p.address, secondaryOut) })

	if err := p.liquidity.Burn(p.address, account, burned); err != nil {
		j.rollback()
		return nil, nil, nil, err
	}

	p.settle(ctx, &models.PoolEvent{
		Kind:      constants.EventKindWithdraw,
		Account:   account.Hex(),
		TokenIn:   p.liquidity.Symbol(),
		TokenOut:  p.Pair(),
		AmountIn:  burned.String(),
		AmountOut: primaryOut.String() + "/" + secondaryOut.String(),
		LPDelta:   "-" + burned.String(),
	})
	return primaryOut, secondaryOut, burned, nil
}

// Swap sends amount units of the ticker asset from account to the pool
// and pays out the constant-product amount of the other asset. The send
// leg requires prior approval of the pool address.
func (p *Pool) Swap(ctx context.Context, account common.Address, amount *big.Int, ticker string) (received *big.Int, err error) {
	send, recv, err := p.resolveSlots(ticker)
	if err != nil {
		return nil, err
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sendBal := p.reserveOf(send)
	recvBal := p.reserveOf(recv)
	if recvBal.Sign() == 0 {
		return nil, ErrReceiveBalanceZero
	}
	received = swapReceiveAmount(amount, sendBal, recvBal,
		p.tokenAt(send).Decimals(), p.tokenAt(recv).Decimals())
	if received.Cmp(recvBal) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	j := &journal{logger: p.logger}
	if err := p.tokenAt(send).TransferFrom(p.address, account, p.address, amount); err != nil {
		return nil, err
	}
	j.add(func() error { return p.tokenAt(send).Transfer(p.address, account, amount) })

	if err := p.tokenAt(recv).Transfer(p.address, account, received); err != nil {
		j.rollback()
		return nil, err
	}

	price := executionPrice(amount, received,
		p.tokenAt(send).Decimals(), p.tokenAt(recv).Decimals())
	p.settle(ctx, &models.PoolEvent{
		Kind:      constants.EventKindSwap,
		Account:   account.Hex(),
		TokenIn:   p.tokenAt(send).Symbol(),
		TokenOut:  p.tokenAt(recv).Symbol(),
		AmountIn:  amount.String(),
		AmountOut: received.String(),
		Price:     price.String(),
	})
	return received, nil
}

// settle recomputes the invariant from settled balances, persists it and
// publishes the event. Persistence and publication are best-effort;
// failures are logged, never surfaced to the caller.
func (p *Pool) settle(ctx context.Context, ev *models.PoolEvent) {
	p.k = p.computePriceConstant()

	if p.states != nil {
		if err := p.states.SavePriceConstant(ctx, p.Pair(), p.k); err != nil {
			p.logger.WithError(err).Warn("failed to persist price constant")
		}
	}
	if p.events == nil {
		return
	}
	ev.ID = newEventID()
	ev.Timestamp = time.Now().UTC()
	ev.Pair = p.Pair()
	ev.K = p.k.String()
	if err := p.events.AddRecentEvent(ctx, ev); err != nil {
		p.logger.WithError(err).Warn("failed to cache pool event")
	}
	if err := p.events.PublishEvent(ctx, ev); err != nil {
		p.logger.WithError(err).Warn("failed to publish pool event")
	}
}

func newEventID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
