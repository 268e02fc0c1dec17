package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// LiquidityLedger is the pool-share token: a Ledger plus a tracked total
// supply and mint/burn restricted to the pool authority, mirroring the
// minter/burner role grants of the on-chain original.
type LiquidityLedger struct {
	*Ledger

	authority common.Address

	supplyMu sync.RWMutex
	supply   *big.Int
}

// NewLiquidityLedger creates an LP token ledger with zero supply. Only the
// authority address may mint and burn.
func NewLiquidityLedger(symbol string, decimals uint8, authority common.Address) *LiquidityLedger {
	return &LiquidityLedger{
		Ledger:    NewLedger(symbol, decimals, common.Address{}, nil),
		authority: authority,
		supply:    new(big.Int),
	}
}

func (l *LiquidityLedger) TotalSupply() *big.Int {
	l.supplyMu.RLock()
	defer l.supplyMu.RUnlock()
	return new(big.Int).Set(l.supply)
}

func (l *LiquidityLedger) Mint(caller, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if caller != l.authority {
		return fmt.Errorf("%w: mint by %s", ErrUnauthorized, caller.Hex())
	}

	l.mu.Lock()
	bal := l.balanceLocked(to)
	l.balances[to] = bal.Add(bal, amount)
	l.mu.Unlock()

	l.supplyMu.Lock()
	l.supply.Add(l.supply, amount)
	l.supplyMu.Unlock()
	return nil
}

func (l *LiquidityLedger) Burn(caller, from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if caller != l.authority {
		return fmt.Errorf("%w: burn by %s", ErrUnauthorized, caller.Hex())
	}

	l.mu.Lock()
	bal := l.balanceLocked(from)
	if bal.Cmp(amount) < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s balance %s < %s", ErrInsufficientBalance, l.symbol, bal, amount)
	}
	l.balances[from] = bal.Sub(bal, amount)
	l.mu.Unlock()

	l.supplyMu.Lock()
	l.supply.Sub(l.supply, amount)
	l.supplyMu.Unlock()
	return nil
}
