package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is an in-process fungible token: a keyed balance/allowance table
// guarded by a single lock. It is the hosting environment's stand-in for
// the external asset contracts the pool trades against, and provides the
// atomic value transfer the engine relies on.
type Ledger struct {
	symbol   string
	decimals uint8

	mu         sync.RWMutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewLedger creates a ledger and credits the full initial supply to the
// given holder.
func NewLedger(symbol string, decimals uint8, holder common.Address, initialSupply *big.Int) *Ledger {
	l := &Ledger{
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
	if initialSupply != nil && initialSupply.Sign() > 0 {
		l.balances[holder] = new(big.Int).Set(initialSupply)
	}
	return l
}

func (l *Ledger) Symbol() string  { return l.symbol }
func (l *Ledger) Decimals() uint8 { return l.decimals }

func (l *Ledger) BalanceOf(owner common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(owner)
}

func (l *Ledger) balanceLocked(owner common.Address) *big.Int {
	if b, ok := l.balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *Ledger) Transfer(caller, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(caller, to, amount)
}

func (l *Ledger) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowanceLocked(from, caller)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allowance %s < %s", ErrInsufficientAllowance, l.symbol, allowed, amount)
	}
	if err := l.moveLocked(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][caller] = allowed.Sub(allowed, amount)
	return nil
}

func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.allowanceLocked(owner, spender))
}

func (l *Ledger) allowanceLocked(owner, spender common.Address) *big.Int {
	if m, ok := l.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int)
	return l.allowances[owner][spender]
}

// moveLocked debits from and credits to. Callers hold the write lock.
func (l *Ledger) moveLocked(from, to common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	bal := l.balanceLocked(from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s balance %s < %s", ErrInsufficientBalance, l.symbol, bal, amount)
	}

	l.balances[from] = bal.Sub(bal, amount)
	dst := l.balanceLocked(to)
	l.balances[to] = dst.Add(dst, amount)
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}
