package token

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrUnauthorized          = errors.New("token: caller is not the pool authority")
	ErrNegativeAmount        = errors.New("token: amount must not be negative")
)

// Token is the fungible-asset collaborator consumed by the pool engine.
// Implementations run in-process, so mutating calls carry an explicit
// caller address in place of a transaction sender.
type Token interface {
	Symbol() string
	Decimals() uint8

	// BalanceOf returns the owner's current balance in native precision.
	BalanceOf(owner common.Address) *big.Int

	// Transfer moves amount from the caller's own balance to another owner.
	Transfer(caller, to common.Address, amount *big.Int) error

	// TransferFrom moves amount between two owners, spending the caller's
	// allowance granted by from.
	TransferFrom(caller, from, to common.Address, amount *big.Int) error

	// Approve sets the spender's allowance over the owner's balance.
	Approve(owner, spender common.Address, amount *big.Int) error

	// Allowance returns the remaining allowance from owner to spender.
	Allowance(owner, spender common.Address) *big.Int
}

// LiquidityToken is the pool-share receipt token. Mint and Burn are
// restricted to the pool that was named authority at construction.
type LiquidityToken interface {
	Token

	TotalSupply() *big.Int
	Mint(caller, to common.Address, amount *big.Int) error
	Burn(caller, from common.Address, amount *big.Int) error
}
