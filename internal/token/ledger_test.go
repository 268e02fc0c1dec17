package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	holder   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	spender  = common.HexToAddress("0x0000000000000000000000000000000000000002")
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func TestLedger_Transfer(t *testing.T) {
	l := NewLedger("WETH", 18, holder, big.NewInt(1000))

	require.NoError(t, l.Transfer(holder, receiver, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), l.BalanceOf(holder))
	assert.Equal(t, big.NewInt(400), l.BalanceOf(receiver))

	// Unknown accounts read as zero.
	assert.Equal(t, big.NewInt(0), l.BalanceOf(spender))
}

func TestLedger_Transfer_InsufficientBalance(t *testing.T) {
	l := NewLedger("WETH", 18, holder, big.NewInt(100))

	err := l.Transfer(holder, receiver, big.NewInt(101))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(100), l.BalanceOf(holder))
}

func TestLedger_TransferFrom(t *testing.T) {
	l := NewLedger("USDC", 18, holder, big.NewInt(1000))
	require.NoError(t, l.Approve(holder, spender, big.NewInt(300)))

	require.NoError(t, l.TransferFrom(spender, holder, receiver, big.NewInt(200)))
	assert.Equal(t, big.NewInt(800), l.BalanceOf(holder))
	assert.Equal(t, big.NewInt(200), l.BalanceOf(receiver))

	// The allowance is consumed, not reset.
	assert.Equal(t, big.NewInt(100), l.Allowance(holder, spender))

	err := l.TransferFrom(spender, holder, receiver, big.NewInt(101))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestLedger_TransferFrom_NoApproval(t *testing.T) {
	l := NewLedger("USDC", 18, holder, big.NewInt(1000))

	err := l.TransferFrom(spender, holder, receiver, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestLedger_NegativeAmount(t *testing.T) {
	l := NewLedger("WETH", 18, holder, big.NewInt(1000))

	assert.ErrorIs(t, l.Transfer(holder, receiver, big.NewInt(-1)), ErrNegativeAmount)
	assert.ErrorIs(t, l.Approve(holder, spender, nil), ErrNegativeAmount)
}

func TestLiquidityLedger_MintBurn(t *testing.T) {
	authority := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	l := NewLiquidityLedger("LPT", 18, authority)

	assert.Equal(t, big.NewInt(0), l.TotalSupply())

	require.NoError(t, l.Mint(authority, holder, big.NewInt(500)))
	assert.Equal(t, big.NewInt(500), l.TotalSupply())
	assert.Equal(t, big.NewInt(500), l.BalanceOf(holder))

	require.NoError(t, l.Burn(authority, holder, big.NewInt(200)))
	assert.Equal(t, big.NewInt(300), l.TotalSupply())
	assert.Equal(t, big.NewInt(300), l.BalanceOf(holder))
}

func TestLiquidityLedger_AuthorityOnly(t *testing.T) {
	authority := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	l := NewLiquidityLedger("LPT", 18, authority)

	assert.ErrorIs(t, l.Mint(holder, holder, big.NewInt(1)), ErrUnauthorized)
	assert.ErrorIs(t, l.Burn(holder, holder, big.NewInt(1)), ErrUnauthorized)
}

func TestLiquidityLedger_BurnExceedsBalance(t *testing.T) {
	authority := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	l := NewLiquidityLedger("LPT", 18, authority)
	require.NoError(t, l.Mint(authority, holder, big.NewInt(100)))

	err := l.Burn(authority, holder, big.NewInt(101))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(100), l.TotalSupply())
}
