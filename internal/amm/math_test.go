package amm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad big.Int literal %q", s)
	return v
}

// eth converts a whole-unit amount into the 18-decimal representation.
func eth(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), pow10(18))
}

func TestScaleAmount(t *testing.T) {
	// Scaling up pads zeroes.
	assert.Equal(t, bigFromString(t, "123456000000000000"), scaleAmount(big.NewInt(123456), 6, 18))

	// Scaling down truncates toward zero, never rounds.
	assert.Equal(t, big.NewInt(123456), scaleAmount(bigFromString(t, "123456999999999999"), 18, 6))

	// Equal precisions return an independent copy.
	in := big.NewInt(42)
	out := scaleAmount(in, 18, 18)
	assert.Equal(t, in, out)
	out.SetInt64(7)
	assert.Equal(t, big.NewInt(42), in)
}

func TestConvertAmount(t *testing.T) {
	// 2 units priced against a 10/16000 pool:
	// 16000 * 2 / (10 + 2) = 2666.666... truncated at 18 decimals.
	got := convertAmount(eth(2), eth(10), eth(16000), 18, 18)
	assert.Equal(t, bigFromString(t, "2666666666666666666666"), got)
}

func TestConvertAmount_ZeroSendBalance(t *testing.T) {
	// With no send-side balance the formula collapses to the receive
	// balance itself.
	got := convertAmount(eth(2), big.NewInt(0), eth(16000), 18, 18)
	assert.Equal(t, eth(16000), got)
}

func TestSwapReceiveAmount(t *testing.T) {
	// 10/20000 pool, send 2 of the 10-side:
	// k = 10*20000, receive = 20000 - k/(10+2). The truncated division
	// leaves the remainder inside the pool, so the payout ends in ...334.
	got := swapReceiveAmount(eth(2), eth(10), eth(20000), 18, 18)
	assert.Equal(t, bigFromString(t, "3333333333333333333334"), got)
}

func TestSwapReceiveAmount_MixedDecimals(t *testing.T) {
	// 6-decimal receive side: same ratio, payout truncated to 6 decimals.
	usdc := func(units int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(units), pow10(6))
	}
	got := swapReceiveAmount(eth(2), eth(10), usdc(20000), 18, 6)
	assert.Equal(t, bigFromString(t, "3333333333"), got)
}

func TestExecutionPrice(t *testing.T) {
	// Sending 2 for 2666.666...666 prices at exactly 0.00075.
	receive := bigFromString(t, "2666666666666666666666")
	assert.Equal(t, bigFromString(t, "750000000000000"), executionPrice(eth(2), receive, 18, 18))

	// Zero receive reports a zero price rather than dividing by zero.
	assert.Equal(t, new(big.Int), executionPrice(eth(2), big.NewInt(0), 18, 18))
}

func TestPriceConstant(t *testing.T) {
	// 12 * 24000 at the 36-decimal invariant scale.
	want := new(big.Int).Mul(big.NewInt(288000), pow10(36))
	assert.Equal(t, want, priceConstant(eth(12), eth(24000), 18, 18))

	// Either side empty collapses the invariant to zero.
	assert.Equal(t, new(big.Int).Sign(), priceConstant(big.NewInt(0), eth(24000), 18, 18).Sign())
}

func TestMulPercent(t *testing.T) {
	half := bigFromString(t, "500000000000000000")
	assert.Equal(t, eth(6), mulPercent(eth(12), half))

	// Truncates: 50% of 3 wei is 1 wei.
	assert.Equal(t, big.NewInt(1), mulPercent(big.NewInt(3), half))
}
