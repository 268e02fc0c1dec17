package amm

import "math/big"

// Fixed-point scales. Amounts cross into the 18-decimal accounting scale
// at every boundary; the price constant lives at 36 decimals so that the
// product of two 18-decimal reserves lands on it exactly. All math is
// integer-only and truncates toward zero.
const (
	AccountingDecimals = 18
	InvariantDecimals  = 36
)

var (
	oneEth = pow10(AccountingDecimals) // 1e18, the accounting unit
	two    = big.NewInt(2)
)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// scaleAmount converts an amount between decimal precisions: multiply up,
// divide (truncating) down. Truncation always rounds toward zero so a
// precision change can never manufacture value.
func scaleAmount(amount *big.Int, fromDecimals, toDecimals uint8) *big.Int {
	out := new(big.Int).Set(amount)
	switch {
	case toDecimals > fromDecimals:
		out.Mul(out, pow10(int(toDecimals-fromDecimals)))
	case toDecimals < fromDecimals:
		out.Quo(out, pow10(int(fromDecimals-toDecimals)))
	}
	return out
}

// priceConstant computes k = reservePrimary * reserveSecondary with both
// reserves first rescaled to the accounting precision, landing the
// product at the 36-decimal invariant scale.
func priceConstant(reservePrimary, reserveSecondary *big.Int, primaryDecimals, secondaryDecimals uint8) *big.Int {
	p := scaleAmount(reservePrimary, primaryDecimals, AccountingDecimals)
	s := scaleAmount(reserveSecondary, secondaryDecimals, AccountingDecimals)
	return p.Mul(p, s)
}

// swapReceiveAmount computes the constant-product swap output:
//
//	receive = receiveBalance - k' / (sendBalance + sendAmount)
//
// with k' taken over the pre-transfer balances at the invariant scale.
// The result is truncated down to the receive asset's native precision.
func swapReceiveAmount(sendAmount, sendBalance, receiveBalance *big.Int, sendDecimals, receiveDecimals uint8) *big.Int {
	send := scaleAmount(sendAmount, sendDecimals, AccountingDecimals)
	sendBal := scaleAmount(sendBalance, sendDecimals, AccountingDecimals)
	recvBal := scaleAmount(receiveBalance, receiveDecimals, AccountingDecimals)

	k := new(big.Int).Mul(sendBal, recvBal)
	denom := new(big.Int).Add(sendBal, send)
	receive := new(big.Int).Sub(recvBal, k.Quo(k, denom))

	return scaleAmount(receive, AccountingDecimals, receiveDecimals)
}

// convertAmount prices an amount of the send asset in units of the
// receive asset against current balances:
//
//	converted = receiveBalance * amount / (sendBalance + amount)
//
// When the send balance is zero this degenerates to the receive balance
// itself, matching the original conversion behavior.
func convertAmount(amount, sendBalance, receiveBalance *big.Int, sendDecimals, receiveDecimals uint8) *big.Int {
	send := scaleAmount(amount, sendDecimals, AccountingDecimals)
	sendBal := scaleAmount(sendBalance, sendDecimals, AccountingDecimals)
	recvBal := scaleAmount(receiveBalance, receiveDecimals, AccountingDecimals)

	num := new(big.Int).Mul(recvBal, send)
	denom := new(big.Int).Add(sendBal, send)
	converted := num.Quo(num, denom)

	return scaleAmount(converted, AccountingDecimals, receiveDecimals)
}

// executionPrice reports the send/receive ratio of a swap at the
// accounting scale. Observability only; settlement never reads it.
func executionPrice(sendAmount, receiveAmount *big.Int, sendDecimals, receiveDecimals uint8) *big.Int {
	recv := scaleAmount(receiveAmount, receiveDecimals, AccountingDecimals)
	if recv.Sign() == 0 {
		return new(big.Int)
	}
	send := scaleAmount(sendAmount, sendDecimals, AccountingDecimals)
	price := new(big.Int).Mul(send, oneEth)
	return price.Quo(price, recv)
}

// mulPercent applies an 1e18-scaled percentage to a value, truncating.
func mulPercent(value, percent *big.Int) *big.Int {
	out := new(big.Int).Mul(value, percent)
	return out.Quo(out, oneEth)
}
