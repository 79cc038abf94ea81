// Package money implements the canonical-unit and decibasis-point arithmetic
// shared by every component that moves value across chains. Every amount that
// crosses a component boundary inside the engine is an unsigned base-10
// integer string or *big.Int in 18-decimal ("eighteen-dec") units; conversion
// to a token's native decimals happens only at adapter boundaries.
package money

import (
	"math/big"
)

// DbpsScale is the decibasis-point scale: 100% = 1e7 dBps, so 1% = 100000 dBps
// and 1 bps = 1000 dBps.
const DbpsScale = 1e7

// CanonicalDecimals is the number of decimals every cross-component amount is
// expressed in.
const CanonicalDecimals = 18

var ten = big.NewInt(10)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

// ToNative converts an 18-decimal amount to a token's native-decimals amount.
// Truncates towards zero when decimals < 18; pads with zeros when decimals > 18.
func ToNative(amount18 *big.Int, decimals int) *big.Int {
	if decimals == CanonicalDecimals {
		return new(big.Int).Set(amount18)
	}
	if decimals < CanonicalDecimals {
		div := pow10(CanonicalDecimals - decimals)
		return new(big.Int).Quo(amount18, div)
	}
	mul := pow10(decimals - CanonicalDecimals)
	return new(big.Int).Mul(amount18, mul)
}

// To18 converts a native-decimals amount to the 18-decimal canonical unit.
func To18(native *big.Int, decimals int) *big.Int {
	if decimals == CanonicalDecimals {
		return new(big.Int).Set(native)
	}
	if decimals < CanonicalDecimals {
		mul := pow10(CanonicalDecimals - decimals)
		return new(big.Int).Mul(native, mul)
	}
	div := pow10(decimals - CanonicalDecimals)
	return new(big.Int).Quo(native, div)
}

// AmountBelowFee is returned by ApplyFee when amount <= fee.
type AmountBelowFee struct {
	Amount *big.Int
	Fee    *big.Int
}

func (e *AmountBelowFee) Error() string {
	return "amount " + e.Amount.String() + " is at or below fee " + e.Fee.String()
}

// ApplyFee subtracts fee from amount, failing when amount <= fee.
func ApplyFee(amount, fee *big.Int) (*big.Int, error) {
	if amount.Cmp(fee) <= 0 {
		return nil, &AmountBelowFee{Amount: amount, Fee: fee}
	}
	return new(big.Int).Sub(amount, fee), nil
}

// SlippageDbps computes (sent-received)*1e7/sent in decibasis-points. A
// received amount greater than or equal to sent yields zero rather than a
// negative rate.
func SlippageDbps(sent, received *big.Int) uint32 {
	if sent.Sign() <= 0 || received.Cmp(sent) >= 0 {
		return 0
	}
	diff := new(big.Int).Sub(sent, received)
	scaled := new(big.Int).Mul(diff, big.NewInt(DbpsScale))
	dbps := new(big.Int).Quo(scaled, sent)
	if !dbps.IsUint64() || dbps.Uint64() > 0xFFFFFFFF {
		return 0xFFFFFFFF
	}
	return uint32(dbps.Uint64())
}

// ComputeMinAcceptable returns amount - amount*dBps/1e7.
func ComputeMinAcceptable(amount *big.Int, dBps uint32) *big.Int {
	scaled := new(big.Int).Mul(amount, big.NewInt(int64(dBps)))
	loss := new(big.Int).Quo(scaled, big.NewInt(DbpsScale))
	return new(big.Int).Sub(amount, loss)
}

// GrossUpForSlippage returns the send amount required so that, after losing
// up to budgetDbps in transit, the receiver still nets shortfall:
// shortfall * 1e7 / (1e7 - budgetDbps).
func GrossUpForSlippage(shortfall *big.Int, budgetDbps uint32) *big.Int {
	denom := big.NewInt(DbpsScale - int64(budgetDbps))
	if denom.Sign() <= 0 {
		return new(big.Int).Set(shortfall)
	}
	scaled := new(big.Int).Mul(shortfall, big.NewInt(DbpsScale))
	out := new(big.Int).Quo(scaled, denom)
	// Quo truncates toward zero; round up so the gross-up never under-shoots.
	rem := new(big.Int).Mod(scaled, denom)
	if rem.Sign() != 0 {
		out.Add(out, big.NewInt(1))
	}
	return out
}

// RoundToPrecision truncates an 18-decimal amount to `precision` fractional
// digits as seen in the token's native decimals, never rounding up (a CEX
// withdrawal API must never be asked to send more than was computed).
func RoundToPrecision(amount18 *big.Int, decimals, precision int) *big.Int {
	if precision >= decimals {
		return new(big.Int).Set(amount18)
	}
	native := ToNative(amount18, decimals)
	droppedDigits := decimals - precision
	div := pow10(droppedDigits)
	truncated := new(big.Int).Quo(native, div)
	truncated.Mul(truncated, div)
	return To18(truncated, decimals)
}

// AddDecimalStrings adds two base-10 integer strings, used when merging
// externally-supplied amounts before they are parsed into *big.Int elsewhere.
func AddDecimalStrings(a, b string) (string, error) {
	aa, ok := new(big.Int).SetString(a, 10)
	if !ok {
		return "", &parseError{value: a}
	}
	bb, ok := new(big.Int).SetString(b, 10)
	if !ok {
		return "", &parseError{value: b}
	}
	return new(big.Int).Add(aa, bb).String(), nil
}

type parseError struct{ value string }

func (e *parseError) Error() string { return "invalid decimal string: " + e.value }

// Zero reports whether a *big.Int amount is nil or zero.
func Zero(amount *big.Int) bool {
	return amount == nil || amount.Sign() == 0
}

// Max returns the larger of two big.Int values.
func Max(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// ParseAmount parses a base-10 integer string into a *big.Int, rejecting
// negative and malformed values.
func ParseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, &parseError{value: s}
	}
	return n, nil
}
