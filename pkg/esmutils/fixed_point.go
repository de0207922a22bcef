package esmutils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrNotHex      = errors.New("not a hexadecimal value")
	ErrZeroDivisor = errors.New("divisor is zero")
)

// ParseHex reads a base-16 meter field such as "0x000254".
// The 0x prefix is optional, width is unbounded.
func ParseHex(s string) (*big.Int, error) {
	digits := strings.TrimSpace(s)
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return nil, fmt.Errorf("%w: %q", ErrNotHex, s)
	}

	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotHex, s)
	}
	return n, nil
}

// ScaleRound computes (value * multiplier) / divisor rounded to digits
// decimal places, half to even, on the exact quotient.
func ScaleRound(value, multiplier, divisor *big.Int, digits int) (float64, error) {
	if divisor.Sign() == 0 {
		return 0, ErrZeroDivisor
	}
	product := new(big.Int).Mul(value, multiplier)
	return RoundHalfEven(new(big.Rat).SetFrac(product, divisor), digits), nil
}

// RoundHalfEven rounds r to digits decimal places and returns the nearest float64.
func RoundHalfEven(r *big.Rat, digits int) float64 {
	if digits < 0 {
		digits = 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)

	num := new(big.Int).Mul(r.Num(), scale)
	den := r.Denom()

	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Sign() != 0 {
		twice := new(big.Int).Abs(rem)
		twice.Lsh(twice, 1)

		cmp := twice.Cmp(den)
		if cmp > 0 || (cmp == 0 && q.Bit(0) == 1) {
			if num.Sign() < 0 {
				q.Sub(q, big.NewInt(1))
			} else {
				q.Add(q, big.NewInt(1))
			}
		}
	}

	f, _ := new(big.Rat).SetFrac(q, scale).Float64()
	return f
}
