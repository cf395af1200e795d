// Package fixedpoint provides checked 256-bit unsigned arithmetic for balance
// and rate computations. Every helper returns a freshly allocated result and
// never mutates its inputs.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrArithmeticOverflow  = errors.New("fixedpoint: arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("fixedpoint: arithmetic underflow")
	ErrDivisionByZero      = errors.New("fixedpoint: division by zero")
)

// clone copies v, treating nil as zero.
func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// Add returns a+b or ErrArithmeticOverflow when the sum wraps.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(clone(a), clone(b))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return out, nil
}

// Sub returns a-b or ErrArithmeticUnderflow when b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	out, underflow := new(uint256.Int).SubOverflow(clone(a), clone(b))
	if underflow {
		return nil, ErrArithmeticUnderflow
	}
	return out, nil
}

// Mul returns a*b or ErrArithmeticOverflow when the product exceeds 256 bits.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulOverflow(clone(a), clone(b))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return out, nil
}

// Div returns a/b truncated toward zero.
func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b == nil || b.IsZero() {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(clone(a), b), nil
}

// MulDiv returns a*b/d with the intermediate product overflow-checked.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	product, err := Mul(a, b)
	if err != nil {
		return nil, err
	}
	return Div(product, d)
}

// Pow10 returns 10^exp, failing once the result no longer fits.
func Pow10(exp uint32) (*uint256.Int, error) {
	out := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint32(0); i < exp; i++ {
		next, err := Mul(out, ten)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// Min returns a copy of the smaller operand.
func Min(a, b *uint256.Int) *uint256.Int {
	if clone(a).Lt(clone(b)) {
		return clone(a)
	}
	return clone(b)
}

// Parse decodes a base-10 string into a 256-bit integer.
func Parse(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}
