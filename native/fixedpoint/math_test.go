package fixedpoint

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func maxUint256() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    *uint256.Int
		want    *uint256.Int
		wantErr error
	}{
		{"small", uint256.NewInt(2), uint256.NewInt(3), uint256.NewInt(5), nil},
		{"zero", uint256.NewInt(0), uint256.NewInt(0), uint256.NewInt(0), nil},
		{"max plus zero", maxUint256(), uint256.NewInt(0), maxUint256(), nil},
		{"max plus one", maxUint256(), uint256.NewInt(1), nil, ErrArithmeticOverflow},
		{"near max", new(uint256.Int).Sub(maxUint256(), uint256.NewInt(5)), uint256.NewInt(6), nil, ErrArithmeticOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
			}
			if tt.want != nil && !got.Eq(tt.want) {
				t.Fatalf("Add() = %s, want %s", got.Dec(), tt.want.Dec())
			}
		})
	}
}

func TestSub(t *testing.T) {
	got, err := Sub(uint256.NewInt(10), uint256.NewInt(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 6 {
		t.Fatalf("expected 6, got %s", got.Dec())
	}
	if _, err := Sub(uint256.NewInt(4), uint256.NewInt(10)); !errors.Is(err, ErrArithmeticUnderflow) {
		t.Fatalf("expected ErrArithmeticUnderflow, got %v", err)
	}
}

func TestMul(t *testing.T) {
	half := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	if _, err := Mul(half, half); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for 2^128 * 2^128, got %v", err)
	}
	if _, err := Mul(maxUint256(), uint256.NewInt(2)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for max*2, got %v", err)
	}
	got, err := Mul(maxUint256(), uint256.NewInt(1))
	if err != nil || !got.Eq(maxUint256()) {
		t.Fatalf("max*1 = %v, %v", got, err)
	}
	got, err = Mul(maxUint256(), uint256.NewInt(0))
	if err != nil || !got.IsZero() {
		t.Fatalf("max*0 = %v, %v", got, err)
	}
}

func TestDivTruncates(t *testing.T) {
	got, err := Div(uint256.NewInt(7), uint256.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 3 {
		t.Fatalf("expected 3, got %s", got.Dec())
	}
	if _, err := Div(uint256.NewInt(7), uint256.NewInt(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestInputsNotMutated(t *testing.T) {
	a := uint256.NewInt(9)
	b := uint256.NewInt(4)
	if _, err := Add(a, b); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := MulDiv(a, b, uint256.NewInt(3)); err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if a.Uint64() != 9 || b.Uint64() != 4 {
		t.Fatalf("inputs mutated: a=%s b=%s", a.Dec(), b.Dec())
	}
}

func TestPow10(t *testing.T) {
	got, err := Pow10(18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dec() != "1000000000000000000" {
		t.Fatalf("unexpected 10^18: %s", got.Dec())
	}
	if _, err := Pow10(78); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow for 10^78, got %v", err)
	}
}
