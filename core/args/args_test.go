package args

import (
	"errors"
	"testing"

	"lendcore/crypto"

	"github.com/holiman/uint256"
)

func TestPositionalFields(t *testing.T) {
	addr := crypto.NewAddress(crypto.AccountPrefix, make([]byte, 20))
	big := new(uint256.Int).SetAllOne()
	input, err := New().
		AddU256(big).
		AddAddress(addr).
		AddU64(18).
		AddBool(true).
		AddStrings([]string{"ETH", "USDC"}).
		AddBytes([]byte{0x01, 0x02}).
		Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	r := NewReader(input)
	if got := r.U256(); !got.Eq(big) {
		t.Fatalf("u256 = %s", got.Dec())
	}
	if got := r.Address(); !got.Equal(addr) {
		t.Fatalf("address = %s", got)
	}
	if got := r.U64(); got != 18 {
		t.Fatalf("u64 = %d", got)
	}
	if !r.Bool() {
		t.Fatalf("bool = false")
	}
	if got := r.Strings(); len(got) != 2 || got[1] != "USDC" {
		t.Fatalf("strings = %v", got)
	}
	if got := r.Bytes(); len(got) != 2 || got[1] != 0x02 {
		t.Fatalf("bytes = %x", got)
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestReaderErrors(t *testing.T) {
	input := New().AddString("only").MustEncode()

	r := NewReader(input)
	_ = r.String()
	_ = r.U256()
	if err := r.Finish(); !errors.Is(err, ErrMalformedArgs) {
		t.Fatalf("expected ErrMalformedArgs reading past end, got %v", err)
	}

	r = NewReader(input)
	if err := r.Finish(); !errors.Is(err, ErrMalformedArgs) {
		t.Fatalf("expected trailing field error, got %v", err)
	}

	r = NewReader(input)
	_ = r.Address()
	if !errors.Is(r.Err(), ErrMalformedArgs) {
		t.Fatalf("expected invalid address error, got %v", r.Err())
	}

	r = NewReader(nil)
	if err := r.Finish(); err != nil {
		t.Fatalf("empty input should finish cleanly: %v", err)
	}
	_ = r.U64()
	if !errors.Is(r.Err(), ErrMalformedArgs) {
		t.Fatalf("expected error reading from empty input")
	}

	r = NewReader([]byte{0xff, 0x00})
	if !errors.Is(r.Err(), ErrMalformedArgs) {
		t.Fatalf("expected error for garbage input, got %v", r.Err())
	}
}
