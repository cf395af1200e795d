// Package args implements the positional binary encoding used for contract
// inputs and results: ordered fields framed as a single RLP list.
package args

import (
	"bytes"
	"errors"
	"fmt"

	"lendcore/crypto"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// ErrMalformedArgs is returned when an input does not match the expected layout.
var ErrMalformedArgs = errors.New("args: malformed arguments")

// Builder accumulates positional fields.
type Builder struct {
	fields []interface{}
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

func (b *Builder) AddString(s string) *Builder {
	b.fields = append(b.fields, s)
	return b
}

func (b *Builder) AddAddress(addr crypto.Address) *Builder {
	return b.AddString(addr.String())
}

func (b *Builder) AddU256(v *uint256.Int) *Builder {
	if v == nil {
		v = new(uint256.Int)
	}
	b.fields = append(b.fields, v.ToBig())
	return b
}

func (b *Builder) AddU64(v uint64) *Builder {
	b.fields = append(b.fields, v)
	return b
}

func (b *Builder) AddBool(v bool) *Builder {
	b.fields = append(b.fields, v)
	return b
}

func (b *Builder) AddBytes(p []byte) *Builder {
	b.fields = append(b.fields, append([]byte{}, p...))
	return b
}

func (b *Builder) AddStrings(list []string) *Builder {
	if list == nil {
		list = []string{}
	}
	b.fields = append(b.fields, append([]string{}, list...))
	return b
}

// Len reports the number of fields added so far.
func (b *Builder) Len() int { return len(b.fields) }

// Encode serialises the fields. The signature matches contract method
// results so handlers can return it directly.
func (b *Builder) Encode() ([]byte, error) {
	fields := b.fields
	if fields == nil {
		fields = []interface{}{}
	}
	return rlp.EncodeToBytes(fields)
}

// MustEncode panics if encoding fails.
func (b *Builder) MustEncode() []byte {
	out, err := b.Encode()
	if err != nil {
		panic(err)
	}
	return out
}

// Reader consumes positional fields in order. The first failure sticks and
// is reported by Err and Finish; later reads return zero values.
type Reader struct {
	stream *rlp.Stream
	empty  bool
	index  int
	err    error
}

// NewReader opens input for reading. A nil or empty input carries no fields.
func NewReader(input []byte) *Reader {
	r := &Reader{}
	if len(input) == 0 {
		r.empty = true
		return r
	}
	r.stream = rlp.NewStream(bytes.NewReader(input), uint64(len(input)))
	if _, err := r.stream.List(); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrMalformedArgs, err)
	}
	return r
}

func (r *Reader) fail(kind string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: field %d (%s): %v", ErrMalformedArgs, r.index, kind, err)
	}
}

func (r *Reader) ready(kind string) bool {
	if r.err != nil {
		return false
	}
	if r.empty {
		r.fail(kind, errors.New("no fields"))
		return false
	}
	return true
}

func (r *Reader) String() string {
	if !r.ready("string") {
		return ""
	}
	raw, err := r.stream.Bytes()
	if err != nil {
		r.fail("string", err)
		return ""
	}
	r.index++
	return string(raw)
}

func (r *Reader) Address() crypto.Address {
	raw := r.String()
	if r.err != nil {
		return crypto.Address{}
	}
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		r.err = fmt.Errorf("%w: field %d (address): %v", ErrMalformedArgs, r.index-1, err)
		return crypto.Address{}
	}
	return addr
}

func (r *Reader) U256() *uint256.Int {
	if !r.ready("u256") {
		return new(uint256.Int)
	}
	raw, err := r.stream.BigInt()
	if err != nil {
		r.fail("u256", err)
		return new(uint256.Int)
	}
	v, overflow := uint256.FromBig(raw)
	if overflow {
		r.fail("u256", errors.New("value exceeds 256 bits"))
		return new(uint256.Int)
	}
	r.index++
	return v
}

func (r *Reader) U64() uint64 {
	if !r.ready("u64") {
		return 0
	}
	v, err := r.stream.Uint64()
	if err != nil {
		r.fail("u64", err)
		return 0
	}
	r.index++
	return v
}

func (r *Reader) Bool() bool {
	if !r.ready("bool") {
		return false
	}
	v, err := r.stream.Bool()
	if err != nil {
		r.fail("bool", err)
		return false
	}
	r.index++
	return v
}

func (r *Reader) Bytes() []byte {
	if !r.ready("bytes") {
		return nil
	}
	v, err := r.stream.Bytes()
	if err != nil {
		r.fail("bytes", err)
		return nil
	}
	r.index++
	return v
}

func (r *Reader) Strings() []string {
	if !r.ready("strings") {
		return nil
	}
	var list []string
	if err := r.stream.Decode(&list); err != nil {
		r.fail("strings", err)
		return nil
	}
	r.index++
	return list
}

// Err returns the first decoding failure.
func (r *Reader) Err() error { return r.err }

// Finish reports the first failure or, when every read succeeded, whether
// unread fields remain.
func (r *Reader) Finish() error {
	if r.err != nil || r.empty {
		return r.err
	}
	if err := r.stream.ListEnd(); err != nil {
		return fmt.Errorf("%w: unexpected trailing fields after %d", ErrMalformedArgs, r.index)
	}
	return nil
}
