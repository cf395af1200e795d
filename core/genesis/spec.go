// Package genesis deploys the initial contract set of a lending market:
// one oracle, one pool and a token, receipt token and reserve per asset.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lendcore/config"
	"lendcore/crypto"
	"lendcore/native/fixedpoint"
	"lendcore/native/token"

	"github.com/holiman/uint256"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidSpec = errors.New("genesis: invalid spec")
	ErrMismatch    = errors.New("genesis: stored genesis does not match spec")
)

// Spec is the deterministic input to Build.
type Spec struct {
	Operator              string      `json:"operator" yaml:"operator"`
	Liquidator            string      `json:"liquidator,omitempty" yaml:"liquidator,omitempty"`
	BorrowingLimitPercent uint64      `json:"borrowingLimitPercent" yaml:"borrowingLimitPercent"`
	Assets                []AssetSpec `json:"assets" yaml:"assets"`
}

type AssetSpec struct {
	Symbol         string `json:"symbol" yaml:"symbol"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	Decimals       uint32 `json:"decimals" yaml:"decimals"`
	Price          string `json:"price" yaml:"price"`
	BorrowRateSeed string `json:"borrowRateSeed,omitempty" yaml:"borrowRateSeed,omitempty"`
	OperatorSupply string `json:"operatorSupply,omitempty" yaml:"operatorSupply,omitempty"`
}

// FromConfig derives the spec of a node whose operator key is operator.
func FromConfig(cfg *config.Config, operator crypto.Address) *Spec {
	spec := &Spec{
		Operator:              operator.String(),
		Liquidator:            cfg.Pool.Liquidator,
		BorrowingLimitPercent: cfg.Pool.BorrowingLimitPercent,
	}
	for _, a := range cfg.Assets {
		spec.Assets = append(spec.Assets, AssetSpec{
			Symbol:         a.Symbol,
			Name:           a.Name,
			Decimals:       a.Decimals,
			Price:          a.Price,
			BorrowRateSeed: a.BorrowRateSeed,
			OperatorSupply: a.OperatorSupply,
		})
	}
	return spec
}

// normalized returns a copy with symbols upper-cased and assets sorted, the
// form that is hashed and deployed.
func (s *Spec) normalized() (*Spec, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrInvalidSpec)
	}
	out := *s
	out.Operator = strings.TrimSpace(s.Operator)
	out.Liquidator = strings.TrimSpace(s.Liquidator)
	if out.Liquidator == "" {
		out.Liquidator = out.Operator
	}
	for _, addr := range []string{out.Operator, out.Liquidator} {
		if err := parseAccount(addr); err != nil {
			return nil, err
		}
	}
	if out.BorrowingLimitPercent == 0 || out.BorrowingLimitPercent > 100 {
		return nil, fmt.Errorf("%w: borrowing limit %d", ErrInvalidSpec, out.BorrowingLimitPercent)
	}
	out.Assets = make([]AssetSpec, len(s.Assets))
	seen := make(map[string]struct{}, len(s.Assets))
	for i, a := range s.Assets {
		a.Symbol = strings.ToUpper(canonical(a.Symbol))
		a.Name = canonical(a.Name)
		if a.Symbol == "" {
			return nil, fmt.Errorf("%w: asset %d has no symbol", ErrInvalidSpec, i)
		}
		if _, dup := seen[a.Symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate asset %s", ErrInvalidSpec, a.Symbol)
		}
		seen[a.Symbol] = struct{}{}
		if a.Name == "" {
			a.Name = a.Symbol
		}
		if a.Decimals > token.MaxDecimals {
			return nil, fmt.Errorf("%w: %s decimals %d", ErrInvalidSpec, a.Symbol, a.Decimals)
		}
		price, err := amount(a.Price)
		if err != nil || price.IsZero() {
			return nil, fmt.Errorf("%w: %s price %q", ErrInvalidSpec, a.Symbol, a.Price)
		}
		if _, err := amount(a.BorrowRateSeed); err != nil {
			return nil, fmt.Errorf("%w: %s borrow rate seed: %v", ErrInvalidSpec, a.Symbol, err)
		}
		if _, err := amount(a.OperatorSupply); err != nil {
			return nil, fmt.Errorf("%w: %s operator supply: %v", ErrInvalidSpec, a.Symbol, err)
		}
		out.Assets[i] = a
	}
	sort.Slice(out.Assets, func(i, j int) bool { return out.Assets[i].Symbol < out.Assets[j].Symbol })
	return &out, nil
}

// Hash identifies a normalized spec.
func (s *Spec) Hash() ([]byte, error) {
	norm, err := s.normalized()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(norm)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256([]byte("lendcore/genesis"), raw), nil
}

func parseAccount(addr string) error {
	decoded, err := crypto.DecodeAddress(addr)
	if err != nil {
		return fmt.Errorf("%w: account %q: %v", ErrInvalidSpec, addr, err)
	}
	if decoded.Prefix() != crypto.AccountPrefix {
		return fmt.Errorf("%w: %s is not an account address", ErrInvalidSpec, addr)
	}
	return nil
}

func amount(raw string) (*uint256.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return new(uint256.Int), nil
	}
	return fixedpoint.Parse(raw)
}

// canonical folds compatibility forms (full-width letters, ligatures) so that
// visually identical symbols collide.
func canonical(raw string) string {
	return norm.NFKC.String(strings.TrimSpace(raw))
}
