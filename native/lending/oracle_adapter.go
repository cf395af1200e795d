package lending

import (
	"fmt"

	"lendcore/core/host"
	"lendcore/native/oracle"

	"github.com/holiman/uint256"
)

// OracleAdapter resolves asset prices through the oracle contract. A missing
// or zero price is reported as ErrPriceUnavailable so valuations never treat
// an unpriced asset as worthless.
type OracleAdapter struct {
	Oracle oracle.Client
	Via    host.Caller
}

var _ PriceSource = OracleAdapter{}

func (a OracleAdapter) Price(asset string) (*uint256.Int, error) {
	price, err := a.Oracle.PriceByAddress(a.Via, asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, asset, err)
	}
	if price.IsZero() {
		return nil, fmt.Errorf("%w: %s has no price", ErrPriceUnavailable, asset)
	}
	return price, nil
}

// StaticPrices is an in-memory PriceSource keyed by asset.
type StaticPrices map[string]*uint256.Int

func (p StaticPrices) Price(asset string) (*uint256.Int, error) {
	price, ok := p[asset]
	if !ok || price == nil || price.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
	}
	return price.Clone(), nil
}
