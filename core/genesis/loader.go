package genesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/native/lending"
	"lendcore/native/oracle"
	"lendcore/native/token"
	"lendcore/storage"
)

var markerKey = []byte("genesis/hash")

// Market holds the contracts deployed for one asset.
type Market struct {
	Symbol  string
	Token   crypto.Address
	AToken  crypto.Address
	Reserve crypto.Address
}

// Deployment lists every contract genesis created.
type Deployment struct {
	Operator   crypto.Address
	Liquidator crypto.Address
	Oracle     crypto.Address
	Pool       crypto.Address
	Markets    []Market
}

// Market returns the market for symbol.
func (d *Deployment) Market(symbol string) (Market, bool) {
	for _, m := range d.Markets {
		if m.Symbol == symbol {
			return m, true
		}
	}
	return Market{}, false
}

// Contracts pairs every address with the code that runs there.
func (d *Deployment) Contracts() map[string]host.Contract {
	out := map[string]host.Contract{
		d.Oracle.String(): oracle.New(),
		d.Pool.String():   lending.NewPool(),
	}
	for _, m := range d.Markets {
		out[m.Token.String()] = token.New()
		out[m.AToken.String()] = token.New()
		out[m.Reserve.String()] = lending.NewReserve()
	}
	return out
}

// Plan computes the addresses genesis uses for spec without deploying.
func Plan(spec *Spec) (*Deployment, *Spec, error) {
	norm, err := spec.normalized()
	if err != nil {
		return nil, nil, err
	}
	operator := crypto.MustDecodeAddress(norm.Operator)
	d := &Deployment{
		Operator:   operator,
		Liquidator: crypto.MustDecodeAddress(norm.Liquidator),
		Oracle:     crypto.ContractAddress(operator, "oracle"),
		Pool:       crypto.ContractAddress(operator, "pool"),
	}
	for _, a := range norm.Assets {
		d.Markets = append(d.Markets, Market{
			Symbol:  a.Symbol,
			Token:   crypto.ContractAddress(operator, "token/"+a.Symbol),
			AToken:  crypto.ContractAddress(operator, "atoken/"+a.Symbol),
			Reserve: crypto.ContractAddress(operator, "reserve/"+a.Symbol),
		})
	}
	return d, norm, nil
}

// Bootstrap deploys spec on a fresh database, or re-attaches contract code
// when db already holds the same genesis. db must be the database backing h.
func Bootstrap(ctx context.Context, h *host.Host, db storage.Database, spec *Spec, logger *slog.Logger) (*Deployment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hash, err := spec.Hash()
	if err != nil {
		return nil, err
	}
	stored, err := db.Get(markerKey)
	switch {
	case err == nil:
		if !bytes.Equal(stored, hash) {
			return nil, fmt.Errorf("%w: stored %x, spec %x", ErrMismatch, stored, hash)
		}
		d, err := Attach(h, spec)
		if err != nil {
			return nil, err
		}
		logger.Info("genesis attached", slog.String("pool", d.Pool.String()), slog.Int("markets", len(d.Markets)))
		return d, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("genesis: read marker: %w", err)
	}

	d, err := Build(ctx, h, spec)
	if err != nil {
		return nil, err
	}
	if err := db.Put(markerKey, hash); err != nil {
		return nil, fmt.Errorf("genesis: write marker: %w", err)
	}
	logger.Info("genesis deployed", slog.String("pool", d.Pool.String()), slog.Int("markets", len(d.Markets)))
	return d, nil
}

// Attach registers the code of an existing deployment without running
// constructors.
func Attach(h *host.Host, spec *Spec) (*Deployment, error) {
	d, _, err := Plan(spec)
	if err != nil {
		return nil, err
	}
	for addr, code := range d.Contracts() {
		if err := h.Register(crypto.MustDecodeAddress(addr), code); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Build deploys every contract of spec in a fixed order: oracle, pool, then
// per asset (sorted by symbol) token, receipt token and reserve, followed by
// price registration and reserve listing.
func Build(ctx context.Context, h *host.Host, spec *Spec) (*Deployment, error) {
	d, norm, err := Plan(spec)
	if err != nil {
		return nil, err
	}
	op := d.Operator
	session := host.NewSession(ctx, h, op)

	if err := h.Deploy(ctx, op, d.Oracle, oracle.New(), nil); err != nil {
		return nil, fmt.Errorf("genesis: oracle: %w", err)
	}
	poolArgs, err := lending.PoolConstructorArgs(norm.BorrowingLimitPercent, d.Oracle, d.Liquidator)
	if err != nil {
		return nil, err
	}
	if err := h.Deploy(ctx, op, d.Pool, lending.NewPool(), poolArgs); err != nil {
		return nil, fmt.Errorf("genesis: pool: %w", err)
	}
	oracleClient := oracle.Client{Address: d.Oracle}
	poolClient := lending.PoolClient{Address: d.Pool}

	for i, a := range norm.Assets {
		m := d.Markets[i]
		tokenArgs, err := token.ConstructorArgs(a.Name, a.Symbol, a.Decimals, "")
		if err != nil {
			return nil, err
		}
		if err := h.Deploy(ctx, op, m.Token, token.New(), tokenArgs); err != nil {
			return nil, fmt.Errorf("genesis: %s token: %w", a.Symbol, err)
		}
		supply, _ := amount(a.OperatorSupply)
		if !supply.IsZero() {
			if err := (token.Client{Address: m.Token}).Mint(session, op, supply); err != nil {
				return nil, fmt.Errorf("genesis: %s supply: %w", a.Symbol, err)
			}
		}
		aTokenArgs, err := token.ConstructorArgs("Lend "+a.Name, "a"+a.Symbol, a.Decimals, d.Pool.String())
		if err != nil {
			return nil, err
		}
		if err := h.Deploy(ctx, op, m.AToken, token.New(), aTokenArgs); err != nil {
			return nil, fmt.Errorf("genesis: %s receipt token: %w", a.Symbol, err)
		}
		seed, _ := amount(a.BorrowRateSeed)
		reserveArgs, err := lending.ReserveConstructorArgs(m.Token, m.AToken, d.Pool, seed)
		if err != nil {
			return nil, err
		}
		if err := h.Deploy(ctx, op, m.Reserve, lending.NewReserve(), reserveArgs); err != nil {
			return nil, fmt.Errorf("genesis: %s reserve: %w", a.Symbol, err)
		}
		price, _ := amount(a.Price)
		if err := oracleClient.AddToken(session, a.Symbol, m.Token.String(), price); err != nil {
			return nil, fmt.Errorf("genesis: %s price: %w", a.Symbol, err)
		}
		if err := poolClient.AddReserve(session, m.Token, m.Reserve); err != nil {
			return nil, fmt.Errorf("genesis: %s listing: %w", a.Symbol, err)
		}
	}
	return d, nil
}
