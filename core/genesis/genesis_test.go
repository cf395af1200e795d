package genesis

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/native/lending"
	"lendcore/native/token"
	"lendcore/storage"
)

func operator() crypto.Address {
	return crypto.NewAddress(crypto.AccountPrefix, bytes.Repeat([]byte{0x07}, 20))
}

func testSpec() *Spec {
	return &Spec{
		Operator:              operator().String(),
		BorrowingLimitPercent: 75,
		Assets: []AssetSpec{
			{Symbol: "weth", Decimals: 18, Price: "2500", OperatorSupply: "1000"},
			{Symbol: "USDC", Name: "USD Coin", Decimals: 6, Price: "1", BorrowRateSeed: "7"},
		},
	}
}

func TestBuildDeploysMarkets(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemDB()
	h := host.New(db, host.WithClock(host.NewManualClock(1_000)))

	d, err := Bootstrap(ctx, h, db, testSpec(), nil)
	require.NoError(t, err)
	require.Len(t, d.Markets, 2)
	require.Equal(t, "USDC", d.Markets[0].Symbol)
	require.Equal(t, "WETH", d.Markets[1].Symbol)
	require.True(t, d.Liquidator.Equal(operator()))

	reader := host.NewSession(ctx, h, operator()).Reader()
	pool := lending.PoolClient{Address: d.Pool}
	assets, err := pool.Assets(reader)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{d.Markets[0].Token.String(), d.Markets[1].Token.String()}, assets)

	weth, ok := d.Market("WETH")
	require.True(t, ok)
	bal, err := (token.Client{Address: weth.Token}).BalanceOf(reader, operator())
	require.NoError(t, err)
	require.Equal(t, uint64(1000), bal.Uint64())

	usdc, _ := d.Market("USDC")
	precision, err := (lending.ReserveClient{Address: usdc.Reserve, Via: reader}).Precision()
	require.NoError(t, err)
	require.Equal(t, uint32(6), precision)

	// Reopening the same database only re-attaches code.
	h2 := host.New(db)
	d2, err := Bootstrap(ctx, h2, db, testSpec(), nil)
	require.NoError(t, err)
	require.Equal(t, d.Pool, d2.Pool)
	require.Len(t, h2.Contracts(), len(h.Contracts()))

	seq, err := h2.Sequence()
	require.NoError(t, err)
	before, err := h.Sequence()
	require.NoError(t, err)
	require.Equal(t, before, seq)

	supply, err := (token.Client{Address: weth.Token}).TotalSupply(host.NewSession(ctx, h2, operator()).Reader())
	require.NoError(t, err)
	require.True(t, supply.Eq(uint256.NewInt(1000)))
}

func TestBootstrapRejectsDifferentSpec(t *testing.T) {
	ctx := context.Background()
	db := storage.NewMemDB()
	_, err := Bootstrap(ctx, host.New(db), db, testSpec(), nil)
	require.NoError(t, err)

	changed := testSpec()
	changed.BorrowingLimitPercent = 80
	_, err = Bootstrap(ctx, host.New(db), db, changed, nil)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestHashIgnoresAssetOrder(t *testing.T) {
	a := testSpec()
	b := testSpec()
	b.Assets[0], b.Assets[1] = b.Assets[1], b.Assets[0]
	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}

func TestHashFoldsCompatibilityForms(t *testing.T) {
	a := testSpec()
	b := testSpec()
	b.Assets[0].Symbol = " \uFF57eth "
	b.Assets[1].Name = "USD\u00A0Coin"
	a.Assets[1].Name = "USD Coin"
	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}

func TestSpecValidation(t *testing.T) {
	contract := crypto.ContractAddress(operator(), "x").String()
	cases := map[string]func(*Spec){
		"contract operator": func(s *Spec) { s.Operator = contract },
		"bad liquidator":    func(s *Spec) { s.Liquidator = "nope" },
		"zero limit":        func(s *Spec) { s.BorrowingLimitPercent = 0 },
		"limit above 100":   func(s *Spec) { s.BorrowingLimitPercent = 101 },
		"duplicate symbol":  func(s *Spec) { s.Assets[1].Symbol = "WETH" },
		"full-width dup":    func(s *Spec) { s.Assets[1].Symbol = "\uFF37\uFF25\uFF34\uFF28" },
		"empty symbol":      func(s *Spec) { s.Assets[0].Symbol = " " },
		"zero price":        func(s *Spec) { s.Assets[0].Price = "0" },
		"bad supply":        func(s *Spec) { s.Assets[0].OperatorSupply = "-1" },
		"decimals":          func(s *Spec) { s.Assets[0].Decimals = token.MaxDecimals + 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := testSpec()
			mutate(s)
			if _, err := s.Hash(); !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}
