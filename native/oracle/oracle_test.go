package oracle

import (
	"context"
	"errors"
	"testing"

	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/storage"

	"github.com/holiman/uint256"
)

func makeAddress(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.AccountPrefix, raw)
}

func TestOracleAdminFlow(t *testing.T) {
	ctx := context.Background()
	h := host.New(storage.NewMemDB())
	admin := makeAddress(0x01)
	stranger := makeAddress(0x02)
	addr := crypto.ContractAddress(admin, "oracle")
	if err := h.Deploy(ctx, admin, addr, New(), nil); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	orc := Client{Address: addr}
	asAdmin := host.NewSession(ctx, h, admin)

	if err := orc.AddToken(host.NewSession(ctx, h, stranger), "ETH", "tok-eth", uint256.NewInt(2_000)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := orc.AddToken(asAdmin, "eth", "tok-eth", uint256.NewInt(2_000)); err != nil {
		t.Fatalf("addToken: %v", err)
	}
	if err := orc.AddToken(asAdmin, "ETH", "tok-eth2", uint256.NewInt(1)); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("expected ErrTokenExists, got %v", err)
	}

	price, err := orc.PriceBySymbol(asAdmin.Reader(), "ETH")
	if err != nil || price.Uint64() != 2_000 {
		t.Fatalf("price by symbol = %v, %v", price, err)
	}

	if err := orc.UpdatePrices(asAdmin, []string{"ETH", "DOGE"}, []string{"", "x"}, []string{"2500", "1"}); err != nil {
		t.Fatalf("updatePrices: %v", err)
	}
	price, err = orc.PriceByAddress(asAdmin.Reader(), "tok-eth")
	if err != nil || price.Uint64() != 2_500 {
		t.Fatalf("price by address = %v, %v", price, err)
	}
	if _, err := orc.PriceBySymbol(asAdmin.Reader(), "DOGE"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("unknown symbols must be skipped, got %v", err)
	}
	if err := orc.UpdatePrices(asAdmin, []string{"ETH"}, nil, []string{"1"}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if err := orc.UpdatePrices(asAdmin, []string{"ETH"}, []string{"tok-eth-v2"}, []string{"3000"}); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if _, err := orc.PriceByAddress(asAdmin.Reader(), "tok-eth"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("old address should be unbound, got %v", err)
	}
	if _, err := h.Call(ctx, admin, addr, host.ConstructorMethod, nil); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}
