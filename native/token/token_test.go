package token

import (
	"context"
	"errors"
	"testing"

	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/storage"

	"github.com/holiman/uint256"
)

func makeAddress(prefix crypto.AddressPrefix, b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(prefix, raw)
}

func deployToken(t *testing.T) (*host.Host, Client, crypto.Address) {
	t.Helper()
	h := host.New(storage.NewMemDB())
	minter := makeAddress(crypto.AccountPrefix, 0x01)
	addr := crypto.ContractAddress(minter, "token/USDC")
	ctor, err := ConstructorArgs("USD Coin", "usdc", 6, "")
	if err != nil {
		t.Fatalf("ctor args: %v", err)
	}
	if err := h.Deploy(context.Background(), minter, addr, New(), ctor); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	return h, Client{Address: addr}, minter
}

func TestMintTransferAndAllowance(t *testing.T) {
	h, tok, minter := deployToken(t)
	ctx := context.Background()
	alice := makeAddress(crypto.AccountPrefix, 0xA1)
	bob := makeAddress(crypto.AccountPrefix, 0xB0)
	spender := makeAddress(crypto.AccountPrefix, 0x5E)

	if err := tok.Mint(host.NewSession(ctx, h, minter), alice, uint256.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := tok.Mint(host.NewSession(ctx, h, alice), alice, uint256.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-minter, got %v", err)
	}

	aliceSession := host.NewSession(ctx, h, alice)
	if err := tok.Transfer(aliceSession, bob, uint256.NewInt(300)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := tok.Transfer(aliceSession, bob, uint256.NewInt(10_000)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	spenderSession := host.NewSession(ctx, h, spender)
	if err := tok.TransferFrom(spenderSession, alice, bob, uint256.NewInt(50)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if err := tok.Approve(aliceSession, spender, uint256.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := tok.TransferFrom(spenderSession, alice, bob, uint256.NewInt(60)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}

	reader := host.NewSession(ctx, h, alice).Reader()
	checks := []struct {
		who  crypto.Address
		want uint64
	}{{alice, 640}, {bob, 360}}
	for _, c := range checks {
		who, want := c.who, c.want
		got, err := tok.BalanceOf(reader, who)
		if err != nil {
			t.Fatalf("balanceOf: %v", err)
		}
		if got.Uint64() != want {
			t.Fatalf("balance of %s = %s, want %d", who, got.Dec(), want)
		}
	}
	left, err := tok.Allowance(reader, alice, spender)
	if err != nil || left.Uint64() != 40 {
		t.Fatalf("allowance = %v, %v", left, err)
	}
	supply, err := tok.TotalSupply(reader)
	if err != nil || supply.Uint64() != 1_000 {
		t.Fatalf("supply = %v, %v", supply, err)
	}
	decimals, err := tok.Decimals(reader)
	if err != nil || decimals != 6 {
		t.Fatalf("decimals = %d, %v", decimals, err)
	}
}

func TestConstructorOnceAndMinterHandover(t *testing.T) {
	h, tok, minter := deployToken(t)
	ctx := context.Background()
	ctor, _ := ConstructorArgs("again", "AGN", 6, "")
	if _, err := h.Call(ctx, minter, tok.Address, host.ConstructorMethod, ctor); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}

	pool := makeAddress(crypto.ContractPrefix, 0x77)
	if err := tok.SetMinter(host.NewSession(ctx, h, minter), pool); err != nil {
		t.Fatalf("setMinter: %v", err)
	}
	if err := tok.Mint(host.NewSession(ctx, h, minter), minter, uint256.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old minter should lose rights, got %v", err)
	}
	if err := tok.Mint(host.NewSession(ctx, h, pool), minter, uint256.NewInt(1)); err != nil {
		t.Fatalf("new minter mint: %v", err)
	}
}
