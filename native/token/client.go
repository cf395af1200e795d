package token

import (
	"lendcore/core/args"
	"lendcore/core/host"
	"lendcore/crypto"

	"github.com/holiman/uint256"
)

// Client encodes token calls for a ledger at Address.
type Client struct {
	Address crypto.Address
}

func (c Client) Transfer(via host.Caller, to crypto.Address, amount *uint256.Int) error {
	input, err := args.New().AddAddress(to).AddU256(amount).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "transfer", input)
	return err
}

func (c Client) TransferFrom(via host.Caller, from, to crypto.Address, amount *uint256.Int) error {
	input, err := args.New().AddAddress(from).AddAddress(to).AddU256(amount).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "transferFrom", input)
	return err
}

func (c Client) Approve(via host.Caller, spender crypto.Address, amount *uint256.Int) error {
	input, err := args.New().AddAddress(spender).AddU256(amount).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "approve", input)
	return err
}

func (c Client) Mint(via host.Caller, to crypto.Address, amount *uint256.Int) error {
	input, err := args.New().AddAddress(to).AddU256(amount).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "mint", input)
	return err
}

func (c Client) SetMinter(via host.Caller, minter crypto.Address) error {
	input, err := args.New().AddAddress(minter).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "setMinter", input)
	return err
}

func (c Client) Decimals(via host.Caller) (uint32, error) {
	out, err := via.Call(c.Address, "decimals", nil)
	if err != nil {
		return 0, err
	}
	r := args.NewReader(out)
	v := r.U64()
	if err := r.Finish(); err != nil {
		return 0, err
	}
	if v > MaxDecimals {
		return 0, ErrInvalidDecimals
	}
	return uint32(v), nil
}

func (c Client) BalanceOf(via host.Caller, owner crypto.Address) (*uint256.Int, error) {
	input, err := args.New().AddAddress(owner).Encode()
	if err != nil {
		return nil, err
	}
	return c.u256(via, "balanceOf", input)
}

func (c Client) Allowance(via host.Caller, owner, spender crypto.Address) (*uint256.Int, error) {
	input, err := args.New().AddAddress(owner).AddAddress(spender).Encode()
	if err != nil {
		return nil, err
	}
	return c.u256(via, "allowance", input)
}

func (c Client) TotalSupply(via host.Caller) (*uint256.Int, error) {
	return c.u256(via, "totalSupply", nil)
}

func (c Client) u256(via host.Caller, method string, input []byte) (*uint256.Int, error) {
	out, err := via.Call(c.Address, method, input)
	if err != nil {
		return nil, err
	}
	r := args.NewReader(out)
	v := r.U256()
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

// ConstructorArgs encodes the deployment arguments. An empty minter makes
// the deployer the minter.
func ConstructorArgs(name, symbol string, decimals uint32, minter string) ([]byte, error) {
	return args.New().AddString(name).AddString(symbol).AddU64(uint64(decimals)).AddString(minter).Encode()
}
