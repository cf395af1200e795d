package oracle

import (
	"lendcore/core/args"
	"lendcore/core/host"
	"lendcore/crypto"

	"github.com/holiman/uint256"
)

// Client encodes calls for an oracle deployed at Address.
type Client struct {
	Address crypto.Address
}

func (c Client) AddToken(via host.Caller, symbol, address string, price *uint256.Int) error {
	input, err := args.New().AddString(symbol).AddString(address).AddU256(price).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "addToken", input)
	return err
}

// UpdatePrices sets prices given as base-10 strings. An empty address keeps
// the one already registered for the symbol.
func (c Client) UpdatePrices(via host.Caller, symbols, addresses, prices []string) error {
	input, err := args.New().AddStrings(symbols).AddStrings(addresses).AddStrings(prices).Encode()
	if err != nil {
		return err
	}
	_, err = via.Call(c.Address, "updatePrices", input)
	return err
}

func (c Client) PriceBySymbol(via host.Caller, symbol string) (*uint256.Int, error) {
	input, err := args.New().AddString(symbol).Encode()
	if err != nil {
		return nil, err
	}
	return c.price(via, "getPriceBySymbol", input)
}

func (c Client) PriceByAddress(via host.Caller, address string) (*uint256.Int, error) {
	input, err := args.New().AddString(address).Encode()
	if err != nil {
		return nil, err
	}
	return c.price(via, "getPriceByAddress", input)
}

func (c Client) price(via host.Caller, method string, input []byte) (*uint256.Int, error) {
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
