// Package oracle implements the admin-managed price registry. Prices are
// keyed by symbol and indexed by token address.
package oracle

import (
	"errors"
	"fmt"
	"strings"

	"lendcore/core/args"
	"lendcore/core/events"
	"lendcore/core/host"
	"lendcore/core/state"
	"lendcore/native/fixedpoint"
)

var (
	ErrUnauthorized       = errors.New("oracle: caller is not the admin")
	ErrAlreadyInitialized = errors.New("oracle: already initialized")
	ErrTokenExists        = errors.New("oracle: token already registered")
	ErrTokenNotFound      = errors.New("oracle: token not found")
	ErrLengthMismatch     = errors.New("oracle: input arrays must have the same length")
	ErrInvalidToken       = errors.New("oracle: symbol and address required")
	ErrInvalidPrice       = errors.New("oracle: invalid price")
)

const (
	keyAdmin        = "admin"
	keySymbols      = "symbols"
	prefixPrice     = "price:"
	prefixAddress   = "address:"
	prefixSymbolFor = "symbol_of:"
)

// Oracle is the contract code.
type Oracle struct{}

func New() *Oracle { return &Oracle{} }

func (*Oracle) Kind() string { return "oracle" }

func (o *Oracle) Invoke(env *host.Env, method string, input []byte) ([]byte, error) {
	r := args.NewReader(input)
	st := env.State()
	switch method {
	case host.ConstructorMethod:
		if err := r.Finish(); err != nil {
			return nil, err
		}
		admin, err := st.String(keyAdmin)
		if err != nil {
			return nil, err
		}
		if admin != "" {
			return nil, ErrAlreadyInitialized
		}
		return nil, st.SetString(keyAdmin, env.Caller().String())
	case "addToken":
		symbol, address, price := normalize(r.String()), strings.TrimSpace(r.String()), r.U256()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		if err := onlyAdmin(env); err != nil {
			return nil, err
		}
		if symbol == "" || address == "" {
			return nil, ErrInvalidToken
		}
		symbols, err := st.StringSet(keySymbols)
		if err != nil {
			return nil, err
		}
		if symbols.Contains(symbol) {
			return nil, fmt.Errorf("%w: %s", ErrTokenExists, symbol)
		}
		symbols.Add(symbol)
		if err := st.SetStringSet(keySymbols, symbols); err != nil {
			return nil, err
		}
		if err := o.bind(st, symbol, address); err != nil {
			return nil, err
		}
		if err := st.SetU256(state.Key(prefixPrice, symbol), price); err != nil {
			return nil, err
		}
		env.Emit(events.OracleTokenAdded{Symbol: symbol, Address: address, Price: price})
		return nil, nil
	case "updatePrices":
		symbols, addresses, prices := r.Strings(), r.Strings(), r.Strings()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		if err := onlyAdmin(env); err != nil {
			return nil, err
		}
		return nil, o.updatePrices(env, symbols, addresses, prices)
	case "setAdmin":
		next := r.Address()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		if err := onlyAdmin(env); err != nil {
			return nil, err
		}
		return nil, st.SetString(keyAdmin, next.String())
	case "getPriceBySymbol":
		symbol := normalize(r.String())
		if err := r.Finish(); err != nil {
			return nil, err
		}
		known, err := st.StringSet(keySymbols)
		if err != nil {
			return nil, err
		}
		if !known.Contains(symbol) {
			return nil, fmt.Errorf("%w: symbol %s", ErrTokenNotFound, symbol)
		}
		price, err := st.U256(state.Key(prefixPrice, symbol))
		if err != nil {
			return nil, err
		}
		return args.New().AddU256(price).Encode()
	case "getPriceByAddress":
		address := strings.TrimSpace(r.String())
		if err := r.Finish(); err != nil {
			return nil, err
		}
		symbol, err := st.String(state.Key(prefixSymbolFor, address))
		if err != nil {
			return nil, err
		}
		if symbol == "" {
			return nil, fmt.Errorf("%w: address %s", ErrTokenNotFound, address)
		}
		price, err := st.U256(state.Key(prefixPrice, symbol))
		if err != nil {
			return nil, err
		}
		return args.New().AddU256(price).Encode()
	case "getTokens":
		symbols, err := st.StringSet(keySymbols)
		if err != nil {
			return nil, err
		}
		return args.New().AddStrings(symbols.Values()).Encode()
	case "getAdmin":
		admin, err := st.String(keyAdmin)
		if err != nil {
			return nil, err
		}
		return args.New().AddString(admin).Encode()
	}
	return nil, host.UnknownMethod(method)
}

func (o *Oracle) updatePrices(env *host.Env, symbols, addresses, prices []string) error {
	if len(symbols) != len(addresses) || len(addresses) != len(prices) {
		return ErrLengthMismatch
	}
	st := env.State()
	known, err := st.StringSet(keySymbols)
	if err != nil {
		return err
	}
	for i := range symbols {
		symbol := normalize(symbols[i])
		if !known.Contains(symbol) {
			env.Emit(events.OracleTokenMissing{Symbol: symbol})
			continue
		}
		price, err := fixedpoint.Parse(strings.TrimSpace(prices[i]))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPrice, symbol, err)
		}
		address := strings.TrimSpace(addresses[i])
		if address == "" {
			if address, err = st.String(state.Key(prefixAddress, symbol)); err != nil {
				return err
			}
		}
		if err := o.bind(st, symbol, address); err != nil {
			return err
		}
		if err := st.SetU256(state.Key(prefixPrice, symbol), price); err != nil {
			return err
		}
		env.Emit(events.OraclePriceUpdated{Symbol: symbol, Address: address, Price: price})
	}
	return nil
}

// bind points symbol at address, dropping a previous address index entry.
func (o *Oracle) bind(st *state.Manager, symbol, address string) error {
	previous, err := st.String(state.Key(prefixAddress, symbol))
	if err != nil {
		return err
	}
	if previous != "" && previous != address {
		if err := st.KVDelete(state.Key(prefixSymbolFor, previous)); err != nil {
			return err
		}
	}
	if err := st.SetString(state.Key(prefixAddress, symbol), address); err != nil {
		return err
	}
	return st.SetString(state.Key(prefixSymbolFor, address), symbol)
}

func onlyAdmin(env *host.Env) error {
	admin, err := env.State().String(keyAdmin)
	if err != nil {
		return err
	}
	if admin == "" || admin != env.Caller().String() {
		return ErrUnauthorized
	}
	return nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
