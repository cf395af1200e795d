// Package token implements the fungible ledger used for underlying assets and
// the interest-bearing receipt tokens handed to depositors.
package token

import (
	"errors"
	"fmt"
	"strings"

	"lendcore/core/args"
	"lendcore/core/events"
	"lendcore/core/host"
	"lendcore/core/state"
	"lendcore/crypto"
	"lendcore/native/fixedpoint"

	"github.com/holiman/uint256"
)

var (
	ErrAlreadyInitialized    = errors.New("token: already initialized")
	ErrNotInitialized        = errors.New("token: not initialized")
	ErrUnauthorized          = errors.New("token: caller is not the minter")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrInvalidSymbol         = errors.New("token: symbol required")
	ErrInvalidDecimals       = errors.New("token: decimals out of range")
)

// MaxDecimals bounds the precision a token may declare.
const MaxDecimals = 36

const (
	keyInitialized = "initialized"
	keyName        = "name"
	keySymbol      = "symbol"
	keyDecimals    = "decimals"
	keyMinter      = "minter"
	keySupply      = "total_supply"
	prefixBalance  = "balance:"
	prefixAllow    = "allowance:"
)

// Token is the contract code. All state lives in the host.
type Token struct{}

func New() *Token { return &Token{} }

func (*Token) Kind() string { return "token" }

func (t *Token) Invoke(env *host.Env, method string, input []byte) ([]byte, error) {
	r := args.NewReader(input)
	st := env.State()
	if method != host.ConstructorMethod {
		ok, err := st.Bool(keyInitialized)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotInitialized
		}
	}
	switch method {
	case host.ConstructorMethod:
		name, symbol, decimals, minter := r.String(), r.String(), r.U64(), r.String()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		return nil, t.construct(env, name, symbol, decimals, minter)
	case "transfer":
		to, amount := r.Address(), r.U256()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		return nil, t.move(env, env.Caller(), to, amount)
	case "transferFrom":
		from, to, amount := r.Address(), r.Address(), r.U256()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		if err := t.spendAllowance(env, from, env.Caller(), amount); err != nil {
			return nil, err
		}
		return nil, t.move(env, from, to, amount)
	case "approve":
		spender, amount := r.Address(), r.U256()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		if err := st.SetU256(allowanceKey(env.Caller(), spender), amount); err != nil {
			return nil, err
		}
		symbol, _ := st.String(keySymbol)
		env.Emit(events.Approval{Token: symbol, Owner: env.Caller().String(), Spender: spender.String(), Amount: amount})
		return nil, nil
	case "mint":
		to, amount := r.Address(), r.U256()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		return nil, t.mint(env, to, amount)
	case "setMinter":
		minter := r.Address()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		if err := requireMinter(env); err != nil {
			return nil, err
		}
		return nil, st.SetString(keyMinter, minter.String())
	case "decimals":
		v, err := st.Uint64(keyDecimals)
		if err != nil {
			return nil, err
		}
		return args.New().AddU64(v).Encode()
	case "symbol", "name", "minter":
		key := map[string]string{"symbol": keySymbol, "name": keyName, "minter": keyMinter}[method]
		v, err := st.String(key)
		if err != nil {
			return nil, err
		}
		return args.New().AddString(v).Encode()
	case "balanceOf":
		owner := r.Address()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		v, err := st.U256(balanceKey(owner))
		if err != nil {
			return nil, err
		}
		return args.New().AddU256(v).Encode()
	case "allowance":
		owner, spender := r.Address(), r.Address()
		if err := r.Finish(); err != nil {
			return nil, err
		}
		v, err := st.U256(allowanceKey(owner, spender))
		if err != nil {
			return nil, err
		}
		return args.New().AddU256(v).Encode()
	case "totalSupply":
		v, err := st.U256(keySupply)
		if err != nil {
			return nil, err
		}
		return args.New().AddU256(v).Encode()
	}
	return nil, host.UnknownMethod(method)
}

func (t *Token) construct(env *host.Env, name, symbol string, decimals uint64, minter string) error {
	st := env.State()
	initialized, err := st.Bool(keyInitialized)
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if decimals > MaxDecimals {
		return fmt.Errorf("%w: %d", ErrInvalidDecimals, decimals)
	}
	minterAddr := env.Caller()
	if strings.TrimSpace(minter) != "" {
		parsed, err := crypto.DecodeAddress(minter)
		if err != nil {
			return fmt.Errorf("token: minter: %w", err)
		}
		minterAddr = parsed
	}
	if err := st.SetString(keyName, strings.TrimSpace(name)); err != nil {
		return err
	}
	if err := st.SetString(keySymbol, symbol); err != nil {
		return err
	}
	if err := st.SetUint64(keyDecimals, decimals); err != nil {
		return err
	}
	if err := st.SetString(keyMinter, minterAddr.String()); err != nil {
		return err
	}
	return st.SetBool(keyInitialized, true)
}

func (t *Token) move(env *host.Env, from, to crypto.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	st := env.State()
	fromBal, err := st.U256(balanceKey(from))
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromBal.Dec(), amount.Dec())
	}
	nextFrom, err := fixedpoint.Sub(fromBal, amount)
	if err != nil {
		return err
	}
	if err := st.SetU256(balanceKey(from), nextFrom); err != nil {
		return err
	}
	toBal, err := st.U256(balanceKey(to))
	if err != nil {
		return err
	}
	nextTo, err := fixedpoint.Add(toBal, amount)
	if err != nil {
		return err
	}
	if err := st.SetU256(balanceKey(to), nextTo); err != nil {
		return err
	}
	symbol, _ := st.String(keySymbol)
	env.Emit(events.Transfer{Token: symbol, From: from.String(), To: to.String(), Amount: amount})
	return nil
}

func (t *Token) spendAllowance(env *host.Env, owner, spender crypto.Address, amount *uint256.Int) error {
	if owner.Equal(spender) || amount.IsZero() {
		return nil
	}
	st := env.State()
	allowed, err := st.U256(allowanceKey(owner, spender))
	if err != nil {
		return err
	}
	if allowed.Lt(amount) {
		return fmt.Errorf("%w: %s allows %s %s, needs %s", ErrInsufficientAllowance, owner, spender, allowed.Dec(), amount.Dec())
	}
	next, err := fixedpoint.Sub(allowed, amount)
	if err != nil {
		return err
	}
	return st.SetU256(allowanceKey(owner, spender), next)
}

func (t *Token) mint(env *host.Env, to crypto.Address, amount *uint256.Int) error {
	if err := requireMinter(env); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	st := env.State()
	supply, err := st.U256(keySupply)
	if err != nil {
		return err
	}
	nextSupply, err := fixedpoint.Add(supply, amount)
	if err != nil {
		return err
	}
	bal, err := st.U256(balanceKey(to))
	if err != nil {
		return err
	}
	nextBal, err := fixedpoint.Add(bal, amount)
	if err != nil {
		return err
	}
	if err := st.SetU256(keySupply, nextSupply); err != nil {
		return err
	}
	if err := st.SetU256(balanceKey(to), nextBal); err != nil {
		return err
	}
	symbol, _ := st.String(keySymbol)
	env.Emit(events.Mint{Token: symbol, To: to.String(), Amount: amount})
	return nil
}

func requireMinter(env *host.Env) error {
	minter, err := env.State().String(keyMinter)
	if err != nil {
		return err
	}
	if minter != env.Caller().String() {
		return ErrUnauthorized
	}
	return nil
}

func balanceKey(owner crypto.Address) string {
	return state.Key(prefixBalance, owner.String())
}

func allowanceKey(owner, spender crypto.Address) string {
	return state.Key(prefixAllow, owner.String(), spender.String())
}
