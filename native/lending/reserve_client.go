package lending

import (
	"lendcore/core/args"
	"lendcore/core/host"
	"lendcore/crypto"

	"github.com/holiman/uint256"
)

// ReserveClient reaches a deployed Reserve through the host. Via is the
// frame or session the calls are made from; inside the pool it is the pool's
// own Env, which makes the pool the verified caller.
type ReserveClient struct {
	Address crypto.Address
	Via     host.Caller
}

var _ ReserveAPI = ReserveClient{}

func (c ReserveClient) Deposit(amount *uint256.Int, user crypto.Address) error {
	_, err := c.call("deposit", args.New().AddU256(amount).AddAddress(user))
	return err
}

func (c ReserveClient) Borrow(amount *uint256.Int, user crypto.Address) error {
	_, err := c.call("borrow", args.New().AddU256(amount).AddAddress(user))
	return err
}

func (c ReserveClient) Repay(amount *uint256.Int, user crypto.Address) (*uint256.Int, error) {
	return c.u256("repay", args.New().AddU256(amount).AddAddress(user))
}

func (c ReserveClient) Liquidate(user, liquidator crypto.Address) (*uint256.Int, error) {
	return c.u256("liquidate", args.New().AddAddress(user).AddAddress(liquidator))
}

func (c ReserveClient) SeizeCollateral(user, liquidator crypto.Address) (*uint256.Int, error) {
	return c.u256("seizeCollateral", args.New().AddAddress(user).AddAddress(liquidator))
}

func (c ReserveClient) WithdrawAllCollateral(user crypto.Address) (*uint256.Int, error) {
	return c.u256("withdrawAllCollateral", args.New().AddAddress(user))
}

func (c ReserveClient) ClaimRewards(user crypto.Address) (*uint256.Int, error) {
	return c.u256("claimRewards", args.New().AddAddress(user))
}

func (c ReserveClient) AccrueInterest(user crypto.Address) (*uint256.Int, error) {
	return c.u256("calculateAccruedInterest", args.New().AddAddress(user))
}

func (c ReserveClient) AccrueRewards(user crypto.Address) (*uint256.Int, error) {
	return c.u256("calculateAndStoreRewards", args.New().AddAddress(user))
}

func (c ReserveClient) UserBalance(user crypto.Address) (*uint256.Int, error) {
	return c.u256("getUserBalance", args.New().AddAddress(user))
}

func (c ReserveClient) UserCollateral(user crypto.Address) (*uint256.Int, error) {
	return c.u256("getUserCollateral", args.New().AddAddress(user))
}

func (c ReserveClient) UserDebt(user crypto.Address) (*uint256.Int, error) {
	return c.u256("getUserDebtAmount", args.New().AddAddress(user))
}

func (c ReserveClient) PendingInterest(user crypto.Address) (*uint256.Int, error) {
	return c.u256("getPendingInterest", args.New().AddAddress(user))
}

func (c ReserveClient) UserRewards(user crypto.Address) (*uint256.Int, error) {
	return c.u256("getUserRewards", args.New().AddAddress(user))
}

func (c ReserveClient) ReserveBalance() (*uint256.Int, error) {
	return c.u256("getReserveBalance", nil)
}

func (c ReserveClient) TotalBorrowed() (*uint256.Int, error) {
	return c.u256("getTotalBorrowed", nil)
}

func (c ReserveClient) Rates() (Rates, error) {
	out, err := c.call("getRates", nil)
	if err != nil {
		return Rates{}, err
	}
	r := args.NewReader(out)
	rates := Rates{Utilization: r.U256(), Borrow: r.U256(), Reward: r.U256()}
	if err := r.Finish(); err != nil {
		return Rates{}, err
	}
	return rates, nil
}

func (c ReserveClient) TokenAddress() (crypto.Address, error) {
	return c.address("getTokenAddress")
}

func (c ReserveClient) ATokenAddress() (crypto.Address, error) {
	return c.address("getATokenAddress")
}

func (c ReserveClient) PoolAddress() (crypto.Address, error) {
	return c.address("getPoolAddress")
}

func (c ReserveClient) Precision() (uint32, error) {
	out, err := c.call("getPrecision", nil)
	if err != nil {
		return 0, err
	}
	r := args.NewReader(out)
	v := r.U64()
	if err := r.Finish(); err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (c ReserveClient) call(method string, b *args.Builder) ([]byte, error) {
	var input []byte
	if b != nil {
		encoded, err := b.Encode()
		if err != nil {
			return nil, err
		}
		input = encoded
	}
	return c.Via.Call(c.Address, method, input)
}

func (c ReserveClient) u256(method string, b *args.Builder) (*uint256.Int, error) {
	out, err := c.call(method, b)
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

func (c ReserveClient) address(method string) (crypto.Address, error) {
	out, err := c.call(method, nil)
	if err != nil {
		return crypto.Address{}, err
	}
	r := args.NewReader(out)
	v := r.Address()
	if err := r.Finish(); err != nil {
		return crypto.Address{}, err
	}
	return v, nil
}
