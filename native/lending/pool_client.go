package lending

import (
	"lendcore/core/args"
	"lendcore/core/host"
	"lendcore/crypto"

	"github.com/holiman/uint256"
)

// PoolClient encodes calls for a pool deployed at Address.
type PoolClient struct {
	Address crypto.Address
}

func (c PoolClient) AddReserve(via host.Caller, asset, reserve crypto.Address) error {
	_, err := c.call(via, "addReserve", args.New().AddAddress(asset).AddAddress(reserve))
	return err
}

func (c PoolClient) Deposit(via host.Caller, asset crypto.Address, amount *uint256.Int) error {
	_, err := c.call(via, "deposit", args.New().AddAddress(asset).AddU256(amount))
	return err
}

func (c PoolClient) Borrow(via host.Caller, asset crypto.Address, amount *uint256.Int) error {
	_, err := c.call(via, "borrow", args.New().AddAddress(asset).AddU256(amount))
	return err
}

// Repay returns the interest that was charged on top of amount.
func (c PoolClient) Repay(via host.Caller, asset crypto.Address, amount *uint256.Int) (*uint256.Int, error) {
	return c.u256(via, "repay", args.New().AddAddress(asset).AddU256(amount))
}

func (c PoolClient) Liquidate(via host.Caller, user crypto.Address) error {
	_, err := c.call(via, "liquidate", args.New().AddAddress(user))
	return err
}

func (c PoolClient) ResolveBadDebt(via host.Caller, user, asset crypto.Address) (*uint256.Int, error) {
	return c.u256(via, "resolveBadDebt", args.New().AddAddress(user).AddAddress(asset))
}

func (c PoolClient) WithdrawAllCollateral(via host.Caller) error {
	_, err := c.call(via, "withdrawAllCollateral", nil)
	return err
}

func (c PoolClient) ClaimRewards(via host.Caller, asset crypto.Address) (*uint256.Int, error) {
	return c.u256(via, "claimRewards", args.New().AddAddress(asset))
}

func (c PoolClient) SetPaused(via host.Caller, action string, paused bool) error {
	_, err := c.call(via, "setPaused", args.New().AddString(action).AddBool(paused))
	return err
}

func (c PoolClient) IsPaused(via host.Caller, action string) (bool, error) {
	out, err := c.call(via, "isPaused", args.New().AddString(action))
	if err != nil {
		return false, err
	}
	r := args.NewReader(out)
	v := r.Bool()
	if err := r.Finish(); err != nil {
		return false, err
	}
	return v, nil
}

func (c PoolClient) IsLiquidatable(via host.Caller, user crypto.Address) (bool, error) {
	out, err := c.call(via, "isLiquidatable", args.New().AddAddress(user))
	if err != nil {
		return false, err
	}
	r := args.NewReader(out)
	v := r.Bool()
	if err := r.Finish(); err != nil {
		return false, err
	}
	return v, nil
}

func (c PoolClient) TotalCollateralValue(via host.Caller, user crypto.Address) (*uint256.Int, error) {
	return c.u256(via, "totalCollateralValue", args.New().AddAddress(user))
}

func (c PoolClient) TotalDebtValue(via host.Caller, user crypto.Address) (*uint256.Int, error) {
	return c.u256(via, "totalDebtValue", args.New().AddAddress(user))
}

func (c PoolClient) UserDebtAmount(via host.Caller, user crypto.Address) (*uint256.Int, error) {
	return c.u256(via, "getUserDebtAmount", args.New().AddAddress(user))
}

func (c PoolClient) LiquidationRecord(via host.Caller, user, asset crypto.Address) (*uint256.Int, error) {
	return c.u256(via, "getLiquidationRecord", args.New().AddAddress(user).AddAddress(asset))
}

func (c PoolClient) CollateralAssets(via host.Caller, user crypto.Address) ([]string, error) {
	return c.strings(via, "getUserCollateralAssets", args.New().AddAddress(user))
}

func (c PoolClient) DebtAssets(via host.Caller, user crypto.Address) ([]string, error) {
	return c.strings(via, "getUserDebtAssets", args.New().AddAddress(user))
}

func (c PoolClient) LiquidatedAssets(via host.Caller, user crypto.Address) ([]string, error) {
	return c.strings(via, "getLiquidatedAssets", args.New().AddAddress(user))
}

func (c PoolClient) Assets(via host.Caller) ([]string, error) {
	return c.strings(via, "getAssets", nil)
}

func (c PoolClient) Reserve(via host.Caller, asset crypto.Address) (crypto.Address, error) {
	out, err := c.call(via, "getReserve", args.New().AddAddress(asset))
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

// Position gathers the user's asset sets, valuations and liquidation status.
func (c PoolClient) Position(via host.Caller, user crypto.Address) (Position, error) {
	var (
		p   Position
		err error
	)
	if p.CollateralAssets, err = c.CollateralAssets(via, user); err != nil {
		return Position{}, err
	}
	if p.DebtAssets, err = c.DebtAssets(via, user); err != nil {
		return Position{}, err
	}
	if p.CollateralValue, err = c.TotalCollateralValue(via, user); err != nil {
		return Position{}, err
	}
	if p.DebtValue, err = c.TotalDebtValue(via, user); err != nil {
		return Position{}, err
	}
	if p.Liquidatable, err = c.IsLiquidatable(via, user); err != nil {
		return Position{}, err
	}
	return p, nil
}

func (c PoolClient) call(via host.Caller, method string, b *args.Builder) ([]byte, error) {
	var input []byte
	if b != nil {
		encoded, err := b.Encode()
		if err != nil {
			return nil, err
		}
		input = encoded
	}
	return via.Call(c.Address, method, input)
}

func (c PoolClient) u256(via host.Caller, method string, b *args.Builder) (*uint256.Int, error) {
	out, err := c.call(via, method, b)
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

func (c PoolClient) strings(via host.Caller, method string, b *args.Builder) ([]string, error) {
	out, err := c.call(via, method, b)
	if err != nil {
		return nil, err
	}
	r := args.NewReader(out)
	v := r.Strings()
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}
