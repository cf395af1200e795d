package lending

import (
	"fmt"
	"math/big"

	"lendcore/core/args"
	"lendcore/core/events"
	"lendcore/core/host"
	"lendcore/core/state"
	"lendcore/crypto"
	"lendcore/native/fixedpoint"
	"lendcore/native/token"

	"github.com/holiman/uint256"
)

const (
	keyReserveConfig  = "config"
	keyReserveBalance = "reserve_balance"
	keyTotalBorrowed  = "total_borrowed"

	prefixUserBalance  = "user_balance:"
	prefixUserLocked   = "user_locked:"
	prefixUserDebt     = "user_debt:"
	prefixUserInterest = "user_interest:"
	prefixUserAccrual  = "user_last_accrual:"
	prefixUserRewards  = "user_rewards:"
)

// poolOnly lists the reserve methods that only the bound pool may invoke.
var poolOnly = map[string]bool{
	"deposit":                  true,
	"borrow":                   true,
	"repay":                    true,
	"liquidate":                true,
	"seizeCollateral":          true,
	"withdrawAllCollateral":    true,
	"claimRewards":             true,
	"calculateAccruedInterest": true,
	"calculateAndStoreRewards": true,
}

// Reserve holds the liquidity and per-user ledgers of a single asset. One
// Reserve contract is deployed per asset; the code itself is stateless.
type Reserve struct{}

func NewReserve() *Reserve { return &Reserve{} }

func (*Reserve) Kind() string { return "reserve" }

// ReserveConstructorArgs encodes the constructor input: underlying token,
// receipt token, controlling pool and the informational borrow-rate seed.
func ReserveConstructorArgs(tokenAddr, aToken, pool crypto.Address, borrowRateSeed *uint256.Int) ([]byte, error) {
	return args.New().AddAddress(tokenAddr).AddAddress(aToken).AddAddress(pool).AddU256(borrowRateSeed).Encode()
}

// reserveCall binds a frame to the loaded configuration.
type reserveCall struct {
	env *host.Env
	st  *state.Manager
	cfg ReserveConfig
}

func (r *Reserve) Invoke(env *host.Env, method string, input []byte) ([]byte, error) {
	in := args.NewReader(input)
	if method == host.ConstructorMethod {
		tokenAddr, aToken, pool, seed := in.Address(), in.Address(), in.Address(), in.U256()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, r.construct(env, tokenAddr, aToken, pool, seed)
	}
	c, err := loadReserve(env)
	if err != nil {
		return nil, err
	}
	if poolOnly[method] && env.Caller().String() != c.cfg.Pool {
		return nil, fmt.Errorf("%w: %s requires the pool", ErrUnauthorized, method)
	}
	switch method {
	case "deposit":
		amount, user := in.U256(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.deposit(amount, user)
	case "borrow":
		amount, user := in.U256(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.borrow(amount, user)
	case "repay":
		amount, user := in.U256(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.repay(amount, user))
	case "liquidate":
		user, liquidator := in.Address(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.liquidate(user, liquidator))
	case "seizeCollateral":
		user, liquidator := in.Address(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.seizeCollateral(user, liquidator))
	case "withdrawAllCollateral":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.withdrawAll(user))
	case "claimRewards":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.claimRewards(user))
	case "calculateAccruedInterest":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		interest, _, err := c.settle(user)
		return encodeU256(interest, err)
	case "calculateAndStoreRewards":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		_, rewards, err := c.settle(user)
		return encodeU256(rewards, err)
	case "getUserBalance", "getUserCollateral", "getUserDebtAmount", "getPendingInterest", "getUserRewards":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.userView(method, user))
	case "getReserveBalance":
		return encodeU256(c.st.U256(keyReserveBalance))
	case "getTotalBorrowed":
		return encodeU256(c.st.U256(keyTotalBorrowed))
	case "getRates":
		rates, err := c.rates()
		if err != nil {
			return nil, err
		}
		return args.New().AddU256(rates.Utilization).AddU256(rates.Borrow).AddU256(rates.Reward).Encode()
	case "getTokenAddress":
		return args.New().AddString(c.cfg.Token).Encode()
	case "getATokenAddress":
		return args.New().AddString(c.cfg.AToken).Encode()
	case "getPoolAddress":
		return args.New().AddString(c.cfg.Pool).Encode()
	case "getPrecision":
		return args.New().AddU64(uint64(c.cfg.Precision)).Encode()
	case "getBorrowRateSeed":
		seed, _ := uint256.FromBig(c.cfg.BorrowRateSeed)
		return args.New().AddU256(seed).Encode()
	}
	return nil, host.UnknownMethod(method)
}

func (r *Reserve) construct(env *host.Env, tokenAddr, aToken, pool crypto.Address, seed *uint256.Int) error {
	st := env.State()
	exists, err := st.KVHas(keyReserveConfig)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	precision, err := token.Client{Address: tokenAddr}.Decimals(env)
	if err != nil {
		return fmt.Errorf("lending: read token decimals: %w", err)
	}
	cfg := ReserveConfig{
		Token:          tokenAddr.String(),
		AToken:         aToken.String(),
		Pool:           pool.String(),
		Precision:      precision,
		BorrowRateSeed: seed.ToBig(),
	}
	return st.KVPut(keyReserveConfig, cfg)
}

func loadReserve(env *host.Env) (*reserveCall, error) {
	st := env.State()
	var cfg ReserveConfig
	ok, err := st.KVGet(keyReserveConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	if cfg.BorrowRateSeed == nil {
		cfg.BorrowRateSeed = new(big.Int)
	}
	return &reserveCall{env: env, st: st, cfg: cfg}, nil
}

func (c *reserveCall) underlying() token.Client {
	return token.Client{Address: crypto.MustDecodeAddress(c.cfg.Token)}
}

func (c *reserveCall) rates() (Rates, error) {
	liquidity, err := c.st.U256(keyReserveBalance)
	if err != nil {
		return Rates{}, err
	}
	borrowed, err := c.st.U256(keyTotalBorrowed)
	if err != nil {
		return Rates{}, err
	}
	return CalculateRates(liquidity, borrowed)
}

func (c *reserveCall) userView(method string, user crypto.Address) (*uint256.Int, error) {
	switch method {
	case "getUserBalance":
		return c.st.U256(userKey(prefixUserBalance, user))
	case "getUserCollateral":
		return c.collateral(user)
	case "getUserDebtAmount":
		return c.st.U256(userKey(prefixUserDebt, user))
	case "getPendingInterest":
		return c.st.U256(userKey(prefixUserInterest, user))
	default:
		return c.st.U256(userKey(prefixUserRewards, user))
	}
}

// collateral is the free plus locked balance of user.
func (c *reserveCall) collateral(user crypto.Address) (*uint256.Int, error) {
	free, err := c.st.U256(userKey(prefixUserBalance, user))
	if err != nil {
		return nil, err
	}
	locked, err := c.st.U256(userKey(prefixUserLocked, user))
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(free, locked)
}

// settle brings user's interest and rewards up to the invocation time. The
// first observation of a user only starts the clock. Sub-second windows are
// left for a later settlement.
func (c *reserveCall) settle(user crypto.Address) (*uint256.Int, *uint256.Int, error) {
	now := c.env.Now()
	clockKey := userKey(prefixUserAccrual, user)
	var last uint64
	seen, err := c.st.KVGet(clockKey, &last)
	if err != nil {
		return nil, nil, err
	}
	if !seen || now < last {
		return new(uint256.Int), new(uint256.Int), c.st.KVPut(clockKey, now)
	}
	elapsed := ElapsedSeconds(last, now)
	if elapsed == 0 {
		return new(uint256.Int), new(uint256.Int), nil
	}
	debt, err := c.st.U256(userKey(prefixUserDebt, user))
	if err != nil {
		return nil, nil, err
	}
	collateral, err := c.collateral(user)
	if err != nil {
		return nil, nil, err
	}
	if debt.IsZero() && collateral.IsZero() {
		return new(uint256.Int), new(uint256.Int), c.st.KVPut(clockKey, now)
	}
	rates, err := c.rates()
	if err != nil {
		return nil, nil, err
	}
	interest, err := InterestFor(debt, rates.Borrow, elapsed)
	if err != nil {
		return nil, nil, err
	}
	rewards, err := RewardsFor(collateral, rates.Reward, elapsed, c.cfg.Precision)
	if err != nil {
		return nil, nil, err
	}
	if err := c.addTo(userKey(prefixUserInterest, user), interest); err != nil {
		return nil, nil, err
	}
	if err := c.addTo(userKey(prefixUserRewards, user), rewards); err != nil {
		return nil, nil, err
	}
	if err := c.st.KVPut(clockKey, now); err != nil {
		return nil, nil, err
	}
	if !interest.IsZero() || !rewards.IsZero() {
		c.env.Emit(events.Accrued{
			Reserve:        c.env.Self().String(),
			User:           user.String(),
			ElapsedSeconds: elapsed,
			Interest:       interest,
			Rewards:        rewards,
		})
	}
	return interest, rewards, nil
}

func (c *reserveCall) addTo(key string, delta *uint256.Int) error {
	if delta.IsZero() {
		return nil
	}
	cur, err := c.st.U256(key)
	if err != nil {
		return err
	}
	next, err := fixedpoint.Add(cur, delta)
	if err != nil {
		return err
	}
	return c.st.SetU256(key, next)
}

func (c *reserveCall) subFrom(key string, delta *uint256.Int) error {
	if delta.IsZero() {
		return nil
	}
	cur, err := c.st.U256(key)
	if err != nil {
		return err
	}
	next, err := fixedpoint.Sub(cur, delta)
	if err != nil {
		return err
	}
	return c.st.SetU256(key, next)
}

func (c *reserveCall) deposit(amount *uint256.Int, user crypto.Address) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	if _, _, err := c.settle(user); err != nil {
		return err
	}
	if err := c.addTo(keyReserveBalance, amount); err != nil {
		return err
	}
	if err := c.addTo(userKey(prefixUserBalance, user), amount); err != nil {
		return err
	}
	c.env.Emit(events.Deposit{Reserve: c.env.Self().String(), User: user.String(), Amount: amount})
	return nil
}

func (c *reserveCall) borrow(amount *uint256.Int, user crypto.Address) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	if _, _, err := c.settle(user); err != nil {
		return err
	}
	liquidity, err := c.st.U256(keyReserveBalance)
	if err != nil {
		return err
	}
	if liquidity.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientReserve, liquidity.Dec(), amount.Dec())
	}
	if err := c.addTo(userKey(prefixUserDebt, user), amount); err != nil {
		return err
	}
	if err := c.addTo(keyTotalBorrowed, amount); err != nil {
		return err
	}
	if err := c.subFrom(keyReserveBalance, amount); err != nil {
		return err
	}
	free, err := c.st.U256(userKey(prefixUserBalance, user))
	if err != nil {
		return err
	}
	lock := fixedpoint.Min(amount, free)
	if err := c.subFrom(userKey(prefixUserBalance, user), lock); err != nil {
		return err
	}
	if err := c.addTo(userKey(prefixUserLocked, user), lock); err != nil {
		return err
	}
	if err := c.underlying().Transfer(c.env, user, amount); err != nil {
		return err
	}
	c.env.Emit(events.Borrow{Reserve: c.env.Self().String(), User: user.String(), Amount: amount, Locked: lock})
	return nil
}

// repay reduces principal by amount and clears the pending interest, which
// the caller owes on top of amount. It returns that interest.
func (c *reserveCall) repay(amount *uint256.Int, user crypto.Address) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if _, _, err := c.settle(user); err != nil {
		return nil, err
	}
	debt, err := c.st.U256(userKey(prefixUserDebt, user))
	if err != nil {
		return nil, err
	}
	if debt.IsZero() {
		return nil, ErrNoDebt
	}
	interest, err := c.st.U256(userKey(prefixUserInterest, user))
	if err != nil {
		return nil, err
	}
	due, err := fixedpoint.Add(debt, interest)
	if err != nil {
		return nil, err
	}
	if amount.Gt(due) {
		return nil, ErrRepayExceedsDebt
	}
	if amount.Gt(debt) {
		return nil, ErrRepayExceedsPrincipal
	}
	remaining, err := fixedpoint.Sub(debt, amount)
	if err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserDebt, user), remaining); err != nil {
		return nil, err
	}
	if err := c.subFrom(keyTotalBorrowed, amount); err != nil {
		return nil, err
	}
	inflow, err := fixedpoint.Add(amount, interest)
	if err != nil {
		return nil, err
	}
	if err := c.addTo(keyReserveBalance, inflow); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserInterest, user), nil); err != nil {
		return nil, err
	}
	if remaining.IsZero() {
		locked, err := c.st.U256(userKey(prefixUserLocked, user))
		if err != nil {
			return nil, err
		}
		if err := c.addTo(userKey(prefixUserBalance, user), locked); err != nil {
			return nil, err
		}
		if err := c.st.SetU256(userKey(prefixUserLocked, user), nil); err != nil {
			return nil, err
		}
	}
	c.env.Emit(events.Repay{
		Reserve:   c.env.Self().String(),
		User:      user.String(),
		Principal: amount,
		Interest:  interest,
		Remaining: remaining,
	})
	return interest, nil
}

// liquidate seizes all of user's collateral for liquidator and writes off
// the outstanding principal and interest.
func (c *reserveCall) liquidate(user, liquidator crypto.Address) (*uint256.Int, error) {
	debt, err := c.st.U256(userKey(prefixUserDebt, user))
	if err != nil {
		return nil, err
	}
	if debt.IsZero() {
		return nil, ErrNoDebt
	}
	if _, _, err := c.settle(user); err != nil {
		return nil, err
	}
	seized, err := c.seize(user, liquidator)
	if err != nil {
		return nil, err
	}
	if err := c.subFrom(keyTotalBorrowed, debt); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserDebt, user), nil); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserInterest, user), nil); err != nil {
		return nil, err
	}
	c.emitSeized(user, liquidator, seized, debt)
	return seized, nil
}

// seizeCollateral moves collateral of a position whose debt has already
// been settled.
func (c *reserveCall) seizeCollateral(user, liquidator crypto.Address) (*uint256.Int, error) {
	debt, err := c.st.U256(userKey(prefixUserDebt, user))
	if err != nil {
		return nil, err
	}
	if !debt.IsZero() {
		return nil, ErrOutstandingDebt
	}
	if _, _, err := c.settle(user); err != nil {
		return nil, err
	}
	seized, err := c.seize(user, liquidator)
	if err != nil {
		return nil, err
	}
	c.emitSeized(user, liquidator, seized, new(uint256.Int))
	return seized, nil
}

func (c *reserveCall) seize(user, to crypto.Address) (*uint256.Int, error) {
	amount, err := c.collateral(user)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrNoCollateral
	}
	if err := c.payOut(to, amount); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserBalance, user), nil); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserLocked, user), nil); err != nil {
		return nil, err
	}
	return amount, nil
}

func (c *reserveCall) emitSeized(user, liquidator crypto.Address, amount, writtenOff *uint256.Int) {
	c.env.Emit(events.CollateralSeized{
		Reserve:    c.env.Self().String(),
		Asset:      c.cfg.Token,
		User:       user.String(),
		Liquidator: liquidator.String(),
		Amount:     amount,
		WrittenOff: writtenOff,
	})
}

// payOut sends amount of the underlying from reserve liquidity.
func (c *reserveCall) payOut(to crypto.Address, amount *uint256.Int) error {
	liquidity, err := c.st.U256(keyReserveBalance)
	if err != nil {
		return err
	}
	if liquidity.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientReserve, liquidity.Dec(), amount.Dec())
	}
	if err := c.st.SetU256(keyReserveBalance, new(uint256.Int).Sub(liquidity, amount)); err != nil {
		return err
	}
	return c.underlying().Transfer(c.env, to, amount)
}

// withdrawAll returns every unit of collateral to a debt-free user. A user
// with nothing deposited withdraws zero.
func (c *reserveCall) withdrawAll(user crypto.Address) (*uint256.Int, error) {
	debt, err := c.st.U256(userKey(prefixUserDebt, user))
	if err != nil {
		return nil, err
	}
	if !debt.IsZero() {
		return nil, ErrOutstandingDebt
	}
	if _, _, err := c.settle(user); err != nil {
		return nil, err
	}
	amount, err := c.collateral(user)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return amount, nil
	}
	if err := c.payOut(user, amount); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserBalance, user), nil); err != nil {
		return nil, err
	}
	if err := c.st.SetU256(userKey(prefixUserLocked, user), nil); err != nil {
		return nil, err
	}
	c.env.Emit(events.CollateralWithdrawn{Reserve: c.env.Self().String(), User: user.String(), Amount: amount})
	return amount, nil
}

// claimRewards settles and clears the user's rewards and returns the amount.
// Liquidity is untouched: the pool pays claims in aTokens.
func (c *reserveCall) claimRewards(user crypto.Address) (*uint256.Int, error) {
	if _, _, err := c.settle(user); err != nil {
		return nil, err
	}
	rewards, err := c.st.U256(userKey(prefixUserRewards, user))
	if err != nil {
		return nil, err
	}
	if rewards.IsZero() {
		return nil, ErrNoRewardsAvailable
	}
	if err := c.st.SetU256(userKey(prefixUserRewards, user), nil); err != nil {
		return nil, err
	}
	c.env.Emit(events.RewardsClaimed{Reserve: c.env.Self().String(), User: user.String(), Amount: rewards})
	return rewards, nil
}

func userKey(prefix string, user crypto.Address) string {
	return state.Key(prefix, user.String())
}

func encodeU256(v *uint256.Int, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return args.New().AddU256(v).Encode()
}
