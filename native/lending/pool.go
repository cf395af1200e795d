package lending

import (
	"errors"
	"fmt"
	"strings"

	"lendcore/core/args"
	"lendcore/core/events"
	"lendcore/core/host"
	"lendcore/core/state"
	"lendcore/crypto"
	"lendcore/native/common"
	"lendcore/native/fixedpoint"
	"lendcore/native/oracle"
	"lendcore/native/token"
	"lendcore/observability/metrics"

	"github.com/holiman/uint256"
)

const (
	keyPoolConfig = "config"
	keyEntered    = "entered"
	keyAssets     = "assets"

	prefixReserve          = "reserve:"
	prefixCollateralAssets = "collateral_assets:"
	prefixDebtAssets       = "debt_assets:"
	prefixDebtAmount       = "debt_amount:"
	prefixLiquidation      = "liquidation:"
	prefixLiquidatedAssets = "liquidated_assets:"
	prefixPaused           = "paused:"
)

// pausable lists the pool actions an admin can halt. Repayment and
// liquidation always stay open so positions can be closed.
var pausable = map[string]bool{
	"deposit":               true,
	"borrow":                true,
	"withdrawAllCollateral": true,
	"claimRewards":          true,
}

// ReserveFactory binds a reserve address to the frame it is reached from.
type ReserveFactory func(via host.Caller, reserve crypto.Address) ReserveAPI

// PriceFactory binds the configured oracle to the frame it is read from.
type PriceFactory func(via host.Caller, oracle crypto.Address) PriceSource

// Pool is the user-facing lending contract. It keeps per-user asset sets
// and delegates balances to one Reserve per asset.
type Pool struct {
	reserves ReserveFactory
	prices   PriceFactory
}

type PoolOption func(*Pool)

// WithReserveFactory replaces the host-backed reserve transport.
func WithReserveFactory(f ReserveFactory) PoolOption {
	return func(p *Pool) {
		if f != nil {
			p.reserves = f
		}
	}
}

// WithPriceFactory replaces the oracle-backed price source.
func WithPriceFactory(f PriceFactory) PoolOption {
	return func(p *Pool) {
		if f != nil {
			p.prices = f
		}
	}
}

func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		reserves: func(via host.Caller, addr crypto.Address) ReserveAPI {
			return ReserveClient{Address: addr, Via: via}
		},
		prices: func(via host.Caller, addr crypto.Address) PriceSource {
			return OracleAdapter{Oracle: oracle.Client{Address: addr}, Via: via}
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (*Pool) Kind() string { return "pool" }

// PoolConstructorArgs encodes the constructor input.
func PoolConstructorArgs(borrowingLimitPercent uint64, oracleAddr, liquidator crypto.Address) ([]byte, error) {
	return args.New().AddU64(borrowingLimitPercent).AddAddress(oracleAddr).AddAddress(liquidator).Encode()
}

type poolCall struct {
	pool   *Pool
	env    *host.Env
	st     *state.Manager
	cfg    PoolConfig
	prices PriceSource
}

func (p *Pool) Invoke(env *host.Env, method string, input []byte) ([]byte, error) {
	in := args.NewReader(input)
	if method == host.ConstructorMethod {
		limit, oracleAddr, liquidator := in.U64(), in.Address(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, p.construct(env, limit, oracleAddr, liquidator)
	}
	c, err := p.load(env)
	if err != nil {
		return nil, err
	}
	switch method {
	case "addReserve":
		asset, reserve := in.Address(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.addReserve(asset, reserve)
	case "deposit":
		asset, amount := in.Address(), in.U256()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.guarded(method, func() error { return c.deposit(asset.String(), amount) })
	case "borrow":
		asset, amount := in.Address(), in.U256()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.guarded(method, func() error { return c.borrow(asset.String(), amount) })
	case "repay":
		asset, amount := in.Address(), in.U256()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		var interest *uint256.Int
		err := c.guarded(method, func() error {
			var err error
			interest, err = c.repay(asset.String(), amount)
			return err
		})
		return encodeU256(interest, err)
	case "liquidate":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.guarded(method, func() error { return c.liquidate(user) })
	case "resolveBadDebt":
		user, asset := in.Address(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		var seized *uint256.Int
		err := c.guarded(method, func() error {
			var err error
			seized, err = c.resolveBadDebt(user, asset.String())
			return err
		})
		return encodeU256(seized, err)
	case "withdrawAllCollateral":
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.guarded(method, func() error { return c.withdrawAll(env.Caller()) })
	case "claimRewards":
		asset := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		var claimed *uint256.Int
		err := c.guarded(method, func() error {
			var err error
			claimed, err = c.claimRewards(asset.String())
			return err
		})
		return encodeU256(claimed, err)
	case "setPaused":
		action, paused := in.String(), in.Bool()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return nil, c.setPaused(action, paused)
	case "isPaused":
		action := in.String()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return args.New().AddBool(c.IsPaused(action)).Encode()
	case "isLiquidatable":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		ok, err := c.isLiquidatable(user)
		if err != nil {
			return nil, err
		}
		return args.New().AddBool(ok).Encode()
	case "totalCollateralValue":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.collateralValue(user))
	case "totalDebtValue":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.debtValue(user))
	case "getUserCollateralAssets", "getUserDebtAssets", "getLiquidatedAssets":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		prefix := map[string]string{
			"getUserCollateralAssets": prefixCollateralAssets,
			"getUserDebtAssets":       prefixDebtAssets,
			"getLiquidatedAssets":     prefixLiquidatedAssets,
		}[method]
		set, err := c.st.StringSet(userKey(prefix, user))
		if err != nil {
			return nil, err
		}
		return args.New().AddStrings(set.Values()).Encode()
	case "getUserDebtAmount":
		user := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.st.U256(userKey(prefixDebtAmount, user)))
	case "getLiquidationRecord":
		user, asset := in.Address(), in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		return encodeU256(c.st.U256(state.Key(prefixLiquidation, user.String(), asset.String())))
	case "getReserve":
		asset := in.Address()
		if err := in.Finish(); err != nil {
			return nil, err
		}
		reserve, err := c.reserveAddress(asset.String())
		if err != nil {
			return nil, err
		}
		return args.New().AddAddress(reserve).Encode()
	case "getAssets":
		set, err := c.st.StringSet(keyAssets)
		if err != nil {
			return nil, err
		}
		return args.New().AddStrings(set.Values()).Encode()
	case "getBorrowingLimitPercent":
		return args.New().AddU64(c.cfg.BorrowingLimitPercent).Encode()
	case "getAdmin":
		return args.New().AddString(c.cfg.Admin).Encode()
	case "getOracle":
		return args.New().AddString(c.cfg.Oracle).Encode()
	case "getLiquidator":
		return args.New().AddString(c.cfg.Liquidator).Encode()
	}
	return nil, host.UnknownMethod(method)
}

func (p *Pool) construct(env *host.Env, limit uint64, oracleAddr, liquidator crypto.Address) error {
	st := env.State()
	exists, err := st.KVHas(keyPoolConfig)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	if limit == 0 || limit > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	cfg := PoolConfig{
		Admin:                 env.Caller().String(),
		Oracle:                oracleAddr.String(),
		Liquidator:            liquidator.String(),
		BorrowingLimitPercent: limit,
	}
	return st.KVPut(keyPoolConfig, cfg)
}

func (p *Pool) load(env *host.Env) (*poolCall, error) {
	st := env.State()
	var cfg PoolConfig
	ok, err := st.KVGet(keyPoolConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	oracleAddr, err := crypto.DecodeAddress(cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("lending: stored oracle: %w", err)
	}
	return &poolCall{pool: p, env: env, st: st, cfg: cfg, prices: p.prices(env, oracleAddr)}, nil
}

// guarded runs fn with the reentrancy flag raised. A failing fn aborts the
// frame, which also drops the flag.
func (c *poolCall) guarded(action string, fn func() error) error {
	if pausable[action] {
		if err := common.Guard(c, action); err != nil {
			metrics.Lending().RecordRejection(action, "paused")
			return fmt.Errorf("%w: %s", err, action)
		}
	}
	entered, err := c.st.Bool(keyEntered)
	if err != nil {
		return err
	}
	if entered {
		metrics.Lending().RecordRejection(action, "reentrancy")
		return ErrReentrancyDetected
	}
	if err := c.st.SetBool(keyEntered, true); err != nil {
		return err
	}
	if err := fn(); err != nil {
		metrics.Lending().RecordRejection(action, rejectionReason(err))
		return err
	}
	if err := c.st.SetBool(keyEntered, false); err != nil {
		return err
	}
	metrics.Lending().RecordAction(action)
	return nil
}

func rejectionReason(err error) string {
	for _, known := range []struct {
		err    error
		reason string
	}{
		{ErrExceedsBorrowLimit, "borrow_limit"},
		{ErrNotLiquidatable, "not_liquidatable"},
		{ErrNoDebt, "no_debt"},
		{ErrOutstandingDebt, "outstanding_debt"},
		{ErrInsufficientReserve, "insufficient_reserve"},
		{ErrReentrancyDetected, "reentrancy"},
		{ErrPriceUnavailable, "price_unavailable"},
		{ErrReserveNotFound, "reserve_not_found"},
		{ErrPaused, "paused"},
	} {
		if errors.Is(err, known.err) {
			return known.reason
		}
	}
	return "other"
}

func (c *poolCall) requireAdmin() error {
	if c.env.Caller().String() != c.cfg.Admin {
		return fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	return nil
}

// IsPaused reports whether action is halted. Unreadable state counts as
// paused.
func (c *poolCall) IsPaused(action string) bool {
	paused, err := c.st.Bool(prefixPaused + action)
	return err != nil || paused
}

func (c *poolCall) setPaused(action string, paused bool) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if !pausable[action] {
		return fmt.Errorf("%w: %q cannot be paused", ErrInvalidAction, action)
	}
	if err := c.st.SetBool(prefixPaused+action, paused); err != nil {
		return err
	}
	c.env.Emit(events.PauseChanged{Action: action, Paused: paused})
	return nil
}

func (c *poolCall) addReserve(asset, reserve crypto.Address) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	managed, err := c.pool.reserves(c.env, reserve).TokenAddress()
	if err != nil {
		return fmt.Errorf("lending: inspect reserve: %w", err)
	}
	if !managed.Equal(asset) {
		return fmt.Errorf("%w: reserve holds %s", ErrReserveMismatch, managed)
	}
	if err := c.st.SetString(state.Key(prefixReserve, asset.String()), reserve.String()); err != nil {
		return err
	}
	assets, err := c.st.StringSet(keyAssets)
	if err != nil {
		return err
	}
	assets.Add(asset.String())
	if err := c.st.SetStringSet(keyAssets, assets); err != nil {
		return err
	}
	c.env.Emit(events.ReserveAdded{Asset: asset.String(), Reserve: reserve.String()})
	return nil
}

func (c *poolCall) reserveAddress(asset string) (crypto.Address, error) {
	raw, err := c.st.String(state.Key(prefixReserve, asset))
	if err != nil {
		return crypto.Address{}, err
	}
	if raw == "" {
		return crypto.Address{}, fmt.Errorf("%w: %s", ErrReserveNotFound, asset)
	}
	return crypto.DecodeAddress(raw)
}

func (c *poolCall) reserve(asset string) (crypto.Address, ReserveAPI, error) {
	addr, err := c.reserveAddress(asset)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	return addr, c.pool.reserves(c.env, addr), nil
}

// assetToken is the ledger behind an asset identifier.
func assetToken(asset string) (token.Client, error) {
	addr, err := crypto.DecodeAddress(asset)
	if err != nil {
		return token.Client{}, fmt.Errorf("lending: asset %q: %w", asset, err)
	}
	return token.Client{Address: addr}, nil
}

// value sums price(asset)*amount(asset) over the assets in set.
func (c *poolCall) value(setKey string, amountOf func(ReserveAPI) (*uint256.Int, error)) (*uint256.Int, error) {
	set, err := c.st.StringSet(setKey)
	if err != nil {
		return nil, err
	}
	total := new(uint256.Int)
	for _, asset := range set.Values() {
		_, reserve, err := c.reserve(asset)
		if err != nil {
			return nil, err
		}
		amount, err := amountOf(reserve)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}
		price, err := c.prices.Price(asset)
		if err != nil {
			return nil, err
		}
		term, err := fixedpoint.Mul(price, amount)
		if err != nil {
			return nil, err
		}
		if total, err = fixedpoint.Add(total, term); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func (c *poolCall) collateralValue(user crypto.Address) (*uint256.Int, error) {
	return c.value(userKey(prefixCollateralAssets, user), func(r ReserveAPI) (*uint256.Int, error) {
		return r.UserCollateral(user)
	})
}

func (c *poolCall) debtValue(user crypto.Address) (*uint256.Int, error) {
	return c.value(userKey(prefixDebtAssets, user), func(r ReserveAPI) (*uint256.Int, error) {
		return r.UserDebt(user)
	})
}

func (c *poolCall) isLiquidatable(user crypto.Address) (bool, error) {
	debt, err := c.debtValue(user)
	if err != nil {
		return false, err
	}
	if debt.IsZero() {
		return false, nil
	}
	collateral, err := c.collateralValue(user)
	if err != nil {
		return false, err
	}
	return liquidatable(collateral, debt)
}

func (c *poolCall) updateSet(key string, fn func(*state.StringSet)) error {
	set, err := c.st.StringSet(key)
	if err != nil {
		return err
	}
	fn(set)
	return c.st.SetStringSet(key, set)
}

func (c *poolCall) deposit(asset string, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	user := c.env.Caller()
	reserveAddr, reserve, err := c.reserve(asset)
	if err != nil {
		return err
	}
	underlying, err := assetToken(asset)
	if err != nil {
		return err
	}
	if err := c.updateSet(userKey(prefixCollateralAssets, user), func(s *state.StringSet) { s.Add(asset) }); err != nil {
		return err
	}
	if err := underlying.TransferFrom(c.env, user, reserveAddr, amount); err != nil {
		return err
	}
	if err := reserve.Deposit(amount, user); err != nil {
		return err
	}
	aToken, err := reserve.ATokenAddress()
	if err != nil {
		return err
	}
	return token.Client{Address: aToken}.Mint(c.env, user, amount)
}

func (c *poolCall) borrow(asset string, amount *uint256.Int) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	user := c.env.Caller()
	_, reserve, err := c.reserve(asset)
	if err != nil {
		return err
	}
	price, err := c.prices.Price(asset)
	if err != nil {
		return err
	}
	borrowValue, err := fixedpoint.Mul(price, amount)
	if err != nil {
		return err
	}
	debtValue, err := c.debtValue(user)
	if err != nil {
		return err
	}
	collateralValue, err := c.collateralValue(user)
	if err != nil {
		return err
	}
	ok, err := withinBorrowLimit(borrowValue, debtValue, collateralValue, c.cfg.BorrowingLimitPercent)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: collateral value %s, debt value %s, requested %s",
			ErrExceedsBorrowLimit, collateralValue.Dec(), debtValue.Dec(), borrowValue.Dec())
	}
	if err := c.updateSet(userKey(prefixDebtAssets, user), func(s *state.StringSet) { s.Add(asset) }); err != nil {
		return err
	}
	if err := reserve.Borrow(amount, user); err != nil {
		return err
	}
	return c.adjustDebtAmount(user, amount, true)
}

func (c *poolCall) adjustDebtAmount(user crypto.Address, delta *uint256.Int, increase bool) error {
	key := userKey(prefixDebtAmount, user)
	cur, err := c.st.U256(key)
	if err != nil {
		return err
	}
	if increase {
		next, err := fixedpoint.Add(cur, delta)
		if err != nil {
			return err
		}
		return c.st.SetU256(key, next)
	}
	// Principal repaid in one asset may exceed the aggregate when prices or
	// assets differ; the figure is informational and floors at zero.
	if delta.Gt(cur) {
		return c.st.SetU256(key, nil)
	}
	return c.st.SetU256(key, new(uint256.Int).Sub(cur, delta))
}

// settleDebt moves amount plus the resulting interest from payer into the
// reserve and reduces user's principal by amount.
func (c *poolCall) settleDebt(asset string, user, payer crypto.Address, amount *uint256.Int) (*uint256.Int, error) {
	reserveAddr, reserve, err := c.reserve(asset)
	if err != nil {
		return nil, err
	}
	underlying, err := assetToken(asset)
	if err != nil {
		return nil, err
	}
	if err := underlying.TransferFrom(c.env, payer, reserveAddr, amount); err != nil {
		return nil, err
	}
	interest, err := reserve.Repay(amount, user)
	if err != nil {
		return nil, err
	}
	if !interest.IsZero() {
		if err := underlying.TransferFrom(c.env, payer, reserveAddr, interest); err != nil {
			return nil, err
		}
	}
	return interest, nil
}

func (c *poolCall) repay(asset string, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	user := c.env.Caller()
	debtAssets, err := c.st.StringSet(userKey(prefixDebtAssets, user))
	if err != nil {
		return nil, err
	}
	if !debtAssets.Contains(asset) {
		return nil, fmt.Errorf("%w: %s", ErrNoDebt, asset)
	}
	interest, err := c.settleDebt(asset, user, user, amount)
	if err != nil {
		return nil, err
	}
	_, reserve, err := c.reserve(asset)
	if err != nil {
		return nil, err
	}
	remaining, err := reserve.UserDebt(user)
	if err != nil {
		return nil, err
	}
	if remaining.IsZero() {
		debtAssets.Remove(asset)
		if err := c.st.SetStringSet(userKey(prefixDebtAssets, user), debtAssets); err != nil {
			return nil, err
		}
	}
	if err := c.adjustDebtAmount(user, amount, false); err != nil {
		return nil, err
	}
	return interest, nil
}

// liquidate closes an under-collateralised position. The liquidator account
// funds every debt asset and receives every collateral asset.
func (c *poolCall) liquidate(user crypto.Address) error {
	ok, err := c.isLiquidatable(user)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLiquidatable
	}
	liquidator, err := crypto.DecodeAddress(c.cfg.Liquidator)
	if err != nil {
		return fmt.Errorf("lending: stored liquidator: %w", err)
	}
	debtKey := userKey(prefixDebtAssets, user)
	collateralKey := userKey(prefixCollateralAssets, user)
	debtAssets, err := c.st.StringSet(debtKey)
	if err != nil {
		return err
	}
	collateralAssets, err := c.st.StringSet(collateralKey)
	if err != nil {
		return err
	}
	for _, asset := range debtAssets.Values() {
		_, reserve, err := c.reserve(asset)
		if err != nil {
			return err
		}
		owed, err := reserve.UserDebt(user)
		if err != nil {
			return err
		}
		if owed.IsZero() {
			continue
		}
		if _, err := c.settleDebt(asset, user, liquidator, owed); err != nil {
			return fmt.Errorf("lending: settle %s debt: %w", asset, err)
		}
	}
	var seizedAssets []string
	for _, asset := range collateralAssets.Values() {
		_, reserve, err := c.reserve(asset)
		if err != nil {
			return err
		}
		held, err := reserve.UserCollateral(user)
		if err != nil {
			return err
		}
		if held.IsZero() {
			continue
		}
		seized, err := reserve.SeizeCollateral(user, liquidator)
		if err != nil {
			return fmt.Errorf("lending: seize %s collateral: %w", asset, err)
		}
		if err := c.recordLiquidation(user, asset, seized); err != nil {
			return err
		}
		seizedAssets = append(seizedAssets, asset)
	}
	if err := c.st.SetStringSet(debtKey, nil); err != nil {
		return err
	}
	if err := c.st.SetStringSet(collateralKey, nil); err != nil {
		return err
	}
	if err := c.st.SetU256(userKey(prefixDebtAmount, user), nil); err != nil {
		return err
	}
	c.env.Logger().Info("position liquidated",
		"user", user.String(),
		"liquidator", liquidator.String(),
		"assets", strings.Join(seizedAssets, ","))
	c.env.Emit(events.Liquidation{User: user.String(), Liquidator: liquidator.String(), Assets: seizedAssets})
	return nil
}

// resolveBadDebt is the admin path for a liquidatable position nobody will
// fund: the asset's collateral goes to the liquidator account and the debt in
// that asset is written off.
func (c *poolCall) resolveBadDebt(user crypto.Address, asset string) (*uint256.Int, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	ok, err := c.isLiquidatable(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLiquidatable
	}
	liquidator, err := crypto.DecodeAddress(c.cfg.Liquidator)
	if err != nil {
		return nil, fmt.Errorf("lending: stored liquidator: %w", err)
	}
	_, reserve, err := c.reserve(asset)
	if err != nil {
		return nil, err
	}
	owed, err := reserve.UserDebt(user)
	if err != nil {
		return nil, err
	}
	seized, err := reserve.Liquidate(user, liquidator)
	if err != nil {
		return nil, err
	}
	if err := c.recordLiquidation(user, asset, seized); err != nil {
		return nil, err
	}
	if err := c.updateSet(userKey(prefixDebtAssets, user), func(s *state.StringSet) { s.Remove(asset) }); err != nil {
		return nil, err
	}
	if err := c.updateSet(userKey(prefixCollateralAssets, user), func(s *state.StringSet) { s.Remove(asset) }); err != nil {
		return nil, err
	}
	if err := c.adjustDebtAmount(user, owed, false); err != nil {
		return nil, err
	}
	c.env.Emit(events.Liquidation{User: user.String(), Liquidator: liquidator.String(), Assets: []string{asset}})
	return seized, nil
}

func (c *poolCall) recordLiquidation(user crypto.Address, asset string, seized *uint256.Int) error {
	key := state.Key(prefixLiquidation, user.String(), asset)
	prev, err := c.st.U256(key)
	if err != nil {
		return err
	}
	total, err := fixedpoint.Add(prev, seized)
	if err != nil {
		return err
	}
	if err := c.st.SetU256(key, total); err != nil {
		return err
	}
	return c.updateSet(userKey(prefixLiquidatedAssets, user), func(s *state.StringSet) { s.Add(asset) })
}

func (c *poolCall) withdrawAll(user crypto.Address) error {
	debtAssets, err := c.st.StringSet(userKey(prefixDebtAssets, user))
	if err != nil {
		return err
	}
	if debtAssets.Len() > 0 {
		return ErrOutstandingDebt
	}
	key := userKey(prefixCollateralAssets, user)
	collateralAssets, err := c.st.StringSet(key)
	if err != nil {
		return err
	}
	for _, asset := range collateralAssets.Values() {
		_, reserve, err := c.reserve(asset)
		if err != nil {
			return err
		}
		if _, err := reserve.WithdrawAllCollateral(user); err != nil {
			return fmt.Errorf("lending: withdraw %s: %w", asset, err)
		}
	}
	return c.st.SetStringSet(key, nil)
}

// claimRewards mints the caller's settled rewards as aTokens of the asset.
func (c *poolCall) claimRewards(asset string) (*uint256.Int, error) {
	_, reserve, err := c.reserve(asset)
	if err != nil {
		return nil, err
	}
	user := c.env.Caller()
	claimed, err := reserve.ClaimRewards(user)
	if err != nil {
		return nil, err
	}
	aToken, err := reserve.ATokenAddress()
	if err != nil {
		return nil, err
	}
	if err := (token.Client{Address: aToken}).Mint(c.env, user, claimed); err != nil {
		return nil, err
	}
	return claimed, nil
}
