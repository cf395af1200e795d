package lending

import (
	"context"
	"testing"
	"time"

	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/native/oracle"
	"lendcore/native/token"
	"lendcore/storage"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func account(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = 0x42
	raw[19] = b
	return crypto.NewAddress(crypto.AccountPrefix, raw)
}

type market struct {
	token   token.Client
	aToken  token.Client
	reserve ReserveClient
}

type world struct {
	t          *testing.T
	ctx        context.Context
	host       *host.Host
	clock      *host.ManualClock
	admin      crypto.Address
	liquidator crypto.Address
	oracle     oracle.Client
	pool       PoolClient
	markets    map[string]market
}

type worldOption func(*worldConfig)

type worldConfig struct {
	poolOpts []PoolOption
}

func withPoolOptions(opts ...PoolOption) worldOption {
	return func(c *worldConfig) { c.poolOpts = append(c.poolOpts, opts...) }
}

// newWorld deploys an oracle, a pool with a 75% borrowing limit and one
// zero-decimal market per symbol, each priced at 1.
func newWorld(t *testing.T, symbols []string, opts ...worldOption) *world {
	t.Helper()
	var cfg worldConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	clock := host.NewManualClock(1_700_000_000_000)
	w := &world{
		t:          t,
		ctx:        context.Background(),
		clock:      clock,
		host:       host.New(storage.NewMemDB(), host.WithClock(clock)),
		admin:      account(0x01),
		liquidator: account(0x0F),
		markets:    make(map[string]market),
	}
	oracleAddr := crypto.ContractAddress(w.admin, "oracle")
	poolAddr := crypto.ContractAddress(w.admin, "pool")
	w.oracle = oracle.Client{Address: oracleAddr}
	w.pool = PoolClient{Address: poolAddr}

	require.NoError(t, w.host.Deploy(w.ctx, w.admin, oracleAddr, oracle.New(), nil))
	ctor, err := PoolConstructorArgs(DefaultBorrowingLimitPercent, oracleAddr, w.liquidator)
	require.NoError(t, err)
	require.NoError(t, w.host.Deploy(w.ctx, w.admin, poolAddr, NewPool(cfg.poolOpts...), ctor))

	for _, symbol := range symbols {
		w.addMarket(symbol)
	}
	return w
}

func (w *world) addMarket(symbol string) market {
	t := w.t
	t.Helper()
	tokenAddr := crypto.ContractAddress(w.admin, "token/"+symbol)
	aTokenAddr := crypto.ContractAddress(w.admin, "atoken/"+symbol)
	reserveAddr := crypto.ContractAddress(w.admin, "reserve/"+symbol)

	ctor, err := token.ConstructorArgs(symbol, symbol, 0, "")
	require.NoError(t, err)
	require.NoError(t, w.host.Deploy(w.ctx, w.admin, tokenAddr, token.New(), ctor))
	ctor, err = token.ConstructorArgs("a"+symbol, "a"+symbol, 0, w.pool.Address.String())
	require.NoError(t, err)
	require.NoError(t, w.host.Deploy(w.ctx, w.admin, aTokenAddr, token.New(), ctor))
	ctor, err = ReserveConstructorArgs(tokenAddr, aTokenAddr, w.pool.Address, uint256.NewInt(MinBorrowRate))
	require.NoError(t, err)
	require.NoError(t, w.host.Deploy(w.ctx, w.admin, reserveAddr, NewReserve(), ctor))

	admin := w.session(w.admin)
	require.NoError(t, w.oracle.AddToken(admin, symbol, tokenAddr.String(), uint256.NewInt(1)))
	require.NoError(t, w.pool.AddReserve(admin, tokenAddr, reserveAddr))

	m := market{
		token:   token.Client{Address: tokenAddr},
		aToken:  token.Client{Address: aTokenAddr},
		reserve: ReserveClient{Address: reserveAddr, Via: w.session(w.pool.Address)},
	}
	w.markets[symbol] = m
	return m
}

func (w *world) session(from crypto.Address) host.Session {
	return host.NewSession(w.ctx, w.host, from)
}

func (w *world) reader() host.Session {
	return w.session(w.admin).Reader()
}

// fund mints amount of symbol to user and approves the pool for all of it.
func (w *world) fund(symbol string, user crypto.Address, amount uint64) {
	w.t.Helper()
	m := w.markets[symbol]
	require.NoError(w.t, m.token.Mint(w.session(w.admin), user, uint256.NewInt(amount)))
	require.NoError(w.t, m.token.Approve(w.session(user), w.pool.Address, uint256.NewInt(1<<62)))
}

func (w *world) deposit(symbol string, user crypto.Address, amount uint64) {
	w.t.Helper()
	require.NoError(w.t, w.pool.Deposit(w.session(user), w.markets[symbol].token.Address, uint256.NewInt(amount)))
}

func (w *world) setPrice(symbol string, price uint64) {
	w.t.Helper()
	require.NoError(w.t, w.oracle.UpdatePrices(w.session(w.admin),
		[]string{symbol}, []string{""}, []string{uint256.NewInt(price).Dec()}))
}

func (w *world) balance(symbol string, owner crypto.Address) uint64 {
	w.t.Helper()
	v, err := w.markets[symbol].token.BalanceOf(w.reader(), owner)
	require.NoError(w.t, err)
	return v.Uint64()
}

func (w *world) advance(d time.Duration) {
	w.clock.Advance(d)
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }
