package lending

import (
	"errors"
	"testing"
	"time"

	"lendcore/core/args"

	"github.com/stretchr/testify/require"
)

func TestReserveRejectsNonPoolCallers(t *testing.T) {
	w := newWorld(t, []string{"TKA"})
	alice := account(0xA1)
	reserve := w.markets["TKA"].reserve
	impostor := ReserveClient{Address: reserve.Address, Via: w.session(alice)}

	input := func(b *args.Builder) []byte { return b.MustEncode() }
	calls := map[string][]byte{
		"deposit":                  input(args.New().AddU256(u(1)).AddAddress(alice)),
		"borrow":                   input(args.New().AddU256(u(1)).AddAddress(alice)),
		"repay":                    input(args.New().AddU256(u(1)).AddAddress(alice)),
		"liquidate":                input(args.New().AddAddress(alice).AddAddress(alice)),
		"seizeCollateral":          input(args.New().AddAddress(alice).AddAddress(alice)),
		"withdrawAllCollateral":    input(args.New().AddAddress(alice)),
		"claimRewards":             input(args.New().AddAddress(alice)),
		"calculateAccruedInterest": input(args.New().AddAddress(alice)),
		"calculateAndStoreRewards": input(args.New().AddAddress(alice)),
	}
	for method, in := range calls {
		if _, err := impostor.Via.Call(reserve.Address, method, in); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", method, err)
		}
	}
	// Views stay open.
	if _, err := impostor.ReserveBalance(); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestReserveConstructorRunsOnce(t *testing.T) {
	w := newWorld(t, []string{"TKA"})
	m := w.markets["TKA"]
	ctor, err := ReserveConstructorArgs(m.token.Address, m.aToken.Address, w.pool.Address, u(0))
	require.NoError(t, err)
	_, err = w.session(w.admin).Call(m.reserve.Address, "constructor", ctor)
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	precision, err := m.reserve.Precision()
	require.NoError(t, err)
	require.Zero(t, precision)
	pool, err := m.reserve.PoolAddress()
	require.NoError(t, err)
	require.True(t, pool.Equal(w.pool.Address))
}

func TestReserveFirstSettlementOnlyStartsClock(t *testing.T) {
	w := newWorld(t, []string{"TKA"})
	reserve := w.markets["TKA"].reserve
	stranger := account(0x77)

	// The reserve is empty so rates cannot be evaluated, but a fresh user
	// never reaches the rate curve.
	interest, err := reserve.AccrueInterest(stranger)
	require.NoError(t, err)
	require.True(t, interest.IsZero())
	w.advance(time.Hour)
	rewards, err := reserve.AccrueRewards(stranger)
	require.NoError(t, err)
	require.True(t, rewards.IsZero())
}

func TestReserveBorrowNeedsLiquidity(t *testing.T) {
	w := newWorld(t, []string{"TKA"})
	reserve := w.markets["TKA"].reserve
	err := reserve.Borrow(u(1), account(0xA1))
	require.ErrorIs(t, err, ErrInsufficientReserve)
	err = reserve.Deposit(u(0), account(0xA1))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReserveAccrualRepayRoundTrip(t *testing.T) {
	w := newWorld(t, []string{"TKA"})
	alice := account(0xA1)
	m := w.markets["TKA"]
	asset := m.token.Address
	w.fund("TKA", alice, 10_000)

	w.deposit("TKA", alice, 1_000)
	require.NoError(t, w.pool.Borrow(w.session(alice), asset, u(500)))

	unlocked, err := m.reserve.UserBalance(alice)
	require.NoError(t, err)
	require.EqualValues(t, 500, unlocked.Uint64(), "borrow locks matching free balance")
	rates, err := m.reserve.Rates()
	require.NoError(t, err)
	require.EqualValues(t, 5_000, rates.Utilization.Uint64())
	require.EqualValues(t, 51_500, rates.Borrow.Uint64())

	w.advance(time.Hour)
	interest, err := m.reserve.AccrueInterest(alice)
	require.NoError(t, err)
	require.EqualValues(t, 2_939, interest.Uint64())
	pending, err := m.reserve.PendingInterest(alice)
	require.NoError(t, err)
	require.EqualValues(t, 2_939, pending.Uint64())

	// Rewards were settled by the same call; nothing more accrues at the
	// same instant.
	delta, err := m.reserve.AccrueRewards(alice)
	require.NoError(t, err)
	require.True(t, delta.IsZero())
	rewards, err := m.reserve.UserRewards(alice)
	require.NoError(t, err)
	require.EqualValues(t, 142, rewards.Uint64())

	_, err = m.reserve.Repay(u(500+2_939+1), alice)
	require.ErrorIs(t, err, ErrRepayExceedsDebt)
	_, err = m.reserve.Repay(u(501), alice)
	require.ErrorIs(t, err, ErrRepayExceedsPrincipal)

	charged, err := w.pool.Repay(w.session(alice), asset, u(500))
	require.NoError(t, err)
	require.EqualValues(t, 2_939, charged.Uint64())
	require.EqualValues(t, 10_000-1_000+500-500-2_939, w.balance("TKA", alice))

	debt, err := m.reserve.UserDebt(alice)
	require.NoError(t, err)
	require.True(t, debt.IsZero())
	free, err := m.reserve.UserBalance(alice)
	require.NoError(t, err)
	require.EqualValues(t, 1_000, free.Uint64(), "full repayment unlocks collateral")
	liquidity, err := m.reserve.ReserveBalance()
	require.NoError(t, err)
	require.EqualValues(t, 1_000-500+500+2_939, liquidity.Uint64())
	borrowed, err := m.reserve.TotalBorrowed()
	require.NoError(t, err)
	require.True(t, borrowed.IsZero())
	debtAssets, err := w.pool.DebtAssets(w.reader(), alice)
	require.NoError(t, err)
	require.Empty(t, debtAssets)

	claimed, err := w.pool.ClaimRewards(w.session(alice), asset)
	require.NoError(t, err)
	require.EqualValues(t, 142, claimed.Uint64())
	_, err = w.pool.ClaimRewards(w.session(alice), asset)
	require.ErrorIs(t, err, ErrNoRewardsAvailable)
	receipts, err := m.aToken.BalanceOf(w.reader(), alice)
	require.NoError(t, err)
	require.EqualValues(t, 1_000+142, receipts.Uint64(), "rewards are paid in aTokens")
	liquidity, err = m.reserve.ReserveBalance()
	require.NoError(t, err)
	require.EqualValues(t, 1_000+2_939, liquidity.Uint64(), "claims leave liquidity untouched")

	require.NoError(t, w.pool.WithdrawAllCollateral(w.session(alice)))
	require.EqualValues(t, 10_000-2_939, w.balance("TKA", alice))
	collateralAssets, err := w.pool.CollateralAssets(w.reader(), alice)
	require.NoError(t, err)
	require.Empty(t, collateralAssets)
	liquidity, err = m.reserve.ReserveBalance()
	require.NoError(t, err)
	require.EqualValues(t, 2_939, liquidity.Uint64())
}

func TestReserveRepayWithoutDebt(t *testing.T) {
	w := newWorld(t, []string{"TKA"})
	_, err := w.markets["TKA"].reserve.Repay(u(1), account(0xA1))
	require.ErrorIs(t, err, ErrNoDebt)
	_, err = w.markets["TKA"].reserve.Liquidate(account(0xA1), w.liquidator)
	require.ErrorIs(t, err, ErrNoDebt)
	_, err = w.markets["TKA"].reserve.SeizeCollateral(account(0xA1), w.liquidator)
	require.ErrorIs(t, err, ErrNoCollateral)
}
