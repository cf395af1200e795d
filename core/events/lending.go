package events

import (
	"lendcore/core/types"

	"github.com/holiman/uint256"
)

const (
	TypeLendingDeposit            = "lending.deposit"
	TypeLendingBorrow             = "lending.borrow"
	TypeLendingRepay              = "lending.repay"
	TypeLendingLiquidation        = "lending.liquidation"
	TypeLendingCollateralSeized   = "lending.collateral_seized"
	TypeLendingCollateralWithdraw = "lending.collateral_withdrawn"
	TypeLendingRewardsClaimed     = "lending.rewards_claimed"
	TypeLendingReserveAdded       = "lending.reserve_added"
	TypeLendingAccrued            = "lending.accrued"
	TypeLendingPauseChanged       = "lending.pause_changed"
)

// Deposit is emitted by a reserve when collateral is supplied.
type Deposit struct {
	Reserve string
	User    string
	Amount  *uint256.Int
}

func (Deposit) EventType() string { return TypeLendingDeposit }

func (e Deposit) Event() *types.Event {
	return &types.Event{Type: TypeLendingDeposit, Attributes: map[string]string{
		"reserve": e.Reserve,
		"user":    e.User,
		"amount":  formatAmount(e.Amount),
	}}
}

type Borrow struct {
	Reserve string
	User    string
	Amount  *uint256.Int
	Locked  *uint256.Int
}

func (Borrow) EventType() string { return TypeLendingBorrow }

func (e Borrow) Event() *types.Event {
	return &types.Event{Type: TypeLendingBorrow, Attributes: map[string]string{
		"reserve": e.Reserve,
		"user":    e.User,
		"amount":  formatAmount(e.Amount),
		"locked":  formatAmount(e.Locked),
	}}
}

type Repay struct {
	Reserve   string
	User      string
	Principal *uint256.Int
	Interest  *uint256.Int
	Remaining *uint256.Int
}

func (Repay) EventType() string { return TypeLendingRepay }

func (e Repay) Event() *types.Event {
	return &types.Event{Type: TypeLendingRepay, Attributes: map[string]string{
		"reserve":   e.Reserve,
		"user":      e.User,
		"principal": formatAmount(e.Principal),
		"interest":  formatAmount(e.Interest),
		"remaining": formatAmount(e.Remaining),
	}}
}

// Liquidation is emitted by the pool once per liquidated position.
type Liquidation struct {
	User       string
	Liquidator string
	Assets     []string
}

func (Liquidation) EventType() string { return TypeLendingLiquidation }

func (e Liquidation) Event() *types.Event {
	assets := ""
	for i, a := range e.Assets {
		if i > 0 {
			assets += ","
		}
		assets += normalizeSymbol(a)
	}
	return &types.Event{Type: TypeLendingLiquidation, Attributes: map[string]string{
		"user":       e.User,
		"liquidator": e.Liquidator,
		"assets":     assets,
	}}
}

// CollateralSeized is emitted by a reserve for every seizure.
type CollateralSeized struct {
	Reserve    string
	Asset      string
	User       string
	Liquidator string
	Amount     *uint256.Int
	WrittenOff *uint256.Int
}

func (CollateralSeized) EventType() string { return TypeLendingCollateralSeized }

func (e CollateralSeized) Event() *types.Event {
	return &types.Event{Type: TypeLendingCollateralSeized, Attributes: map[string]string{
		"reserve":    e.Reserve,
		"asset":      e.Asset,
		"user":       e.User,
		"liquidator": e.Liquidator,
		"amount":     formatAmount(e.Amount),
		"writtenOff": formatAmount(e.WrittenOff),
	}}
}

type CollateralWithdrawn struct {
	Reserve string
	User    string
	Amount  *uint256.Int
}

func (CollateralWithdrawn) EventType() string { return TypeLendingCollateralWithdraw }

func (e CollateralWithdrawn) Event() *types.Event {
	return &types.Event{Type: TypeLendingCollateralWithdraw, Attributes: map[string]string{
		"reserve": e.Reserve,
		"user":    e.User,
		"amount":  formatAmount(e.Amount),
	}}
}

type RewardsClaimed struct {
	Reserve string
	User    string
	Amount  *uint256.Int
}

func (RewardsClaimed) EventType() string { return TypeLendingRewardsClaimed }

func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeLendingRewardsClaimed, Attributes: map[string]string{
		"reserve": e.Reserve,
		"user":    e.User,
		"amount":  formatAmount(e.Amount),
	}}
}

type ReserveAdded struct {
	Asset   string
	Reserve string
}

func (ReserveAdded) EventType() string { return TypeLendingReserveAdded }

func (e ReserveAdded) Event() *types.Event {
	return &types.Event{Type: TypeLendingReserveAdded, Attributes: map[string]string{
		"asset":   e.Asset,
		"reserve": e.Reserve,
	}}
}

// Accrued records a settlement of interest and rewards for one user.
type Accrued struct {
	Reserve        string
	User           string
	ElapsedSeconds uint64
	Interest       *uint256.Int
	Rewards        *uint256.Int
}

func (Accrued) EventType() string { return TypeLendingAccrued }

func (e Accrued) Event() *types.Event {
	return &types.Event{Type: TypeLendingAccrued, Attributes: map[string]string{
		"reserve":  e.Reserve,
		"user":     e.User,
		"elapsed":  uint256.NewInt(e.ElapsedSeconds).Dec(),
		"interest": formatAmount(e.Interest),
		"rewards":  formatAmount(e.Rewards),
	}}
}

// PauseChanged is emitted when an admin halts or resumes a pool action.
type PauseChanged struct {
	Action string
	Paused bool
}

func (PauseChanged) EventType() string { return TypeLendingPauseChanged }

func (e PauseChanged) Event() *types.Event {
	paused := "false"
	if e.Paused {
		paused = "true"
	}
	return &types.Event{Type: TypeLendingPauseChanged, Attributes: map[string]string{
		"action": e.Action,
		"paused": paused,
	}}
}
