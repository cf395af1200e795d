package lending

import (
	"lendcore/native/fixedpoint"

	"github.com/holiman/uint256"
)

// Rates is the output of the utilisation curve.
type Rates struct {
	Utilization *uint256.Int
	Borrow      *uint256.Int
	Reward      *uint256.Int
}

// CalculateRates maps reserve utilisation onto the borrow and reward curves.
// utilisation = borrowed*Scale/(liquidity+borrowed); each rate moves linearly
// from its minimum to its maximum as utilisation goes from 0 to Scale. The
// reward rate never reaches the borrow rate: if it would, it is capped at
// RewardCapPercent of the borrow rate.
func CalculateRates(liquidity, borrowed *uint256.Int) (Rates, error) {
	total, err := fixedpoint.Add(liquidity, borrowed)
	if err != nil {
		return Rates{}, err
	}
	if total.IsZero() {
		return Rates{}, ErrZeroTotalAssets
	}
	scale := uint256.NewInt(Scale)
	util, err := fixedpoint.MulDiv(borrowed, scale, total)
	if err != nil {
		return Rates{}, err
	}
	borrowRate, err := along(MinBorrowRate, MaxBorrowRate, util)
	if err != nil {
		return Rates{}, err
	}
	rewardRate, err := along(MinRewardRate, MaxRewardRate, util)
	if err != nil {
		return Rates{}, err
	}
	if !rewardRate.Lt(borrowRate) {
		rewardRate, err = fixedpoint.MulDiv(borrowRate, uint256.NewInt(RewardCapPercent), uint256.NewInt(100))
		if err != nil {
			return Rates{}, err
		}
	}
	return Rates{Utilization: util, Borrow: borrowRate, Reward: rewardRate}, nil
}

func along(lo, hi uint64, util *uint256.Int) (*uint256.Int, error) {
	span, err := fixedpoint.MulDiv(uint256.NewInt(hi-lo), util, uint256.NewInt(Scale))
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(uint256.NewInt(lo), span)
}
