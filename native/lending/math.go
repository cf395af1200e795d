package lending

import (
	"lendcore/native/fixedpoint"

	"github.com/holiman/uint256"
)

// ElapsedSeconds converts a millisecond window into whole seconds. A clock
// that went backwards yields zero.
func ElapsedSeconds(lastMillis, nowMillis uint64) uint64 {
	if nowMillis <= lastMillis {
		return 0
	}
	return (nowMillis - lastMillis) / 1000
}

// InterestFor returns principal*borrowRate*elapsed/SecondsPerYear, rounded
// down.
func InterestFor(principal, borrowRate *uint256.Int, elapsed uint64) (*uint256.Int, error) {
	if elapsed == 0 || principal == nil || principal.IsZero() {
		return new(uint256.Int), nil
	}
	scaled, err := fixedpoint.Mul(principal, borrowRate)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(scaled, uint256.NewInt(elapsed), uint256.NewInt(SecondsPerYear))
}

// RewardsFor returns balance*rewardRate*elapsed/(SecondsPerYear*10^precision),
// rounded down.
func RewardsFor(balance, rewardRate *uint256.Int, elapsed uint64, precision uint32) (*uint256.Int, error) {
	if elapsed == 0 || balance == nil || balance.IsZero() {
		return new(uint256.Int), nil
	}
	unit, err := fixedpoint.Pow10(precision)
	if err != nil {
		return nil, err
	}
	denominator, err := fixedpoint.Mul(uint256.NewInt(SecondsPerYear), unit)
	if err != nil {
		return nil, err
	}
	scaled, err := fixedpoint.Mul(balance, rewardRate)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(scaled, uint256.NewInt(elapsed), denominator)
}

// liquidatable reports collateral*100 < debt*CollateralFactor.
func liquidatable(collateralValue, debtValue *uint256.Int) (bool, error) {
	if debtValue.IsZero() {
		return false, nil
	}
	lhs, err := fixedpoint.Mul(collateralValue, uint256.NewInt(100))
	if err != nil {
		return false, err
	}
	rhs, err := fixedpoint.Mul(debtValue, uint256.NewInt(CollateralFactor))
	if err != nil {
		return false, err
	}
	return lhs.Lt(rhs), nil
}

// withinBorrowLimit reports borrowValue+debtValue <= collateralValue*limit/100.
func withinBorrowLimit(borrowValue, debtValue, collateralValue *uint256.Int, limitPercent uint64) (bool, error) {
	requested, err := fixedpoint.Add(borrowValue, debtValue)
	if err != nil {
		return false, err
	}
	allowed, err := fixedpoint.MulDiv(collateralValue, uint256.NewInt(limitPercent), uint256.NewInt(100))
	if err != nil {
		return false, err
	}
	return !requested.Gt(allowed), nil
}
