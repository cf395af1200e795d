package lending

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestCalculateRatesEndpoints(t *testing.T) {
	tests := []struct {
		name      string
		liquidity uint64
		borrowed  uint64
		util      uint64
		borrow    uint64
		reward    uint64
	}{
		{name: "idle", liquidity: 1_000, borrowed: 0, util: 0, borrow: MinBorrowRate, reward: MinRewardRate},
		{name: "fully drawn", liquidity: 0, borrowed: 1_000, util: Scale, borrow: MaxBorrowRate, reward: MaxRewardRate},
		{name: "half", liquidity: 500, borrowed: 500, util: 5_000, borrow: 51_500, reward: 1_250},
		{name: "rounding", liquidity: 2, borrowed: 1, util: 3_333, borrow: 35_330, reward: 999},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rates, err := CalculateRates(uint256.NewInt(tc.liquidity), uint256.NewInt(tc.borrowed))
			if err != nil {
				t.Fatalf("rates: %v", err)
			}
			if rates.Utilization.Uint64() != tc.util {
				t.Fatalf("utilization: got %d want %d", rates.Utilization.Uint64(), tc.util)
			}
			if rates.Borrow.Uint64() != tc.borrow {
				t.Fatalf("borrow rate: got %d want %d", rates.Borrow.Uint64(), tc.borrow)
			}
			if rates.Reward.Uint64() != tc.reward {
				t.Fatalf("reward rate: got %d want %d", rates.Reward.Uint64(), tc.reward)
			}
		})
	}
}

func TestCalculateRatesBounds(t *testing.T) {
	for liquidity := uint64(0); liquidity <= 40; liquidity += 3 {
		for borrowed := uint64(0); borrowed <= 40; borrowed += 7 {
			if liquidity+borrowed == 0 {
				continue
			}
			rates, err := CalculateRates(uint256.NewInt(liquidity), uint256.NewInt(borrowed))
			if err != nil {
				t.Fatalf("rates(%d,%d): %v", liquidity, borrowed, err)
			}
			b, r := rates.Borrow.Uint64(), rates.Reward.Uint64()
			if b < MinBorrowRate || b > MaxBorrowRate {
				t.Fatalf("borrow rate %d out of range", b)
			}
			if r < MinRewardRate || r > MaxRewardRate {
				t.Fatalf("reward rate %d out of range", r)
			}
			if r*100 > b*RewardCapPercent {
				t.Fatalf("reward rate %d exceeds %d%% of borrow rate %d", r, RewardCapPercent, b)
			}
		}
	}
}

func TestCalculateRatesEmptyReserve(t *testing.T) {
	if _, err := CalculateRates(new(uint256.Int), new(uint256.Int)); !errors.Is(err, ErrZeroTotalAssets) {
		t.Fatalf("expected ErrZeroTotalAssets, got %v", err)
	}
}

func TestCalculateRatesOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	if _, err := CalculateRates(max, uint256.NewInt(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}
