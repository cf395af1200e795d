package lending

// Rate curve constants. Rates use a 10_000 = 1.0 convention.
const (
	Scale         = 10_000
	MinBorrowRate = 3_000
	MaxBorrowRate = 100_000
	MinRewardRate = 500
	MaxRewardRate = 2_000

	// RewardCapPercent caps the reward rate relative to the borrow rate.
	RewardCapPercent = 90

	SecondsPerYear = 365 * 24 * 3600

	// CollateralFactor is the over-collateralisation, in percent, below
	// which a position may be liquidated.
	CollateralFactor = 150

	// DefaultBorrowingLimitPercent is the loan-to-value ceiling used when
	// none is configured.
	DefaultBorrowingLimitPercent = 75
)
