package lending

import (
	"errors"

	"lendcore/native/common"
	"lendcore/native/fixedpoint"
)

var (
	ErrUnauthorized          = errors.New("lending: unauthorized caller")
	ErrInvalidAmount         = errors.New("lending: amount must be positive")
	ErrZeroTotalAssets       = errors.New("lending: reserve has no assets")
	ErrRepayExceedsDebt      = errors.New("lending: repay amount exceeds debt plus interest")
	ErrRepayExceedsPrincipal = errors.New("lending: repay amount exceeds principal")
	ErrExceedsBorrowLimit    = errors.New("lending: borrow exceeds collateral limit")
	ErrNotLiquidatable       = errors.New("lending: position is not liquidatable")
	ErrNoDebt                = errors.New("lending: no outstanding debt")
	ErrNoCollateral          = errors.New("lending: no collateral")
	ErrInsufficientReserve   = errors.New("lending: insufficient reserve liquidity")
	ErrReentrancyDetected    = errors.New("lending: reentrancy detected")
	ErrAlreadyInitialized    = errors.New("lending: already initialized")
	ErrNotInitialized        = errors.New("lending: not initialized")
	ErrReserveNotFound       = errors.New("lending: reserve not found")
	ErrReserveMismatch       = errors.New("lending: reserve does not manage asset")
	ErrOutstandingDebt       = errors.New("lending: outstanding debt")
	ErrNoRewardsAvailable    = errors.New("lending: no rewards available")
	ErrPriceUnavailable      = errors.New("lending: price unavailable")
	ErrInvalidLimit          = errors.New("lending: borrowing limit must be between 1 and 100")
	ErrInvalidAction         = errors.New("lending: unknown action")

	ErrPaused = common.ErrPaused

	// Checked-math failures surface with the shared fixedpoint identities so
	// errors.Is works across package boundaries.
	ErrArithmeticOverflow  = fixedpoint.ErrArithmeticOverflow
	ErrArithmeticUnderflow = fixedpoint.ErrArithmeticUnderflow
)
