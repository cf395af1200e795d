package lending

import (
	"math/big"

	"lendcore/crypto"

	"github.com/holiman/uint256"
)

// ReserveConfig is bound once by the reserve constructor.
type ReserveConfig struct {
	Token          string
	AToken         string
	Pool           string
	Precision      uint32
	BorrowRateSeed *big.Int
}

// PoolConfig is bound once by the pool constructor.
type PoolConfig struct {
	Admin                 string
	Oracle                string
	Liquidator            string
	BorrowingLimitPercent uint64
}

// ReserveAPI is the surface the pool needs from a reserve.
type ReserveAPI interface {
	Deposit(amount *uint256.Int, user crypto.Address) error
	Borrow(amount *uint256.Int, user crypto.Address) error
	Repay(amount *uint256.Int, user crypto.Address) (*uint256.Int, error)
	Liquidate(user, liquidator crypto.Address) (*uint256.Int, error)
	SeizeCollateral(user, liquidator crypto.Address) (*uint256.Int, error)
	WithdrawAllCollateral(user crypto.Address) (*uint256.Int, error)
	ClaimRewards(user crypto.Address) (*uint256.Int, error)
	UserCollateral(user crypto.Address) (*uint256.Int, error)
	UserDebt(user crypto.Address) (*uint256.Int, error)
	TokenAddress() (crypto.Address, error)
	ATokenAddress() (crypto.Address, error)
}

// PriceSource prices an asset identified by its token address.
type PriceSource interface {
	Price(asset string) (*uint256.Int, error)
}

// Position summarises a user's standing in the pool.
type Position struct {
	CollateralAssets []string
	DebtAssets       []string
	CollateralValue  *uint256.Int
	DebtValue        *uint256.Int
	Liquidatable     bool
}
