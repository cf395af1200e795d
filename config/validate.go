package config

import (
	"errors"
	"fmt"
	"strings"

	"lendcore/crypto"
	"lendcore/native/fixedpoint"
	"lendcore/native/token"

	"github.com/holiman/uint256"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	switch c.Database {
	case "leveldb", "memory":
	default:
		return fmt.Errorf("%w: Database must be leveldb or memory, got %q", ErrInvalidConfig, c.Database)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.Level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.RPC.RateLimitPerSecond < 0 {
		return fmt.Errorf("%w: rpc.RateLimitPerSecond must not be negative", ErrInvalidConfig)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: telemetry.SampleRatio must be within [0,1]", ErrInvalidConfig)
	}
	if c.Indexer.Enabled {
		switch c.Indexer.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("%w: indexer.Driver must be sqlite or postgres", ErrInvalidConfig)
		}
		if strings.TrimSpace(c.Indexer.DSN) == "" {
			return fmt.Errorf("%w: indexer.DSN required", ErrInvalidConfig)
		}
	}
	if c.Pool.BorrowingLimitPercent == 0 || c.Pool.BorrowingLimitPercent > 100 {
		return fmt.Errorf("%w: pool.BorrowingLimitPercent must be 1..100", ErrInvalidConfig)
	}
	if c.Pool.Liquidator != "" {
		if _, err := crypto.DecodeAddress(c.Pool.Liquidator); err != nil {
			return fmt.Errorf("%w: pool.Liquidator: %v", ErrInvalidConfig, err)
		}
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for i, asset := range c.Assets {
		if asset.Symbol == "" {
			return fmt.Errorf("%w: assets[%d]: Symbol required", ErrInvalidConfig, i)
		}
		if _, dup := seen[asset.Symbol]; dup {
			return fmt.Errorf("%w: assets[%d]: duplicate symbol %s", ErrInvalidConfig, i, asset.Symbol)
		}
		seen[asset.Symbol] = struct{}{}
		if asset.Decimals > token.MaxDecimals {
			return fmt.Errorf("%w: assets[%d]: Decimals above %d", ErrInvalidConfig, i, token.MaxDecimals)
		}
		price, err := ParseAmount(asset.Price)
		if err != nil || price.IsZero() {
			return fmt.Errorf("%w: assets[%d]: Price must be a positive integer", ErrInvalidConfig, i)
		}
		if _, err := ParseAmount(asset.BorrowRateSeed); err != nil {
			return fmt.Errorf("%w: assets[%d]: BorrowRateSeed: %v", ErrInvalidConfig, i, err)
		}
		if _, err := ParseAmount(asset.OperatorSupply); err != nil {
			return fmt.Errorf("%w: assets[%d]: OperatorSupply: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

// ParseAmount reads a base-10 amount; blank means zero.
func ParseAmount(raw string) (*uint256.Int, error) {
	if strings.TrimSpace(raw) == "" {
		return new(uint256.Int), nil
	}
	return fixedpoint.Parse(strings.TrimSpace(raw))
}
