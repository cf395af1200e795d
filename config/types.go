package config

// Log controls the structured logger.
type Log struct {
	Level string `toml:"Level"`
	// File, when set, receives log lines in addition to stdout and is
	// rotated by size.
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// RPC controls the HTTP surface.
type RPC struct {
	ListenAddress string `toml:"ListenAddress"`
	// RateLimitPerSecond bounds requests per client IP; zero disables
	// throttling.
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateBurst          int     `toml:"RateBurst"`
	ReadHeaderTimeout  int     `toml:"ReadHeaderTimeout"`
	ReadTimeout        int     `toml:"ReadTimeout"`
	WriteTimeout       int     `toml:"WriteTimeout"`
	IdleTimeout        int     `toml:"IdleTimeout"`
	MaxBodyBytes       int64   `toml:"MaxBodyBytes"`
	EventBuffer        int     `toml:"EventBuffer"`
}

type Telemetry struct {
	Enabled     bool    `toml:"Enabled"`
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Indexer mirrors committed events into a relational store.
type Indexer struct {
	Enabled bool `toml:"Enabled"`
	// Driver is "sqlite" or "postgres".
	Driver    string `toml:"Driver"`
	DSN       string `toml:"DSN"`
	ExportDir string `toml:"ExportDir"`
}

// Pool seeds the lending pool at genesis.
type Pool struct {
	BorrowingLimitPercent uint64 `toml:"BorrowingLimitPercent"`
	// Liquidator funds liquidations; empty means the operator account.
	Liquidator string `toml:"Liquidator"`
}

// Asset describes one market created at genesis. Amounts are base-10
// strings in the token's smallest unit.
type Asset struct {
	Symbol         string `toml:"Symbol"`
	Name           string `toml:"Name"`
	Decimals       uint32 `toml:"Decimals"`
	Price          string `toml:"Price"`
	BorrowRateSeed string `toml:"BorrowRateSeed"`
	OperatorSupply string `toml:"OperatorSupply"`
}
