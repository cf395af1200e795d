package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lendcore/crypto"

	"github.com/BurntSushi/toml"
)

// Config is the lendingd node configuration.
type Config struct {
	DataDir string `toml:"DataDir"`
	// Database is "leveldb" or "memory".
	Database             string `toml:"Database"`
	Environment          string `toml:"Environment"`
	OperatorKeystorePath string `toml:"OperatorKeystorePath"`

	Log       Log       `toml:"log"`
	RPC       RPC       `toml:"rpc"`
	Telemetry Telemetry `toml:"telemetry"`
	Indexer   Indexer   `toml:"indexer"`
	Pool      Pool      `toml:"pool"`
	Assets    []Asset   `toml:"assets"`
}

type loadOptions struct {
	passphrase    string
	lightKeystore bool
}

// LoadOption tunes Load.
type LoadOption func(*loadOptions)

// WithKeystorePassphrase sets the passphrase protecting a keystore that Load
// has to create.
func WithKeystorePassphrase(passphrase string) LoadOption {
	return func(o *loadOptions) { o.passphrase = passphrase }
}

// WithLightKeystore uses cheap scrypt parameters for generated keystores.
func WithLightKeystore() LoadOption {
	return func(o *loadOptions) { o.lightKeystore = true }
}

// Load reads the configuration at path, creating a default file and operator
// keystore when it does not exist. Unknown keys are rejected.
func Load(path string, opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createDefault(path, o)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	if err := ensureKeystore(path, cfg, o); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration for a local node with two markets.
func Default() *Config {
	cfg := &Config{
		DataDir:     "./lend-data",
		Database:    "leveldb",
		Environment: "local",
		Pool:        Pool{BorrowingLimitPercent: 75},
		Assets: []Asset{
			{Symbol: "USDC", Name: "USD Coin", Decimals: 6, Price: "1", OperatorSupply: "1000000000000"},
			{Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Price: "2000", OperatorSupply: "1000000000000000000000"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./lend-data"
	}
	if strings.TrimSpace(c.Database) == "" {
		c.Database = "leveldb"
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
	if c.Log.File != "" {
		if c.Log.MaxSizeMB == 0 {
			c.Log.MaxSizeMB = 100
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = 5
		}
		if c.Log.MaxAgeDays == 0 {
			c.Log.MaxAgeDays = 28
		}
	}
	if strings.TrimSpace(c.RPC.ListenAddress) == "" {
		c.RPC.ListenAddress = ":8645"
	}
	if c.RPC.RateBurst == 0 && c.RPC.RateLimitPerSecond > 0 {
		c.RPC.RateBurst = int(c.RPC.RateLimitPerSecond * 2)
		if c.RPC.RateBurst < 1 {
			c.RPC.RateBurst = 1
		}
	}
	if c.RPC.ReadHeaderTimeout == 0 {
		c.RPC.ReadHeaderTimeout = 5
	}
	if c.RPC.ReadTimeout == 0 {
		c.RPC.ReadTimeout = 15
	}
	if c.RPC.WriteTimeout == 0 {
		c.RPC.WriteTimeout = 15
	}
	if c.RPC.IdleTimeout == 0 {
		c.RPC.IdleTimeout = 60
	}
	if c.RPC.MaxBodyBytes == 0 {
		c.RPC.MaxBodyBytes = 1 << 20
	}
	if c.RPC.EventBuffer == 0 {
		c.RPC.EventBuffer = 64
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
	if c.Indexer.Driver == "" {
		c.Indexer.Driver = "sqlite"
	}
	if c.Indexer.Driver == "sqlite" && c.Indexer.DSN == "" {
		c.Indexer.DSN = filepath.Join(c.DataDir, "index.db")
	}
	if c.Pool.BorrowingLimitPercent == 0 {
		c.Pool.BorrowingLimitPercent = 75
	}
	for i := range c.Assets {
		c.Assets[i].Symbol = strings.ToUpper(strings.TrimSpace(c.Assets[i].Symbol))
		if c.Assets[i].Name == "" {
			c.Assets[i].Name = c.Assets[i].Symbol
		}
	}
}

func ensureKeystore(configPath string, cfg *Config, o loadOptions) error {
	keystorePath := cfg.OperatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); errors.Is(err, os.ErrNotExist) {
		if err := writeKeystore(keystorePath, o); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystorePath != keystorePath {
		cfg.OperatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

func writeKeystore(path string, o loadOptions) error {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	var ksOpts []crypto.KeystoreOption
	if o.lightKeystore {
		ksOpts = append(ksOpts, crypto.WithLightScrypt())
	}
	if err := crypto.SaveToKeystore(path, key, o.passphrase, ksOpts...); err != nil {
		return fmt.Errorf("config: write operator keystore: %w", err)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string, o loadOptions) (*Config, error) {
	cfg := Default()
	cfg.OperatorKeystorePath = defaultKeystorePath(path)
	if err := writeKeystore(cfg.OperatorKeystorePath, o); err != nil {
		return nil, err
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
