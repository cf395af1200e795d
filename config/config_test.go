package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKeystorePassphrase = "test-passphrase"

func loadTest(t *testing.T, path string) (*Config, error) {
	t.Helper()
	return Load(path, WithKeystorePassphrase(testKeystorePassphrase), WithLightKeystore())
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lendingd.toml")
	cfg, err := loadTest(t, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database != "leveldb" || cfg.Pool.BorrowingLimitPercent != 75 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Assets) != 2 {
		t.Fatalf("expected two default assets, got %d", len(cfg.Assets))
	}
	if _, err := os.Stat(cfg.OperatorKeystorePath); err != nil {
		t.Fatalf("keystore not written: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not persisted: %v", err)
	}

	again, err := loadTest(t, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.OperatorKeystorePath != cfg.OperatorKeystorePath {
		t.Fatalf("keystore path changed: %s vs %s", again.OperatorKeystorePath, cfg.OperatorKeystorePath)
	}
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lendingd.toml")
	contents := `DataDir = "./data"
Database = "memory"
Environment = "staging"

[log]
Level = "debug"
File = "./lendingd.log"

[rpc]
ListenAddress = "127.0.0.1:9000"
RateLimitPerSecond = 5

[telemetry]
Enabled = true
Endpoint = "collector:4318"
SampleRatio = 0.25

[indexer]
Enabled = true
Driver = "postgres"
DSN = "host=db user=lend dbname=lend"

[pool]
BorrowingLimitPercent = 60

[[assets]]
Symbol = "dai"
Decimals = 18
Price = "1"
OperatorSupply = "5000"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadTest(t, path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Database != "memory" || cfg.Environment != "staging" {
		t.Fatalf("unexpected top level: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxSizeMB != 100 {
		t.Fatalf("unexpected log section: %+v", cfg.Log)
	}
	if cfg.RPC.ListenAddress != "127.0.0.1:9000" || cfg.RPC.RateBurst != 10 {
		t.Fatalf("unexpected rpc section: %+v", cfg.RPC)
	}
	if cfg.Telemetry.SampleRatio != 0.25 || !cfg.Telemetry.Enabled {
		t.Fatalf("unexpected telemetry: %+v", cfg.Telemetry)
	}
	if cfg.Indexer.Driver != "postgres" {
		t.Fatalf("unexpected indexer: %+v", cfg.Indexer)
	}
	if cfg.Pool.BorrowingLimitPercent != 60 {
		t.Fatalf("unexpected pool: %+v", cfg.Pool)
	}
	if len(cfg.Assets) != 1 || cfg.Assets[0].Symbol != "DAI" || cfg.Assets[0].Name != "DAI" {
		t.Fatalf("unexpected assets: %+v", cfg.Assets)
	}
	if cfg.OperatorKeystorePath == "" {
		t.Fatalf("expected keystore path to be filled in")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lendingd.toml")
	if err := os.WriteFile(path, []byte("DataDir = \"x\"\nValidatorKey = \"abc\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := loadTest(t, path)
	if err == nil || !strings.Contains(err.Error(), "ValidatorKey") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"database", func(c *Config) { c.Database = "bolt" }},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"limit", func(c *Config) { c.Pool.BorrowingLimitPercent = 101 }},
		{"liquidator", func(c *Config) { c.Pool.Liquidator = "not-an-address" }},
		{"sample ratio", func(c *Config) { c.Telemetry.SampleRatio = 2 }},
		{"indexer driver", func(c *Config) { c.Indexer.Enabled = true; c.Indexer.Driver = "mysql" }},
		{"duplicate asset", func(c *Config) { c.Assets = append(c.Assets, c.Assets[0]) }},
		{"zero price", func(c *Config) { c.Assets[0].Price = "0" }},
		{"bad supply", func(c *Config) { c.Assets[0].OperatorSupply = "lots" }},
		{"decimals", func(c *Config) { c.Assets[0].Decimals = 40 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
