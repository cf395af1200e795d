package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lendcore/config"
	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/native/lending"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Indexer.Enabled = true
	cfg.Indexer.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	cfg.Indexer.ExportDir = t.TempDir()
	return cfg
}

func testOperator() crypto.Address {
	return crypto.NewAddress(crypto.AccountPrefix, bytes.Repeat([]byte{0x42}, 20))
}

func TestNodeRestartReattachesGenesis(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	first, err := newNode(ctx, cfg, testOperator(), logger, host.NewManualClock(1_000))
	require.NoError(t, err)
	pool := first.deployment.Pool
	assets, err := lending.PoolClient{Address: pool}.Assets(host.NewSession(ctx, first.host, testOperator()).Reader())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.NoError(t, first.Close())

	second, err := newNode(ctx, cfg, testOperator(), logger, nil)
	require.NoError(t, err)
	defer second.Close()
	require.Equal(t, pool, second.deployment.Pool)

	again, err := lending.PoolClient{Address: pool}.Assets(host.NewSession(ctx, second.host, testOperator()).Reader())
	require.NoError(t, err)
	require.ElementsMatch(t, assets, again)
}

func TestNodeRejectsChangedGenesis(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	first, err := newNode(ctx, cfg, testOperator(), logger, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	cfg.Pool.BorrowingLimitPercent = 60
	_, err = newNode(ctx, cfg, testOperator(), logger, nil)
	require.Error(t, err)
}

func TestExportLiquidations(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Database = "memory"
	n, err := newNode(ctx, cfg, testOperator(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	require.NoError(t, err)
	defer n.Close()

	path, err := n.exportLiquidations(ctx, time.Unix(1_700_000_000, 0))
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	n.cfg.Indexer.ExportDir = ""
	path, err = n.exportLiquidations(ctx, time.Now())
	require.NoError(t, err)
	require.Empty(t, path)
}
