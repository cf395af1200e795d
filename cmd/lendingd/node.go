package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lendcore/config"
	"lendcore/core/events"
	"lendcore/core/genesis"
	"lendcore/core/host"
	"lendcore/crypto"
	"lendcore/indexer"
	"lendcore/observability"
	"lendcore/rpc"
	"lendcore/storage"
)

// node is a fully wired lending service.
type node struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         storage.Database
	host       *host.Host
	deployment *genesis.Deployment
	indexer    *indexer.Indexer
	server     *rpc.Server
	closers    []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch strings.ToLower(cfg.Database) {
	case "memory":
		return storage.NewMemDB(), nil
	case "", "leveldb":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	default:
		return nil, fmt.Errorf("unknown database %q", cfg.Database)
	}
}

func newNode(ctx context.Context, cfg *config.Config, operator crypto.Address, logger *slog.Logger, clock host.Clock) (*node, error) {
	n := &node{cfg: cfg, logger: logger}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	n.db = db
	n.closers = append(n.closers, closerFunc(func() error { db.Close(); return nil }))

	broadcaster := events.NewBroadcaster(cfg.RPC.EventBuffer)
	emitters := events.Multi{events.LogEmitter{Logger: logger}, broadcaster, observability.EventMetrics{}}
	if cfg.Indexer.Enabled {
		gdb, err := indexer.Open(cfg.Indexer.Driver, cfg.Indexer.DSN)
		if err != nil {
			n.Close()
			return nil, err
		}
		n.indexer = indexer.New(gdb, logger)
		emitters = append(emitters, n.indexer)
		if sqlDB, err := gdb.DB(); err == nil {
			n.closers = append(n.closers, sqlDB)
		}
	}

	opts := []host.Option{host.WithEmitter(emitters), host.WithLogger(logger)}
	if clock != nil {
		opts = append(opts, host.WithClock(clock))
	}
	n.host = host.New(db, opts...)

	n.deployment, err = genesis.Bootstrap(ctx, n.host, db, genesis.FromConfig(cfg, operator), logger)
	if err != nil {
		n.Close()
		return nil, err
	}

	n.server = rpc.NewServer(rpc.Options{
		Host:    n.host,
		DB:      db,
		Pool:    n.deployment.Pool,
		Events:  broadcaster,
		Indexer: n.indexer,
		Logger:  logger,
		Config:  cfg.RPC,
	})
	return n, nil
}

// exportLiquidations writes the indexed liquidations to ExportDir.
func (n *node) exportLiquidations(ctx context.Context, now time.Time) (string, error) {
	if n.indexer == nil || strings.TrimSpace(n.cfg.Indexer.ExportDir) == "" {
		return "", nil
	}
	if err := os.MkdirAll(n.cfg.Indexer.ExportDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(n.cfg.Indexer.ExportDir, fmt.Sprintf("liquidations-%d.parquet", now.Unix()))
	rows, err := n.indexer.ExportLiquidations(ctx, path)
	if err != nil {
		return "", err
	}
	n.logger.Info("liquidations exported", slog.String("path", path), slog.Int("rows", rows))
	return path, nil
}

func (n *node) Close() error {
	var first error
	for i := len(n.closers) - 1; i >= 0; i-- {
		if err := n.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	n.closers = nil
	return first
}
