package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lendcore/cmd/internal/passphrase"
	"lendcore/config"
	"lendcore/crypto"
	"lendcore/observability/logging"
	telemetry "lendcore/observability/otel"
)

const operatorPassEnv = "LEND_OPERATOR_PASS"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, *configFile, passphrase.NewSource(operatorPassEnv, passphrase.WithLabel("operator keystore passphrase"))); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string, pass *passphrase.Source) error {
	secret, err := pass.Get()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configFile, config.WithKeystorePassphrase(secret))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env := cfg.Environment
	if v := strings.TrimSpace(os.Getenv("LEND_ENV")); v != "" {
		env = v
	}
	logger, logCloser := logging.SetupWithOptions("lendingd", env, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logCloser.Close()

	if cfg.Telemetry.Enabled {
		headers := telemetry.ParseHeaders(cfg.Telemetry.Headers)
		logger.Info("telemetry enabled",
			slog.String("endpoint", cfg.Telemetry.Endpoint),
			logging.MaskHeaders("headers", headers))
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: "lendingd",
			Environment: env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     headers,
			Metrics:     true,
			Traces:      true,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	key, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, secret)
	if err != nil {
		return fmt.Errorf("load operator key: %w", err)
	}
	operator := key.PubKey().Address()
	logger.Info("starting lendingd",
		slog.String("operator", operator.String()),
		slog.String("dataDir", cfg.DataDir),
		slog.Int("assets", len(cfg.Assets)))

	n, err := newNode(ctx, cfg, operator, logger, nil)
	if err != nil {
		return err
	}
	defer n.Close()

	serveErr := n.server.Start(ctx)
	exportCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := n.exportLiquidations(exportCtx, time.Now()); err != nil {
		logger.Error("liquidation export failed", slog.Any("error", err))
	}
	if serveErr != nil {
		return fmt.Errorf("rpc server: %w", serveErr)
	}
	logger.Info("lendingd stopped")
	return nil
}
