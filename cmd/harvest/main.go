package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"PriceHarvest/internal/config"
	"PriceHarvest/internal/logging"
	"PriceHarvest/internal/metrics"
	"PriceHarvest/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "priceharvest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger, flush, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer flush()

	p, err := pipeline.FromConfig(cfg, logger, metrics.New())
	if err != nil {
		return err
	}
	defer p.Recorder.Close()

	// Ctrl+C aborts the in-flight request or backoff sleep.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("PriceHarvest starting",
		zap.String("config", cfgPath),
		zap.Int("crypto_assets", len(cfg.Crypto.Assets)),
		zap.Int("equity_symbols", len(cfg.Equity.Symbols)),
	)
	_, err = p.Run(ctx)
	return err
}
