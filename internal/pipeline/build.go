package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"PriceHarvest/internal/collector"
	"PriceHarvest/internal/config"
	"PriceHarvest/internal/metrics"
	"PriceHarvest/internal/recorder"
)

// FromConfig wires the providers, collectors and recorder described by cfg.
func FromConfig(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := collector.NewHTTPClient(cfg.Proxy, cfg.HTTPTimeout)

	cgClient := collector.NewRateLimitedClient("coingecko", httpClient, retryPolicy(cfg.Crypto.Retry), logger)
	cgClient.Metrics = m
	cg := collector.NewCoinGeckoSource(cfg.Crypto.BaseURL, cfg.Crypto.APIKey, cgClient)
	cg.VsCurrency = cfg.Crypto.VsCurrency

	yClient := collector.NewRateLimitedClient("yahoo", httpClient, retryPolicy(cfg.Equity.Retry), logger)
	yClient.Metrics = m
	adjusted := cfg.Equity.Adjusted == nil || *cfg.Equity.Adjusted
	yahoo := collector.NewYahooSource(cfg.Equity.BaseURL, adjusted, yClient)

	cryptoCol := collector.NewCollector(cg, logger)
	cryptoCol.Pause = cfg.Crypto.Pause
	cryptoCol.SkipRateLimited = cfg.Crypto.SkipRateLimited
	cryptoCol.Metrics = m

	equityCol := collector.NewCollector(yahoo, logger)
	equityCol.Pause = cfg.Equity.Pause
	equityCol.Metrics = m

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Output.Manifest != "" {
		jr, err := recorder.NewJSONRecorder(cfg.Output.Manifest)
		if err != nil {
			return nil, fmt.Errorf("init recorder: %w", err)
		}
		rec = jr
	}

	return &Pipeline{
		Crypto:          cryptoCol,
		Equity:          equityCol,
		CryptoAssets:    cfg.Crypto.Assets,
		EquitySymbols:   cfg.Equity.Symbols,
		WindowDays:      cfg.WindowDays,
		Paths:           DefaultPaths(cfg.RawDir(), cfg.ProcessedDir()),
		Recorder:        rec,
		Metrics:         m,
		MetricsTextfile: cfg.Output.MetricsTextfile,
		Logger:          logger,
	}, nil
}

func retryPolicy(r *config.Retry) collector.RetryPolicy {
	if r == nil {
		return collector.NoRetry
	}
	return collector.RetryPolicy{MaxRetries: r.MaxRetries, InitialDelay: r.InitialDelay}
}
