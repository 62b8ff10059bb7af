package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"PriceHarvest/internal/collector"
	"PriceHarvest/internal/metrics"
	"PriceHarvest/internal/model"
	"PriceHarvest/internal/recorder"
	"PriceHarvest/internal/table"
)

// Output keys used in the run manifest and the rows metric.
const (
	OutputCryptoRaw = "crypto_raw"
	OutputStockRaw  = "stock_raw"
	OutputMerged    = "merged"
)

// Paths are the three files written by a run.
type Paths struct {
	CryptoRaw string
	StockRaw  string
	Merged    string
}

// DefaultPaths lays the files out under rawDir and processedDir.
func DefaultPaths(rawDir, processedDir string) Paths {
	return Paths{
		CryptoRaw: filepath.Join(rawDir, "crypto_prices.csv"),
		StockRaw:  filepath.Join(rawDir, "stock_prices.csv"),
		Merged:    filepath.Join(processedDir, "merged_prices.csv"),
	}
}

// Pipeline runs fetch crypto → fetch equities → merge, writing each table.
type Pipeline struct {
	Crypto        *collector.Collector
	Equity        *collector.Collector
	CryptoAssets  []string
	EquitySymbols []string
	WindowDays    int
	Paths         Paths

	Recorder        recorder.Recorder
	Metrics         *metrics.Metrics
	MetricsTextfile string
	Logger          *zap.Logger
	Now             func() time.Time
}

// Run executes one harvest. The manifest is recorded whether or not the run
// succeeds; files already written by a failed run are left in place.
func (p *Pipeline) Run(ctx context.Context) (*recorder.RunManifest, error) {
	log := p.logger()
	now := p.Now
	if now == nil {
		now = time.Now
	}

	started := now().UTC()
	window := model.TrailingWindow(started, p.WindowDays)
	m := &recorder.RunManifest{
		RunID:       uuid.NewString(),
		StartedAt:   started,
		WindowStart: window.Start.Format(table.DateLayout),
		WindowEnd:   window.End.Format(table.DateLayout),
		Outputs:     make(map[string]recorder.OutputFile),
	}
	log = log.With(zap.String("run_id", m.RunID))
	log.Info("harvest started",
		zap.String("window_start", m.WindowStart),
		zap.String("window_end", m.WindowEnd),
	)

	err := p.run(ctx, log, window, m)

	m.FinishedAt = now().UTC()
	if err != nil {
		m.Error = err.Error()
		log.Error("harvest failed", zap.Error(err))
	} else {
		p.Metrics.MarkSuccess(m.FinishedAt.Unix())
		log.Info("harvest finished", zap.Duration("took", m.FinishedAt.Sub(started)))
	}

	rec := p.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if recErr := rec.RecordRun(m); recErr != nil {
		log.Error("record manifest", zap.Error(recErr))
		if err == nil {
			err = recErr
		}
	}
	if mErr := p.Metrics.WriteTextfile(p.MetricsTextfile); mErr != nil {
		log.Warn("write metrics", zap.Error(mErr))
	}
	return m, err
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, window model.Window, m *recorder.RunManifest) error {
	for _, path := range []string{p.Paths.CryptoRaw, p.Paths.StockRaw, p.Paths.Merged} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	log.Info("fetching crypto", zap.Strings("assets", p.CryptoAssets))
	crypto, report, err := p.Crypto.Collect(ctx, p.CryptoAssets, window)
	m.Crypto = report
	if err != nil {
		return fmt.Errorf("crypto: %w", err)
	}
	if err := p.write(OutputCryptoRaw, p.Paths.CryptoRaw, crypto, m); err != nil {
		return err
	}

	log.Info("fetching stocks", zap.Strings("symbols", p.EquitySymbols))
	stocks, report, err := p.Equity.Collect(ctx, p.EquitySymbols, window)
	m.Equity = report
	if err != nil {
		return fmt.Errorf("equity: %w", err)
	}
	if err := p.write(OutputStockRaw, p.Paths.StockRaw, stocks, m); err != nil {
		return err
	}

	log.Info("merging")
	merged := table.InnerJoin(crypto, stocks)
	if err := p.write(OutputMerged, p.Paths.Merged, merged, m); err != nil {
		return err
	}
	log.Info("merged table written",
		zap.String("path", p.Paths.Merged),
		zap.Int("rows", merged.Len()),
		zap.Int("columns", len(merged.Columns())),
	)
	return nil
}

func (p *Pipeline) write(key, path string, t *table.Table, m *recorder.RunManifest) error {
	if err := t.WriteFile(path); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	m.Outputs[key] = recorder.OutputFile{
		Path:    path,
		Rows:    t.Len(),
		Columns: append([]string{t.IndexName}, t.Columns()...),
	}
	p.Metrics.SetRows(key, t.Len())
	return nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
