package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"PriceHarvest/internal/metrics"
	"PriceHarvest/internal/model"
	"PriceHarvest/internal/table"
)

// MockSource returns canned series for development and testing. Assets
// listed in Errs fail with that error; assets with no canned series get a
// generated one when Price is set.
type MockSource struct {
	SourceName string
	AssetClass model.AssetClass
	Price      float64
	Series     map[string]*model.AssetSeries
	Errs       map[string]error
	Calls      []string
}

func (m *MockSource) Name() string {
	if m.SourceName == "" {
		return "mock"
	}
	return m.SourceName
}

func (m *MockSource) Class() model.AssetClass { return m.AssetClass }

func (m *MockSource) FetchSeries(_ context.Context, assetID string, window model.Window) (*model.AssetSeries, error) {
	m.Calls = append(m.Calls, assetID)
	if err, ok := m.Errs[assetID]; ok {
		return nil, err
	}
	if s, ok := m.Series[assetID]; ok {
		return s, nil
	}
	if m.Price > 0 {
		return &model.AssetSeries{
			AssetID: assetID,
			Class:   m.AssetClass,
			Points:  generateMockPoints(m.Price, window),
		}, nil
	}
	return nil, &AssetFetchError{Provider: m.Name(), AssetID: assetID, StatusCode: 404, Reason: "unknown asset"}
}

func generateMockPoints(basePrice float64, window model.Window) []model.PricePoint {
	n := window.Days()
	points := make([]model.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, model.PricePoint{
			Date:  window.Start.AddDate(0, 0, i),
			Price: basePrice * (1 + float64(i-n/2)*0.001),
		})
	}
	return points
}

// Skip records why an asset is missing from a table.
type Skip struct {
	AssetID    string `json:"asset_id"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason"`
}

// Report summarizes one Collect call.
type Report struct {
	Class     model.AssetClass `json:"class"`
	Provider  string           `json:"provider"`
	Requested []string         `json:"requested"`
	Fetched   []string         `json:"fetched"`
	Skipped   []Skip           `json:"skipped"`
}

// Collector builds one wide table per asset class from a SeriesSource.
type Collector struct {
	Source SeriesSource
	// Pause is slept between consecutive assets, whatever the outcome of the
	// previous fetch.
	Pause time.Duration
	// SkipRateLimited turns ErrRateLimitExceeded into a per-asset skip
	// instead of aborting the run.
	SkipRateLimited bool
	Sleep           Sleeper
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// NewCollector creates a new Collector.
func NewCollector(source SeriesSource, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Source: source,
		Sleep:  SleepContext,
		Logger: logger,
	}
}

// Collect fetches every asset in order and outer-aligns the series into a
// table. Per-asset failures are logged, reported and leave no column behind.
// Transport failures and, unless SkipRateLimited is set, exhausted rate
// limits abort the whole batch.
func (c *Collector) Collect(ctx context.Context, assetIDs []string, window model.Window) (*table.Table, *Report, error) {
	class := c.Source.Class()
	tbl := table.New(table.DefaultIndexName)
	report := &Report{
		Class:     class,
		Provider:  c.Source.Name(),
		Requested: append([]string(nil), assetIDs...),
		Fetched:   []string{},
		Skipped:   []Skip{},
	}
	log := c.Logger.With(zap.String("provider", c.Source.Name()), zap.String("class", string(class)))

	for i, id := range assetIDs {
		if i > 0 && c.Pause > 0 {
			if err := c.Sleep(ctx, c.Pause); err != nil {
				return nil, report, err
			}
		}

		series, err := c.Source.FetchSeries(ctx, id, window)
		if err == nil {
			if err := tbl.AddSeries(series); err != nil {
				return nil, report, fmt.Errorf("add %s: %w", id, err)
			}
			report.Fetched = append(report.Fetched, id)
			c.Metrics.ObserveFetched(string(class))
			log.Debug("asset fetched", zap.String("asset", id), zap.Int("points", series.Len()))
			continue
		}

		skip, ok := c.skippable(id, err)
		if !ok {
			return nil, report, fmt.Errorf("collect %s: %w", id, err)
		}
		report.Skipped = append(report.Skipped, skip)
		c.Metrics.ObserveSkipped(string(class))
		log.Warn("skipping asset", zap.String("asset", id), zap.Error(err))
	}

	log.Info("collection finished",
		zap.Int("requested", len(assetIDs)),
		zap.Int("fetched", len(report.Fetched)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("rows", tbl.Len()),
	)
	return tbl, report, nil
}

func (c *Collector) skippable(id string, err error) (Skip, bool) {
	var fe *AssetFetchError
	if errors.As(err, &fe) {
		return Skip{AssetID: id, StatusCode: fe.StatusCode, Reason: fe.Error()}, true
	}
	if c.SkipRateLimited && errors.Is(err, ErrRateLimitExceeded) {
		return Skip{AssetID: id, StatusCode: 429, Reason: err.Error()}, true
	}
	return Skip{}, false
}
