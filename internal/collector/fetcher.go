package collector

import (
	"context"

	"PriceHarvest/internal/model"
)

// SeriesSource produces the daily price series of one asset over a window.
type SeriesSource interface {
	FetchSeries(ctx context.Context, assetID string, window model.Window) (*model.AssetSeries, error)
	Class() model.AssetClass
	Name() string
}
