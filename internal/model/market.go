package model

import "time"

// AssetClass groups assets that are fetched from the same provider.
type AssetClass string

const (
	ClassCrypto AssetClass = "crypto"
	ClassEquity AssetClass = "equity"
)

// PricePoint is one daily observation. Date is always a UTC midnight.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// AssetSeries holds the daily prices of a single asset, ascending by date.
type AssetSeries struct {
	AssetID string
	Class   AssetClass
	Points  []PricePoint
}

// Len returns the number of observations.
func (s *AssetSeries) Len() int { return len(s.Points) }

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
