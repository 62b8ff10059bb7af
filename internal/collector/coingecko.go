package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"PriceHarvest/internal/model"
)

// DefaultCoinGeckoURL is the public v3 API root.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoSource implements SeriesSource using the CoinGecko market_chart API.
type CoinGeckoSource struct {
	BaseURL    string
	VsCurrency string
	HTTP       *RateLimitedClient
}

// NewCoinGeckoSource creates a crypto source. apiKey is optional and sent as
// the demo-plan key header.
func NewCoinGeckoSource(baseURL, apiKey string, client *RateLimitedClient) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	if apiKey != "" {
		client.Header.Set("x-cg-demo-api-key", apiKey)
	}
	client.Header.Set("Accept", "application/json")
	return &CoinGeckoSource{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		VsCurrency: "usd",
		HTTP:       client,
	}
}

func (s *CoinGeckoSource) Name() string { return "coingecko" }

func (s *CoinGeckoSource) Class() model.AssetClass { return model.ClassCrypto }

// marketChart is the subset of the market_chart response we read.
// Each price entry is [epoch-ms, price].
type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

func (s *CoinGeckoSource) FetchSeries(ctx context.Context, assetID string, window model.Window) (*model.AssetSeries, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart", s.BaseURL, url.PathEscape(assetID))
	query := url.Values{
		"vs_currency": {s.VsCurrency},
		"days":        {strconv.Itoa(window.Days())},
		"interval":    {"daily"},
	}

	resp, err := s.HTTP.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &AssetFetchError{
			Provider:   s.Name(),
			AssetID:    assetID,
			StatusCode: resp.StatusCode,
			Reason:     strings.TrimSpace(string(body)),
		}
	}

	var chart marketChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("coingecko decode %s: %w", assetID, err)
	}

	return &model.AssetSeries{
		AssetID: assetID,
		Class:   model.ClassCrypto,
		Points:  dailyPoints(chart.Prices),
	}, nil
}

// dailyPoints converts [epoch-ms, price] pairs into one point per UTC date.
// The daily feed ends with an intraday "now" sample that shares a date with
// the last midnight sample; the later sample wins.
func dailyPoints(raw [][2]float64) []model.PricePoint {
	byDay := make(map[time.Time]model.PricePoint, len(raw))
	latest := make(map[time.Time]int64, len(raw))
	for _, p := range raw {
		ms := int64(p[0])
		d := model.Day(time.UnixMilli(ms))
		if prev, ok := latest[d]; ok && prev > ms {
			continue
		}
		latest[d] = ms
		byDay[d] = model.PricePoint{Date: d, Price: p[1]}
	}
	points := make([]model.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
