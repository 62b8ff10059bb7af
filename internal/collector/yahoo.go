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

// DefaultYahooURL is the Yahoo Finance chart API host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooSource implements SeriesSource using the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL  string
	Adjusted bool // prefer the adjusted close when the response carries one
	HTTP     *RateLimitedClient
}

// NewYahooSource creates an equity source.
func NewYahooSource(baseURL string, adjusted bool, client *RateLimitedClient) *YahooSource {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	client.Header.Set("User-Agent", "Mozilla/5.0")
	return &YahooSource{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Adjusted: adjusted,
		HTTP:     client,
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) Class() model.AssetClass { return model.ClassEquity }

// yahooChart is the response structure from Yahoo Finance chart API.
// Null bars (holidays, halts) decode as nil pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries returns daily closes in [window.Start, window.End). The end
// date is exclusive, so the still-open session of today is never included.
func (s *YahooSource) FetchSeries(ctx context.Context, symbol string, window model.Window) (*model.AssetSeries, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", s.BaseURL, url.PathEscape(symbol))
	query := url.Values{
		"period1":  {strconv.FormatInt(window.Start.Unix(), 10)},
		"period2":  {strconv.FormatInt(window.End.Unix(), 10)},
		"interval": {"1d"},
		"events":   {"history"},
	}
	if s.Adjusted {
		query.Set("includeAdjustedClose", "true")
	}

	resp, err := s.HTTP.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderUnavailableError{Provider: s.Name(), Err: fmt.Errorf("read body: %w", err)}
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode != http.StatusOK {
		reason := strings.TrimSpace(string(body))
		if decodeErr == nil && chart.Chart.Error != nil {
			reason = chart.Chart.Error.Description
		}
		if len(reason) > 512 {
			reason = reason[:512]
		}
		return nil, &AssetFetchError{Provider: s.Name(), AssetID: symbol, StatusCode: resp.StatusCode, Reason: reason}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, &AssetFetchError{Provider: s.Name(), AssetID: symbol, Reason: chart.Chart.Error.Description}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, &AssetFetchError{Provider: s.Name(), AssetID: symbol, Reason: "no data returned"}
	}

	result := chart.Chart.Result[0]
	var closes []*float64
	if s.Adjusted && len(result.Indicators.AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	byDay := make(map[time.Time]float64, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		byDay[model.Day(time.Unix(ts, 0))] = *closes[i]
	}
	if len(byDay) == 0 {
		return nil, &AssetFetchError{Provider: s.Name(), AssetID: symbol, Reason: "no closing prices"}
	}

	points := make([]model.PricePoint, 0, len(byDay))
	for d, p := range byDay {
		points = append(points, model.PricePoint{Date: d, Price: p})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return &model.AssetSeries{AssetID: symbol, Class: model.ClassEquity, Points: points}, nil
}
