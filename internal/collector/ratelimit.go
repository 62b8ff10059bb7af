package collector

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"PriceHarvest/internal/metrics"
)

// RetryPolicy controls how a provider's 429 responses are retried.
// MaxRetries is the total number of attempts; zero disables retrying.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// NoRetry sends every request exactly once.
var NoRetry = RetryPolicy{}

// delays yields InitialDelay, 2x, 4x, ... with no jitter and no cap.
func (p RetryPolicy) delays() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the wall-clock Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RateLimitedClient issues GET requests and backs off on HTTP 429.
type RateLimitedClient struct {
	Provider string
	Client   *http.Client
	Header   http.Header
	Policy   RetryPolicy
	Sleep    Sleeper
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// NewRateLimitedClient creates a client for one provider.
func NewRateLimitedClient(provider string, client *http.Client, policy RetryPolicy, logger *zap.Logger) *RateLimitedClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitedClient{
		Provider: provider,
		Client:   client,
		Header:   make(http.Header),
		Policy:   policy,
		Sleep:    SleepContext,
		Logger:   logger,
	}
}

// Get sends a GET to rawURL with query. A 429 is retried after the current
// delay, which doubles on each retry. Any other status is returned to the
// caller as is. Once every attempt has been rate limited the call fails with
// ErrRateLimitExceeded. Transport failures are returned as
// *ProviderUnavailableError without retrying.
func (c *RateLimitedClient) Get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	if c.Policy.MaxRetries <= 0 {
		return c.do(ctx, rawURL, query)
	}

	delays := c.Policy.delays()
	for attempt := 1; attempt <= c.Policy.MaxRetries; attempt++ {
		resp, err := c.do(ctx, rawURL, query)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		delay := delays.NextBackOff()
		c.Metrics.ObserveRateLimited(c.Provider)
		c.Logger.Warn("rate limited, backing off",
			zap.String("provider", c.Provider),
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.Policy.MaxRetries),
			zap.Duration("delay", delay),
		)
		if err := c.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %d attempts: %w", c.Provider, c.Policy.MaxRetries, ErrRateLimitExceeded)
}

func (c *RateLimitedClient) do(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &ProviderUnavailableError{Provider: c.Provider, Err: err}
	}
	c.Metrics.ObserveRequest(c.Provider, resp.StatusCode)
	return resp, nil
}

// NewHTTPClient builds an http.Client with an optional proxy.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
