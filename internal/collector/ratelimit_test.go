package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper captures requested delays without sleeping.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

// statusServer answers with the given statuses in order, repeating the last.
func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.WriteHeader(statuses[n])
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(policy RetryPolicy, sleeper *recordingSleeper) *RateLimitedClient {
	c := NewRateLimitedClient("test", nil, policy, nil)
	c.Sleep = sleeper.Sleep
	return c
}

func TestGet_RetriesOn429ThenSucceeds(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCode  int
		wantSleep []time.Duration
	}{
		{"immediate success", []int{200}, 200, nil},
		{"one 429", []int{429, 200}, 200, []time.Duration{2 * time.Second}},
		{"two 429s", []int{429, 429, 200}, 200, []time.Duration{2 * time.Second, 4 * time.Second}},
		{"non-429 error short-circuits", []int{429, 500}, 500, []time.Duration{2 * time.Second}},
		{"404 returned as is", []int{404}, 404, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := statusServer(t, tt.statuses...)
			sleeper := &recordingSleeper{}
			c := newTestClient(RetryPolicy{MaxRetries: 3, InitialDelay: 2 * time.Second}, sleeper)

			resp, err := c.Get(context.Background(), srv.URL, nil)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantSleep, sleeper.delays)
			assert.Equal(t, int32(len(tt.wantSleep)+1), hits.Load())
		})
	}
}

func TestGet_ExhaustedRetries(t *testing.T) {
	srv, hits := statusServer(t, 429)
	sleeper := &recordingSleeper{}
	c := newTestClient(RetryPolicy{MaxRetries: 3, InitialDelay: 2 * time.Second}, sleeper)

	resp, err := c.Get(context.Background(), srv.URL, nil)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.delays)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGet_DelayDoublesWithoutCap(t *testing.T) {
	srv, _ := statusServer(t, 429)
	sleeper := &recordingSleeper{}
	c := newTestClient(RetryPolicy{MaxRetries: 8, InitialDelay: time.Minute}, sleeper)

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, ErrRateLimitExceeded)
	require.Len(t, sleeper.delays, 8)
	for i := 1; i < len(sleeper.delays); i++ {
		assert.Equal(t, 2*sleeper.delays[i-1], sleeper.delays[i])
	}
	assert.Equal(t, 128*time.Minute, sleeper.delays[7])
}

func TestGet_NoRetryPolicyReturns429(t *testing.T) {
	srv, hits := statusServer(t, 429)
	sleeper := &recordingSleeper{}
	c := newTestClient(NoRetry, sleeper)

	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGet_SendsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "keep", r.URL.Query().Get("existing"))
		assert.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(NoRetry, &recordingSleeper{})
	c.Header.Set("x-cg-demo-api-key", "secret")
	resp, err := c.Get(context.Background(), srv.URL+"/x?existing=keep", map[string][]string{"vs_currency": {"usd"}})
	require.NoError(t, err)
	resp.Body.Close()
}

func TestGet_NetworkErrorIsProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	sleeper := &recordingSleeper{}
	c := newTestClient(RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, sleeper)
	_, err := c.Get(context.Background(), url, nil)

	var pu *ProviderUnavailableError
	require.ErrorAs(t, err, &pu)
	assert.Equal(t, "test", pu.Provider)
	assert.Empty(t, sleeper.delays, "network errors are not retried")
}

func TestGet_CancelledDuringBackoff(t *testing.T) {
	srv, hits := statusServer(t, 429)
	ctx, cancel := context.WithCancel(context.Background())

	c := NewRateLimitedClient("test", nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Hour}, nil)
	c.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepContext(ctx, d)
	}

	_, err := c.Get(ctx, srv.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), hits.Load())
}
