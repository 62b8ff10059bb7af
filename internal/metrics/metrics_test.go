package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRequest("coingecko", 200)
	m.ObserveRequest("coingecko", 429)
	m.ObserveRateLimited("coingecko")
	m.ObserveSkipped("crypto")
	m.SetRows("merged", 30)

	path := filepath.Join(t.TempDir(), "textfile", "priceharvest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `priceharvest_http_requests_total{provider="coingecko",status="429"} 1`)
	assert.Contains(t, out, `priceharvest_rate_limited_total{provider="coingecko"} 1`)
	assert.Contains(t, out, `priceharvest_assets_skipped_total{class="crypto"} 1`)
	assert.Contains(t, out, `priceharvest_table_rows{table="merged"} 30`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("yahoo", 200)
	m.ObserveFetched("equity")
	m.SetRows("merged", 1)
	assert.NoError(t, m.WriteTextfile("/nonexistent/never-written.prom"))
}
