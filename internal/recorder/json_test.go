package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceHarvest/internal/collector"
	"PriceHarvest/internal/model"
)

func TestJSONRecorder_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "run_manifest.json")
	rec, err := NewJSONRecorder(path)
	require.NoError(t, err)
	defer rec.Close()

	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m := &RunManifest{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Crypto: &collector.Report{
			Class:     model.ClassCrypto,
			Provider:  "coingecko",
			Requested: []string{"bitcoin", "tether"},
			Fetched:   []string{"bitcoin"},
			Skipped:   []collector.Skip{{AssetID: "tether", StatusCode: 500, Reason: "boom"}},
		},
		Outputs: map[string]OutputFile{
			"merged": {Path: "data/processed/merged_prices.csv", Rows: 30, Columns: []string{"timestamp", "bitcoin"}},
		},
	}
	require.NoError(t, rec.RecordRun(m))

	// second run replaces the first
	m.RunID = "run-2"
	require.NoError(t, rec.RecordRun(m))

	got, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.True(t, started.Equal(got.StartedAt))
	require.NotNil(t, got.Crypto)
	assert.Equal(t, "tether", got.Crypto.Skipped[0].AssetID)
	assert.Nil(t, got.Equity)
	assert.Equal(t, 30, got.Outputs["merged"].Rows)
	assert.NoFileExists(t, path+".tmp")
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunManifest{}))
	assert.NoError(t, r.Close())
}
