package recorder

import (
	"time"

	"PriceHarvest/internal/collector"
)

// OutputFile describes one written table.
type OutputFile struct {
	Path    string   `json:"path"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// RunManifest is the metadata of one harvest run. It records which assets
// were skipped, since a skipped asset silently drops a column.
type RunManifest struct {
	RunID       string                `json:"run_id"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	WindowStart string                `json:"window_start"`
	WindowEnd   string                `json:"window_end"`
	Crypto      *collector.Report     `json:"crypto,omitempty"`
	Equity      *collector.Report     `json:"equity,omitempty"`
	Outputs     map[string]OutputFile `json:"outputs"`
	Error       string                `json:"error,omitempty"`
}

// Recorder persists run metadata.
type Recorder interface {
	RecordRun(m *RunManifest) error
	Close() error
}
