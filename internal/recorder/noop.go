package recorder

// NoopRecorder is used when no manifest path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunManifest) error { return nil }
func (n *NoopRecorder) Close() error                   { return nil }
