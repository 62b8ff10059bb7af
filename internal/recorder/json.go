package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONRecorder writes the manifest of the latest run to a JSON file.
type JSONRecorder struct {
	Path string
}

// NewJSONRecorder creates the parent directory of path.
func NewJSONRecorder(path string) (*JSONRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	return &JSONRecorder{Path: path}, nil
}

// RecordRun replaces the manifest file. The file is written next to the
// target and renamed so readers never see a partial manifest.
func (r *JSONRecorder) RecordRun(m *RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := r.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, r.Path); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by RecordRun.
func LoadManifest(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *JSONRecorder) Close() error { return nil }
