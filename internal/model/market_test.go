package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDay_NormalizesToUTCMidnight(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 9, 22, 30, 0, 0, ny) // 2024-03-10 03:30 UTC
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestTrailingWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 17, 4, 5, 0, time.UTC)
	w := TrailingWindow(now, 365)

	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, 365, w.Days())
	assert.True(t, w.Contains(now))
	assert.False(t, w.Contains(w.Start.Add(-time.Hour)))
}
