package collector

import (
	"errors"
	"fmt"
)

// ErrRateLimitExceeded is returned when every attempt was answered with 429.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// AssetFetchError reports a per-asset failure that leaves the rest of the
// batch unaffected: a non-200 status, an API-level error or an empty payload.
type AssetFetchError struct {
	Provider   string
	AssetID    string
	StatusCode int
	Reason     string
}

func (e *AssetFetchError) Error() string {
	if e.StatusCode != 0 && e.Reason != "" {
		return fmt.Sprintf("%s: fetch %s: status %d: %s", e.Provider, e.AssetID, e.StatusCode, e.Reason)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch %s: status %d", e.Provider, e.AssetID, e.StatusCode)
	}
	return fmt.Sprintf("%s: fetch %s: %s", e.Provider, e.AssetID, e.Reason)
}

// ProviderUnavailableError wraps a transport-level failure. It is never
// recovered per asset.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
