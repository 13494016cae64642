package rate_limit

import "time"

// Observation is a snapshot together with the moment it was recorded
type Observation struct {
	Snapshot   Snapshot
	ObservedAt time.Time
}

// Backend records the rate limit snapshots observed on responses so that callers can
// surface the last known budget. Backends are telemetry only: the retry loop never reads
// from them to decide anything.
type Backend interface {
	// Record stores the snapshot observed for key
	Record(key string, snapshot Snapshot) error

	// Latest returns the most recent observation for key
	Latest(key string) (Observation, bool)

	// Close cleans up any resources held by the backend
	Close() error
}
