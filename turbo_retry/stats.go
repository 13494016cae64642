package turbo_retry

import "sync/atomic"

// Stats is a snapshot of the counters kept by a TurboRetry
type Stats struct {
	Calls       uint64
	Attempts    uint64
	RateLimited uint64
	Retries     uint64
	Succeeded   uint64
	Failed      uint64
}

type statsTracker struct {
	calls       atomic.Uint64
	attempts    atomic.Uint64
	rateLimited atomic.Uint64
	retries     atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
}

func (s *statsTracker) snapshot() Stats {
	return Stats{
		Calls:       s.calls.Load(),
		Attempts:    s.attempts.Load(),
		RateLimited: s.rateLimited.Load(),
		Retries:     s.retries.Load(),
		Succeeded:   s.succeeded.Load(),
		Failed:      s.failed.Load(),
	}
}
