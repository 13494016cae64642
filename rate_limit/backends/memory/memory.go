package memory

import (
	"sync"
	"time"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
)

// Memory is an in-process snapshot backend. Nothing survives the process.
type Memory struct {
	latest map[string]rate_limit.Observation
	counts map[string]int
	now    func() time.Time
	mu     sync.RWMutex
}

var _ rate_limit.Backend = (*Memory)(nil)

// NewBackend creates a new in-memory snapshot backend
func NewBackend() *Memory {
	return &Memory{
		latest: make(map[string]rate_limit.Observation),
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// Record stores the snapshot as the latest observation for key
func (m *Memory) Record(key string, snapshot rate_limit.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest[key] = rate_limit.Observation{
		Snapshot:   snapshot,
		ObservedAt: m.now(),
	}
	m.counts[key]++

	return nil
}

// Latest returns the most recent observation for key
func (m *Memory) Latest(key string) (rate_limit.Observation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obs, ok := m.latest[key]
	return obs, ok
}

// Count returns how many snapshots were recorded for key
func (m *Memory) Count(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[key]
}

// Keys returns every key with at least one observation
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.latest))
	for k := range m.latest {
		keys = append(keys, k)
	}
	return keys
}

// Close is a no-op for in-memory backend (no resources to clean up)
func (m *Memory) Close() error {
	return nil
}
