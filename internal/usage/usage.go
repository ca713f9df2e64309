// Package usage meters free analyses per client per day.
package usage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrQuotaExceeded is returned once a client has used its daily allowance
var ErrQuotaExceeded = errors.New("daily free analysis limit reached")

// Store holds counters with an expiry. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (int, bool)
	Set(key string, count int, ttl time.Duration)
}

// MemoryStore is a Store backed by go-cache
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory store; expired counters are purged every cleanup interval
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, cleanup)}
}

// Get returns the counter for key
func (s *MemoryStore) Get(key string) (int, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// Set stores a counter until ttl elapses
func (s *MemoryStore) Set(key string, count int, ttl time.Duration) {
	s.cache.Set(key, count, ttl)
}

// Meter enforces a fixed number of analyses per client per UTC day
type Meter struct {
	store Store
	limit int
	now   func() time.Time
	mu    sync.Mutex
}

// NewMeter creates a meter. A limit of zero or less disables metering.
func NewMeter(store Store, limit int) *Meter {
	return &Meter{store: store, limit: limit, now: time.Now}
}

// Enabled reports whether the meter enforces a limit
func (m *Meter) Enabled() bool {
	return m != nil && m.limit > 0
}

// Limit returns the daily allowance
func (m *Meter) Limit() int { return m.limit }

// Consume counts one analysis for client and returns how many remain today.
// When the allowance is used up it returns ErrQuotaExceeded and does not count.
func (m *Meter) Consume(client string) (int, error) {
	if !m.Enabled() {
		return -1, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key, ttl := m.key(client)
	used, _ := m.store.Get(key)
	if used >= m.limit {
		return 0, fmt.Errorf("%w (%d per day)", ErrQuotaExceeded, m.limit)
	}

	used++
	m.store.Set(key, used, ttl)
	return m.limit - used, nil
}

// Remaining returns today's remaining allowance for client without counting
func (m *Meter) Remaining(client string) int {
	if !m.Enabled() {
		return -1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key, _ := m.key(client)
	used, _ := m.store.Get(key)
	if used >= m.limit {
		return 0
	}
	return m.limit - used
}

// key scopes the counter to the current UTC day and expires it at midnight
func (m *Meter) key(client string) (string, time.Duration) {
	now := m.now().UTC()
	day := now.Format("2006-01-02")
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return "usage:" + day + ":" + client, midnight.Sub(now)
}
