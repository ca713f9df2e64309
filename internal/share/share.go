// Package share keeps analysis reports addressable by ID for a limited time.
package share

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/clauselens/internal/model"
)

// ErrNotFound is returned for unknown or expired share IDs
var ErrNotFound = errors.New("shared report not found")

// ErrInvalidReport is returned when asked to share a report without a result
var ErrInvalidReport = errors.New("report has no analysis result")

// Entry is a stored report
type Entry struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Report    *model.Report `json:"report"`
}

// Store saves and retrieves shared reports
type Store interface {
	Save(report *model.Report) (Entry, error)
	Get(id string) (Entry, error)
}

// MemoryStore is a TTL-bound Store backed by go-cache
type MemoryStore struct {
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewMemoryStore creates a store whose entries live for ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl / 10
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &MemoryStore{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Save stores a report under a new ID
func (s *MemoryStore) Save(report *model.Report) (Entry, error) {
	if report == nil || report.Result == nil {
		return Entry{}, ErrInvalidReport
	}

	now := s.now().UTC()
	entry := Entry{
		ID:        s.newID(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Report:    report,
	}
	s.cache.Set(entry.ID, entry, s.ttl)
	return entry, nil
}

// Get returns a stored report
func (s *MemoryStore) Get(id string) (Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	v, ok := s.cache.Get(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v.(Entry), nil
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int { return s.cache.ItemCount() }
