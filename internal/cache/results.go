package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/clauselens/internal/model"
)

// ResultCache stores analysis results as JSON
type ResultCache struct {
	backend     Cache
	ttl         time.Duration
	fingerprint string
}

// NewResultCache wraps a byte cache. fingerprint identifies the engine
// configuration so results from different weights or catalogs never mix.
func NewResultCache(backend Cache, ttl time.Duration, fingerprint string) *ResultCache {
	return &ResultCache{backend: backend, ttl: ttl, fingerprint: fingerprint}
}

// Get returns the cached result for text, if any
func (c *ResultCache) Get(text string) (*model.AnalysisResult, bool) {
	data, ok := c.backend.Get(CacheKey(c.fingerprint, text))
	if !ok {
		return nil, false
	}
	var res model.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// Put stores the result for text
func (c *ResultCache) Put(text string, res *model.AnalysisResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.backend.Set(CacheKey(c.fingerprint, text), data, c.ttl); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}
