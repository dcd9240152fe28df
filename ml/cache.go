package ml

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedModel memoizes predictions of a deterministic model per row.
type CachedModel struct {
	model  Model
	cache  *lru.Cache[FeatureRecord, float64]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// NewCachedModel wraps model with an LRU of size entries.
func NewCachedModel(model Model, size int) (*CachedModel, error) {
	if model == nil {
		return nil, fmt.Errorf("cached model: nil model")
	}
	cache, err := lru.New[FeatureRecord, float64](size)
	if err != nil {
		return nil, fmt.Errorf("cached model: %w", err)
	}
	return &CachedModel{model: model, cache: cache}, nil
}

// Predict serves cached rows and sends only the misses to the model.
// Failed predictions are not cached.
func (c *CachedModel) Predict(ctx context.Context, rows []FeatureRecord) ([]float64, error) {
	predictions := make([]float64, len(rows))
	missing := make([]FeatureRecord, 0, len(rows))
	missingIdx := make([]int, 0, len(rows))

	for i, row := range rows {
		if value, ok := c.cache.Get(row); ok {
			c.hits.Add(1)
			predictions[i] = value
			continue
		}
		c.misses.Add(1)
		missing = append(missing, row)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return predictions, nil
	}

	computed, err := c.model.Predict(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missing) {
		return nil, fmt.Errorf("model returned %d predictions for %d rows", len(computed), len(missing))
	}
	for j, value := range computed {
		predictions[missingIdx[j]] = value
		c.cache.Add(missing[j], value)
	}
	return predictions, nil
}

// Stats returns the current counters.
func (c *CachedModel) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.cache.Len(),
	}
}
