// Package thresholdcache keeps optimized threshold vectors in Redis so a model
// evaluated against the same label space does not repeat the search.
package thresholdcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/evaluation"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/labelspace"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/utils/redis"
)

const keyPrefix = "thresholds"

var ErrNilSpace = errors.New("thresholdcache: label space cannot be nil")

type entry struct {
	Model       string                     `json:"model"`
	Fingerprint string                     `json:"fingerprint"`
	Thresholds  evaluation.ThresholdVector `json:"thresholds"`
	StoredAt    int64                      `json:"stored_at"`
}

type Cache struct {
	store redis.RedisInterface
	ttl   time.Duration
}

// New wraps store. A non-positive ttl stores entries without expiry.
func New(store redis.RedisInterface, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Key returns the cache key for a model over a label space.
func Key(model string, space *labelspace.LabelSpace) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, model, space.Fingerprint())
}

// Load returns the cached thresholds. ok is false on a miss, including an
// entry whose length no longer matches the label space.
func (c *Cache) Load(ctx context.Context, model string, space *labelspace.LabelSpace) (evaluation.ThresholdVector, bool, error) {
	if space == nil {
		return nil, false, ErrNilSpace
	}

	key := Key(model, space)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	if raw == "" {
		log.Debug().Str("key", key).Msg("threshold cache miss")
		return nil, false, nil
	}

	var e entry
	if err := sonic.UnmarshalString(raw, &e); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable threshold cache entry")
		return nil, false, nil
	}
	if len(e.Thresholds) != space.Len() {
		log.Warn().Str("key", key).Int("cached", len(e.Thresholds)).Int("classes", space.Len()).
			Msg("discarding threshold cache entry with wrong length")
		return nil, false, nil
	}
	for _, t := range e.Thresholds {
		if t < 0 || t > 1 {
			log.Warn().Str("key", key).Float64("threshold", t).Msg("discarding threshold cache entry out of range")
			return nil, false, nil
		}
	}

	log.Debug().Str("key", key).Msg("threshold cache hit")
	return e.Thresholds, true, nil
}

func (c *Cache) Store(ctx context.Context, model string, space *labelspace.LabelSpace, thresholds evaluation.ThresholdVector) error {
	if space == nil {
		return ErrNilSpace
	}
	if len(thresholds) != space.Len() {
		return fmt.Errorf("store thresholds for %q: %w", model, &evaluation.DimensionMismatchError{
			Op:       "thresholdcache.Store",
			Expected: evaluation.Shape{Rows: 1, Cols: space.Len()},
			Actual:   evaluation.Shape{Rows: 1, Cols: len(thresholds)},
		})
	}

	key := Key(model, space)
	raw, err := sonic.MarshalString(entry{
		Model:       model,
		Fingerprint: space.Fingerprint(),
		Thresholds:  thresholds,
		StoredAt:    time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes the cached thresholds of a model.
func (c *Cache) Invalidate(ctx context.Context, model string, space *labelspace.LabelSpace) error {
	if space == nil {
		return ErrNilSpace
	}
	return c.store.Del(ctx, Key(model, space))
}
