// Package tags holds the tag-validation cache: the authoritative set of
// currently postable tag slugs, refreshed on a TTL basis from the tag catalog.
package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a refreshed catalog snapshot stays fresh.
const DefaultTTL = 2 * time.Hour

// ErrCacheUnavailable is returned only on a cold-start failure: the catalog
// could not be loaded and no snapshot has ever been populated. Once a snapshot
// exists, refresh failures degrade to serving the last good set instead.
var ErrCacheUnavailable = errors.New("tag catalog unavailable and no cached snapshot exists")

// Catalog is the external authoritative list of postable tag slugs.
type Catalog interface {
	// ListTagSlugs returns every slug currently in the catalog.
	ListTagSlugs(ctx context.Context) ([]string, error)
}

// ValidationCache answers "are these proposed tags postable?" from an
// in-process snapshot of the catalog. Comparison is case-insensitive.
//
// The snapshot is replaced atomically on refresh: concurrent refreshes are
// safe (last refresh wins) and readers never observe a partially-replaced
// set. The backing set is never exposed for external mutation.
type ValidationCache struct {
	catalog Catalog
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.RWMutex
	slugs       map[string]struct{}
	refreshedAt time.Time
}

// NewValidationCache creates a cache over the given catalog. A ttl of zero
// uses DefaultTTL.
func NewValidationCache(catalog Catalog, ttl time.Duration, logger *slog.Logger) *ValidationCache {
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ValidationCache{
		catalog: catalog,
		ttl:     ttl,
		logger:  logger.With("component", "tag_validation_cache"),
		now:     time.Now,
	}
}

// Refresh loads the full current catalog and replaces the cached set
// atomically.
func (c *ValidationCache) Refresh(ctx context.Context) error {
	catalogSlugs, err := c.catalog.ListTagSlugs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tag catalog: %w", err)
	}

	next := make(map[string]struct{}, len(catalogSlugs))
	for _, slug := range catalogSlugs {
		next[strings.ToLower(slug)] = struct{}{}
	}

	c.mu.Lock()
	c.slugs = next
	c.refreshedAt = c.now()
	c.mu.Unlock()

	c.logger.Debug("tag catalog refreshed", "tag_count", len(next))
	return nil
}

// IsValid reports whether every candidate slug exists in the catalog.
//
// The original validation accepted a tag list when any single slug was known,
// which lets unknown tags through alongside one valid tag; this cache
// deliberately requires all slugs to be known instead.
//
// If the snapshot is past its TTL a synchronous refresh runs first. A failed
// refresh is tolerated as long as a previous snapshot exists: availability
// wins over freshness. Only a cold-start failure surfaces an error.
func (c *ValidationCache) IsValid(ctx context.Context, candidateSlugs []string) (bool, error) {
	snapshot, err := c.currentSnapshot(ctx)
	if err != nil {
		return false, err
	}

	for _, slug := range candidateSlugs {
		if _, ok := snapshot[strings.ToLower(slug)]; !ok {
			return false, nil
		}
	}
	return len(candidateSlugs) > 0, nil
}

// currentSnapshot returns the cached set, refreshing it first if stale.
func (c *ValidationCache) currentSnapshot(ctx context.Context) (map[string]struct{}, error) {
	c.mu.RLock()
	snapshot := c.slugs
	fresh := snapshot != nil && c.now().Sub(c.refreshedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		return snapshot, nil
	}

	if err := c.Refresh(ctx); err != nil {
		if snapshot != nil {
			c.logger.Warn("tag catalog refresh failed, serving last known set",
				"error", err,
				"tag_count", len(snapshot))
			return snapshot, nil
		}
		c.logger.Error("tag catalog refresh failed with no cached snapshot", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	c.mu.RLock()
	snapshot = c.slugs
	c.mu.RUnlock()
	return snapshot, nil
}
