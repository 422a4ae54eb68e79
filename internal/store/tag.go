package store

import "context"

// TagStore provides read access to the tag catalog. The catalog is owned and
// mutated by tag administration outside this service; this side only reads it
// to refresh the validation cache.
type TagStore interface {
	// ListTagSlugs returns every slug currently in the catalog.
	ListTagSlugs(ctx context.Context) ([]string, error)
}
