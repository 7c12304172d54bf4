// Package storage defines the seen-set persistence interface and its implementations.
package storage

import (
	"context"

	"feed_notifier/internal/model"
)

// Storage persists the seen-set of every feed, keyed by feed URL.
type Storage interface {
	// Load returns the persisted seen-set for url, or an empty set if
	// nothing was persisted yet.
	Load(ctx context.Context, url string) (model.SeenSet, error)
	// Save replaces the persisted seen-set for url with seen.
	Save(ctx context.Context, url string, seen model.SeenSet) error

	Close() error
}
