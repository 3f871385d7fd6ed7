package storage

import (
	"context"
	"time"
)

// CacheEntry is a cached response body with its freshness window
type CacheEntry struct {
	Body      []byte    `json:"body"`
	SourceURL string    `json:"source_url,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Fresh reports whether the entry is still inside its freshness window at now
func (e *CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// CacheStore persists fetched remote data between builds
type CacheStore interface {
	// Get returns the entry for key, or an error wrapping utils.ErrCacheMiss.
	// Expired entries are still returned so callers can fall back to stale data.
	Get(key string) (*CacheEntry, error)

	// Put stores body under key, fresh for ttl from now
	Put(key string, entry *CacheEntry) error

	// DropPrefix deletes every key starting with prefix
	DropPrefix(prefix string) error

	// Count returns the number of stored entries
	Count() (int, error)

	// RunGC runs periodic value log garbage collection until ctx is done
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}
