package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chaijs/docsite/pkg/storage"
	"github.com/chaijs/docsite/pkg/utils"
)

const cacheKeyPrefix = "fetch:"

// CachedFetcher serves GET bodies from a CacheStore while they are fresh
type CachedFetcher struct {
	fetcher *Fetcher
	store   storage.CacheStore
	log     *logrus.Entry
	now     func() time.Time
}

// NewCachedFetcher wraps fetcher with store
func NewCachedFetcher(fetcher *Fetcher, store storage.CacheStore, log *logrus.Entry) *CachedFetcher {
	return &CachedFetcher{fetcher: fetcher, store: store, log: log, now: time.Now}
}

// Get returns the body for rawURL. A fresh cached body is returned without a
// request. Otherwise the URL is fetched and cached for ttl; if the fetch fails
// and a stale body exists, the stale body is returned with a warning.
func (c *CachedFetcher) Get(ctx context.Context, rawURL string, ttl time.Duration) ([]byte, error) {
	key := cacheKeyPrefix + rawURL
	reqLog := c.log.WithField("url", rawURL)

	cached, err := c.store.Get(key)
	if err != nil && !errors.Is(err, utils.ErrCacheMiss) {
		reqLog.Warnf("Cache read failed: %v", err)
	}
	if cached != nil && cached.Fresh(c.now()) {
		reqLog.Debug("Serving from fetch cache")
		return cached.Body, nil
	}

	body, fetchErr := c.fetcher.Get(ctx, rawURL)
	if fetchErr != nil {
		if cached != nil {
			reqLog.Warnf("Fetch failed, using stale cache from %s: %v", cached.FetchedAt.Format(time.RFC3339), fetchErr)
			return cached.Body, nil
		}
		return nil, fetchErr
	}

	fetchedAt := c.now()
	entry := &storage.CacheEntry{
		Body:      body,
		SourceURL: rawURL,
		FetchedAt: fetchedAt,
		ExpiresAt: fetchedAt.Add(ttl),
	}
	if err := c.store.Put(key, entry); err != nil {
		reqLog.Warnf("Failed to cache response: %v", err)
	}
	return body, nil
}

// Purge drops every cached fetch response
func (c *CachedFetcher) Purge() error {
	return c.store.DropPrefix(cacheKeyPrefix)
}
