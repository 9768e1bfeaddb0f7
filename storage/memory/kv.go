package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/zitadel/oidc/v2/pkg/oidc"
)

type docItem struct {
	doc     oidc.DiscoveryConfiguration
	expires time.Time
}

// DocumentCache is an in-memory discovery document cache with TTL support.
// It is only safe for single-process deployments.
type DocumentCache struct {
	mu    sync.Mutex
	items map[string]docItem
	now   func() time.Time
}

func NewDocumentCache() *DocumentCache {
	return &DocumentCache{items: make(map[string]docItem), now: time.Now}
}

func (c *DocumentCache) Get(ctx context.Context, uri string) (*oidc.DiscoveryConfiguration, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[uri]
	if !ok {
		return nil, false, nil
	}
	if !it.expires.IsZero() && c.now().After(it.expires) {
		delete(c.items, uri)
		return nil, false, nil
	}
	doc := it.doc
	return &doc, true, nil
}

func (c *DocumentCache) Put(ctx context.Context, uri string, doc *oidc.DiscoveryConfiguration, ttl time.Duration) error {
	_ = ctx
	if doc == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.items[uri] = docItem{doc: *doc, expires: exp}
	return nil
}

// Len reports the number of stored documents, expired ones included.
func (c *DocumentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
