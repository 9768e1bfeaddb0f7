package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zitadel/oidc/v2/pkg/oidc"
)

const keyPrefix = "moreidps:discovery:"

// DocumentCache is a Redis-backed discovery document cache, shared between
// processes. Documents are stored as JSON with a Redis TTL.
type DocumentCache struct {
	rdb redis.UniversalClient
}

func NewDocumentCache(rdb redis.UniversalClient) *DocumentCache {
	return &DocumentCache{rdb: rdb}
}

func (c *DocumentCache) Get(ctx context.Context, uri string) (*oidc.DiscoveryConfiguration, bool, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+uri).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	doc := new(oidc.DiscoveryConfiguration)
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (c *DocumentCache) Put(ctx context.Context, uri string, doc *oidc.DiscoveryConfiguration, ttl time.Duration) error {
	if doc == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+uri, b, ttl).Err()
}
