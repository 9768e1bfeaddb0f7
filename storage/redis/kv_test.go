package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zitadel/oidc/v2/pkg/oidc"
)

func TestDocumentCache_UnreachableServerReportsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	c := NewDocumentCache(rdb)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "https://idp.example.com/.well-known/openid-configuration"); err == nil || ok {
		t.Fatalf("expected an error from an unreachable redis, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, "u", &oidc.DiscoveryConfiguration{Issuer: "i"}, time.Minute); err == nil {
		t.Fatal("expected Put to fail against an unreachable redis")
	}
	if err := c.Put(ctx, "u", nil, time.Minute); err != nil {
		t.Fatalf("nil documents are ignored, got %v", err)
	}
}
