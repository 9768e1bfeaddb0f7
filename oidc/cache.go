package oidckit

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zitadel/oidc/v2/pkg/oidc"
)

// DocumentCache stores discovery documents keyed by their URI.
type DocumentCache interface {
	Get(ctx context.Context, uri string) (*oidc.DiscoveryConfiguration, bool, error)
	Put(ctx context.Context, uri string, doc *oidc.DiscoveryConfiguration, ttl time.Duration) error
}

// CachingFetcher serves discovery documents from Cache and falls back to Next.
// Cache failures are logged and never fail a fetch.
type CachingFetcher struct {
	Next   Fetcher
	Cache  DocumentCache
	TTL    time.Duration
	Logger logrus.FieldLogger
}

const defaultDiscoveryTTL = 24 * time.Hour

func (f *CachingFetcher) FetchFromURL(ctx context.Context, uri *url.URL) (*ServiceConfig, error) {
	key := uri.String()
	if doc, ok, err := f.Cache.Get(ctx, key); err != nil {
		f.log().WithError(err).WithField("uri", key).Warn("discovery_cache_get_failed")
	} else if ok {
		if sc, err := ServiceConfigFromDiscovery(doc); err == nil {
			return sc, nil
		}
	}

	next := f.Next
	if next == nil {
		next = DefaultFetcher
	}
	sc, err := next.FetchFromURL(ctx, uri)
	if err != nil {
		return nil, err
	}
	if sc != nil && sc.Discovery != nil {
		ttl := f.TTL
		if ttl <= 0 {
			ttl = defaultDiscoveryTTL
		}
		if err := f.Cache.Put(ctx, key, sc.Discovery, ttl); err != nil {
			f.log().WithError(err).WithField("uri", key).Warn("discovery_cache_put_failed")
		}
	}
	return sc, nil
}

func (f *CachingFetcher) log() logrus.FieldLogger {
	if f.Logger != nil {
		return f.Logger
	}
	return logrus.StandardLogger()
}
