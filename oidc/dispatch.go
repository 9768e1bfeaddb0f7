package oidckit

import (
	"context"
	"errors"
)

// RetrieveConfigCallback receives the outcome of RetrieveConfig. Exactly one
// of cfg and err is non-nil.
type RetrieveConfigCallback func(cfg *ServiceConfig, err error)

// RetrieveConfig resolves the provider and produces its service configuration.
//
// With a discovery endpoint the document is fetched on a new goroutine and cb
// runs there. Otherwise cb runs before RetrieveConfig returns and fetcher is
// not used. cb is called exactly once per call.
func (p *IdentityProvider) RetrieveConfig(ctx context.Context, res Resources, fetcher Fetcher, cb RetrieveConfigCallback) {
	if err := p.Resolve(res); err != nil {
		cb(nil, err)
		return
	}
	r, err := p.Config()
	if err != nil {
		cb(nil, err)
		return
	}

	if r.DiscoveryEndpoint != nil {
		if fetcher == nil {
			fetcher = DefaultFetcher
		}
		uri := r.DiscoveryEndpoint
		go func() {
			sc, err := fetcher.FetchFromURL(ctx, uri)
			if err == nil && sc == nil {
				err = errors.New("fetcher returned no configuration")
			}
			if err != nil {
				cb(nil, asDiscoveryError(uri.String(), err))
				return
			}
			cb(sc, nil)
		}()
		return
	}

	cb(&ServiceConfig{
		AuthorizationEndpoint: r.AuthEndpoint,
		TokenEndpoint:         r.TokenEndpoint,
	}, nil)
}
