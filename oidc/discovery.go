package oidckit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	httphelper "github.com/zitadel/oidc/v2/pkg/http"
	"github.com/zitadel/oidc/v2/pkg/oidc"
)

// Fetcher retrieves and parses an OpenID Connect discovery document.
type Fetcher interface {
	FetchFromURL(ctx context.Context, uri *url.URL) (*ServiceConfig, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, uri *url.URL) (*ServiceConfig, error)

func (f FetcherFunc) FetchFromURL(ctx context.Context, uri *url.URL) (*ServiceConfig, error) {
	return f(ctx, uri)
}

// DefaultFetcher is used when no fetcher is supplied.
var DefaultFetcher Fetcher = NewHTTPFetcher(nil)

// HTTPFetcher fetches discovery documents over HTTP. It does not retry.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher using client, or a client with a 10s timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{Client: client}
}

func (f *HTTPFetcher) FetchFromURL(ctx context.Context, uri *url.URL) (*ServiceConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return nil, &DiscoveryError{URI: uri.String(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	doc := new(oidc.DiscoveryConfiguration)
	if err := httphelper.HttpRequest(f.Client, req, doc); err != nil {
		return nil, &DiscoveryError{URI: uri.String(), Err: err}
	}
	sc, err := ServiceConfigFromDiscovery(doc)
	if err != nil {
		return nil, &DiscoveryError{URI: uri.String(), Err: err}
	}
	return sc, nil
}

// ServiceConfigFromDiscovery extracts the authorization and token endpoints from doc.
func ServiceConfigFromDiscovery(doc *oidc.DiscoveryConfiguration) (*ServiceConfig, error) {
	if doc == nil {
		return nil, errors.New("empty discovery document")
	}
	auth, err := endpoint("authorization_endpoint", doc.AuthorizationEndpoint)
	if err != nil {
		return nil, err
	}
	token, err := endpoint("token_endpoint", doc.TokenEndpoint)
	if err != nil {
		return nil, err
	}
	return &ServiceConfig{AuthorizationEndpoint: auth, TokenEndpoint: token, Discovery: doc}, nil
}

func endpoint(field, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("discovery document missing %s", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("discovery document %s: %w", field, err)
	}
	return u, nil
}

func asDiscoveryError(uri string, err error) error {
	var de *DiscoveryError
	if errors.As(err, &de) {
		return err
	}
	return &DiscoveryError{URI: uri, Err: err}
}
