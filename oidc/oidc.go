package oidckit

import (
	"errors"
	"net/url"

	"github.com/zitadel/oidc/v2/pkg/oidc"
)

// Provider names registered by DefaultProviders.
const (
	ProviderFacebook  = "Facebook"
	ProviderGitHub    = "GitHub"
	ProviderGoogle    = "Google"
	ProviderMicrosoft = "Microsoft"
)

var (
	// ErrInvalidProvider marks a provider definition or resource value that can never work.
	ErrInvalidProvider = errors.New("invalid identity provider configuration")
	// ErrNotResolved is returned by accessors used before Resolve succeeded.
	ErrNotResolved = errors.New("configuration not read")
)

// ServiceConfig holds the endpoints an authorization request is sent to.
// Discovery is nil when the endpoints were configured explicitly.
type ServiceConfig struct {
	AuthorizationEndpoint *url.URL
	TokenEndpoint         *url.URL
	Discovery             *oidc.DiscoveryConfiguration
}

// DiscoveryError reports a failed discovery document fetch.
type DiscoveryError struct {
	URI string
	Err error
}

func (e *DiscoveryError) Error() string {
	return "discovery fetch failed for " + e.URI + ": " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
