package oidckit

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// AuthRequest is an authorization-code request ready to be sent to the user agent.
// The caller keeps State, Verifier and Nonce until the redirect comes back.
type AuthRequest struct {
	Provider string
	URL      string
	State    string
	Verifier string
	Nonce    string // empty for plain OAuth2 providers
}

// OAuth2Config builds the x/oauth2 client for a resolved provider and its endpoints.
func OAuth2Config(p *IdentityProvider, sc *ServiceConfig) (*oauth2.Config, error) {
	if sc == nil || sc.AuthorizationEndpoint == nil || sc.TokenEndpoint == nil {
		return nil, errors.New("service configuration has no endpoints")
	}
	r, err := p.Config()
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		RedirectURL:  r.RedirectURI.String(),
		Scopes:       strings.Fields(r.Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  sc.AuthorizationEndpoint.String(),
			TokenURL: sc.TokenEndpoint.String(),
		},
	}, nil
}

// AuthCodeURL returns the authorization URL for response type "code" with an
// S256 PKCE challenge derived from verifier.
func AuthCodeURL(p *IdentityProvider, sc *ServiceConfig, state, verifier string, extra ...oauth2.AuthCodeOption) (string, error) {
	cfg, err := OAuth2Config(p, sc)
	if err != nil {
		return "", err
	}
	opts := append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, extra...)
	return cfg.AuthCodeURL(state, opts...), nil
}

// NewAuthRequest generates state and verifier (plus a nonce for discovered
// OpenID providers) and builds the authorization URL.
func NewAuthRequest(p *IdentityProvider, sc *ServiceConfig) (*AuthRequest, error) {
	req := &AuthRequest{
		Provider: p.Name(),
		State:    uuid.NewString(),
		Verifier: oauth2.GenerateVerifier(),
	}
	var extra []oauth2.AuthCodeOption
	if sc != nil && sc.Discovery != nil {
		req.Nonce = uuid.NewString()
		extra = append(extra, oauth2.SetAuthURLParam("nonce", req.Nonce))
	}
	u, err := AuthCodeURL(p, sc, req.State, req.Verifier, extra...)
	if err != nil {
		return nil, err
	}
	req.URL = u
	return req, nil
}
