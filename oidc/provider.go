package oidckit

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
)

// Ref names a value in a Resources source.
type Ref string

// NotSpecified marks an optional reference that is not configured.
const NotSpecified Ref = ""

// Resources supplies configuration values by reference.
type Resources interface {
	Bool(ref Ref) (bool, error)
	String(ref Ref) (string, error)
}

// Definition lists the resource references that make up one identity provider.
type Definition struct {
	Name              string
	Enabled           Ref
	DiscoveryEndpoint Ref // OpenID Connect discovery document; replaces Auth/TokenEndpoint
	AuthEndpoint      Ref
	TokenEndpoint     Ref
	ClientID          Ref
	ClientSecret      Ref // public clients leave this NotSpecified
	RedirectURI       Ref
	Scope             Ref // space delimited
	ButtonImage       Ref
	ButtonLabel       Ref
}

// Resolved is the frozen result of reading a Definition.
type Resolved struct {
	Enabled           bool
	DiscoveryEndpoint *url.URL
	AuthEndpoint      *url.URL
	TokenEndpoint     *url.URL
	ClientID          string
	ClientSecret      string
	HasClientSecret   bool
	RedirectURI       *url.URL
	Scope             string
}

// IdentityProvider is a provider definition plus its resolve-once configuration.
type IdentityProvider struct {
	def      Definition
	resolved atomic.Pointer[Resolved]
}

// NewIdentityProvider validates def. Either the discovery endpoint or both the
// auth and token endpoints must be given.
func NewIdentityProvider(def Definition) (*IdentityProvider, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: name must be specified", ErrInvalidProvider)
	}
	explicit := def.AuthEndpoint != NotSpecified && def.TokenEndpoint != NotSpecified
	if def.DiscoveryEndpoint == NotSpecified && !explicit {
		return nil, fmt.Errorf("%w: %s: the discovery endpoint or the auth and token endpoints must be specified", ErrInvalidProvider, def.Name)
	}
	required := []struct {
		ref  Ref
		name string
	}{
		{def.Enabled, "enabled"},
		{def.ClientID, "client id"},
		{def.RedirectURI, "redirect uri"},
		{def.Scope, "scope"},
		{def.ButtonImage, "button image"},
		{def.ButtonLabel, "button label"},
	}
	for _, r := range required {
		if r.ref == NotSpecified {
			return nil, fmt.Errorf("%w: %s: %s must be specified", ErrInvalidProvider, def.Name, r.name)
		}
	}
	return &IdentityProvider{def: def}, nil
}

// MustIdentityProvider is NewIdentityProvider for static provider tables.
func MustIdentityProvider(def Definition) *IdentityProvider {
	p, err := NewIdentityProvider(def)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the human readable provider name.
func (p *IdentityProvider) Name() string { return p.def.Name }

// Definition returns the references the provider was built from.
func (p *IdentityProvider) Definition() Definition { return p.def }

// Resolve reads the provider's configuration from res. Only the first
// successful call reads anything; later calls are no-ops.
func (p *IdentityProvider) Resolve(res Resources) error {
	if p.resolved.Load() != nil {
		return nil
	}
	r, err := p.read(res)
	if err != nil {
		return err
	}
	p.resolved.Store(r)
	return nil
}

func (p *IdentityProvider) read(res Resources) (*Resolved, error) {
	var (
		r   Resolved
		err error
	)
	if r.Enabled, err = res.Bool(p.def.Enabled); err != nil {
		return nil, p.readErr("enabled", err)
	}
	if r.DiscoveryEndpoint, err = p.optionalURI(res, p.def.DiscoveryEndpoint, "discovery endpoint"); err != nil {
		return nil, err
	}
	if r.AuthEndpoint, err = p.optionalURI(res, p.def.AuthEndpoint, "auth endpoint"); err != nil {
		return nil, err
	}
	if r.TokenEndpoint, err = p.optionalURI(res, p.def.TokenEndpoint, "token endpoint"); err != nil {
		return nil, err
	}
	if r.ClientID, err = res.String(p.def.ClientID); err != nil {
		return nil, p.readErr("client id", err)
	}
	if p.def.ClientSecret != NotSpecified {
		if r.ClientSecret, err = res.String(p.def.ClientSecret); err != nil {
			return nil, p.readErr("client secret", err)
		}
		r.HasClientSecret = true
	}
	if r.RedirectURI, err = p.optionalURI(res, p.def.RedirectURI, "redirect uri"); err != nil {
		return nil, err
	}
	if r.Scope, err = res.String(p.def.Scope); err != nil {
		return nil, p.readErr("scope", err)
	}
	return &r, nil
}

func (p *IdentityProvider) optionalURI(res Resources, ref Ref, what string) (*url.URL, error) {
	if ref == NotSpecified {
		return nil, nil
	}
	s, err := res.String(ref)
	if err != nil {
		return nil, p.readErr(what, err)
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s %q: %v", ErrInvalidProvider, p.def.Name, what, s, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %s: %s %q has no scheme", ErrInvalidProvider, p.def.Name, what, s)
	}
	return u, nil
}

func (p *IdentityProvider) readErr(what string, err error) error {
	return fmt.Errorf("%w: %s: read %s: %w", ErrInvalidProvider, p.def.Name, what, err)
}

// Config returns the resolved configuration.
func (p *IdentityProvider) Config() (*Resolved, error) {
	r := p.resolved.Load()
	if r == nil {
		return nil, fmt.Errorf("%s: %w", p.def.Name, ErrNotResolved)
	}
	return r, nil
}

func (p *IdentityProvider) Enabled() (bool, error) {
	r, err := p.Config()
	if err != nil {
		return false, err
	}
	return r.Enabled, nil
}

// DiscoveryEndpoint is nil when the provider uses explicit endpoints.
func (p *IdentityProvider) DiscoveryEndpoint() (*url.URL, error) {
	r, err := p.Config()
	if err != nil {
		return nil, err
	}
	return r.DiscoveryEndpoint, nil
}

func (p *IdentityProvider) AuthEndpoint() (*url.URL, error) {
	r, err := p.Config()
	if err != nil {
		return nil, err
	}
	return r.AuthEndpoint, nil
}

func (p *IdentityProvider) TokenEndpoint() (*url.URL, error) {
	r, err := p.Config()
	if err != nil {
		return nil, err
	}
	return r.TokenEndpoint, nil
}

func (p *IdentityProvider) ClientID() (string, error) {
	r, err := p.Config()
	if err != nil {
		return "", err
	}
	return r.ClientID, nil
}

// ClientSecret reports ok=false for public clients.
func (p *IdentityProvider) ClientSecret() (secret string, ok bool, err error) {
	r, err := p.Config()
	if err != nil {
		return "", false, err
	}
	return r.ClientSecret, r.HasClientSecret, nil
}

func (p *IdentityProvider) RedirectURI() (*url.URL, error) {
	r, err := p.Config()
	if err != nil {
		return nil, err
	}
	return r.RedirectURI, nil
}

func (p *IdentityProvider) Scope() (string, error) {
	r, err := p.Config()
	if err != nil {
		return "", err
	}
	return r.Scope, nil
}
