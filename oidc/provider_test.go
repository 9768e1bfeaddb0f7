package oidckit

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingResources is a map-backed Resources that records every read.
type countingResources struct {
	mu      sync.Mutex
	bools   map[Ref]bool
	strings map[Ref]string
	reads   map[Ref]int
}

func newCountingResources() *countingResources {
	return &countingResources{bools: map[Ref]bool{}, strings: map[Ref]string{}, reads: map[Ref]int{}}
}

func (c *countingResources) Bool(ref Ref) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads[ref]++
	v, ok := c.bools[ref]
	if !ok {
		return false, fmt.Errorf("bool %q not found", ref)
	}
	return v, nil
}

func (c *countingResources) String(ref Ref) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads[ref]++
	v, ok := c.strings[ref]
	if !ok {
		return "", fmt.Errorf("string %q not found", ref)
	}
	return v, nil
}

func (c *countingResources) readCount(ref Ref) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[ref]
}

func (c *countingResources) totalReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.reads {
		n += v
	}
	return n
}

func googleLike() Definition {
	return Definition{
		Name:              "Google",
		Enabled:           "google_enabled",
		DiscoveryEndpoint: "google_discovery_uri",
		ClientID:          "google_client_id",
		RedirectURI:       "google_auth_redirect_uri",
		Scope:             "google_scope_string",
		ButtonImage:       "btn_google",
		ButtonLabel:       "google_name",
	}
}

func facebookLike() Definition {
	return Definition{
		Name:          "Facebook",
		Enabled:       "facebook_enabled",
		AuthEndpoint:  "facebook_auth_endpoint",
		TokenEndpoint: "facebook_token_endpoint",
		ClientID:      "facebook_client_id",
		ClientSecret:  "facebook_client_secret",
		RedirectURI:   "facebook_auth_redirect_uri",
		Scope:         "facebook_scope_string",
		ButtonImage:   "btn_facebook",
		ButtonLabel:   "facebook_name",
	}
}

func seedGoogle(res *countingResources, enabled bool) {
	res.bools["google_enabled"] = enabled
	res.strings["google_discovery_uri"] = "https://accounts.example.com/.well-known/openid-configuration"
	res.strings["google_client_id"] = "google-client"
	res.strings["google_auth_redirect_uri"] = "com.example.app:/oauth2redirect"
	res.strings["google_scope_string"] = "openid email profile"
}

func seedFacebook(res *countingResources, enabled bool) {
	res.bools["facebook_enabled"] = enabled
	res.strings["facebook_auth_endpoint"] = "https://example.com/authorize"
	res.strings["facebook_token_endpoint"] = "https://example.com/token"
	res.strings["facebook_client_id"] = "fb-client"
	res.strings["facebook_client_secret"] = "fb-secret"
	res.strings["facebook_auth_redirect_uri"] = "https://app.example.com/callback"
	res.strings["facebook_scope_string"] = "public_profile email"
}

func TestNewIdentityProvider_RequiresEndpoints(t *testing.T) {
	cases := map[string]func(d *Definition){
		"no endpoints": func(d *Definition) {
			d.DiscoveryEndpoint, d.AuthEndpoint, d.TokenEndpoint = NotSpecified, NotSpecified, NotSpecified
		},
		"auth only": func(d *Definition) {
			d.DiscoveryEndpoint, d.TokenEndpoint = NotSpecified, NotSpecified
		},
		"token only": func(d *Definition) {
			d.DiscoveryEndpoint, d.AuthEndpoint = NotSpecified, NotSpecified
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := facebookLike()
			mutate(&d)
			p, err := NewIdentityProvider(d)
			require.ErrorIs(t, err, ErrInvalidProvider)
			require.Nil(t, p)
		})
	}
}

func TestNewIdentityProvider_RequiredRefs(t *testing.T) {
	cases := map[string]func(d *Definition){
		"name":         func(d *Definition) { d.Name = " " },
		"enabled":      func(d *Definition) { d.Enabled = NotSpecified },
		"client id":    func(d *Definition) { d.ClientID = NotSpecified },
		"redirect uri": func(d *Definition) { d.RedirectURI = NotSpecified },
		"scope":        func(d *Definition) { d.Scope = NotSpecified },
		"button image": func(d *Definition) { d.ButtonImage = NotSpecified },
		"button label": func(d *Definition) { d.ButtonLabel = NotSpecified },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := googleLike()
			mutate(&d)
			_, err := NewIdentityProvider(d)
			require.ErrorIs(t, err, ErrInvalidProvider)
		})
	}
}

func TestNewIdentityProvider_ClientSecretOptional(t *testing.T) {
	d := googleLike()
	d.ClientSecret = NotSpecified
	_, err := NewIdentityProvider(d)
	require.NoError(t, err)
}

func TestMustIdentityProvider_Panics(t *testing.T) {
	require.Panics(t, func() { MustIdentityProvider(Definition{Name: "broken"}) })
}

func TestAccessorsBeforeResolve(t *testing.T) {
	p := MustIdentityProvider(facebookLike())

	accessors := map[string]func() error{
		"Config":            func() error { _, err := p.Config(); return err },
		"Enabled":           func() error { _, err := p.Enabled(); return err },
		"DiscoveryEndpoint": func() error { _, err := p.DiscoveryEndpoint(); return err },
		"AuthEndpoint":      func() error { _, err := p.AuthEndpoint(); return err },
		"TokenEndpoint":     func() error { _, err := p.TokenEndpoint(); return err },
		"ClientID":          func() error { _, err := p.ClientID(); return err },
		"ClientSecret":      func() error { _, _, err := p.ClientSecret(); return err },
		"RedirectURI":       func() error { _, err := p.RedirectURI(); return err },
		"Scope":             func() error { _, err := p.Scope(); return err },
	}
	for name, call := range accessors {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !errors.Is(err, ErrNotResolved) {
				t.Fatalf("%s before Resolve: expected ErrNotResolved, got %v", name, err)
			}
		})
	}
}

func TestResolve_ReadsOnce(t *testing.T) {
	res := newCountingResources()
	seedFacebook(res, true)
	p := MustIdentityProvider(facebookLike())

	require.NoError(t, p.Resolve(res))
	first, err := p.Config()
	require.NoError(t, err)
	reads := res.totalReads()

	require.NoError(t, p.Resolve(res))
	second, err := p.Config()
	require.NoError(t, err)

	require.Equal(t, reads, res.totalReads(), "second Resolve must not read resources")
	require.Equal(t, *first, *second)
	for _, ref := range []Ref{"facebook_enabled", "facebook_auth_endpoint", "facebook_token_endpoint", "facebook_client_id", "facebook_client_secret", "facebook_auth_redirect_uri", "facebook_scope_string"} {
		require.Equal(t, 1, res.readCount(ref), "reads of %s", ref)
	}
}

func TestResolve_Values(t *testing.T) {
	res := newCountingResources()
	seedFacebook(res, true)
	p := MustIdentityProvider(facebookLike())
	require.NoError(t, p.Resolve(res))

	enabled, err := p.Enabled()
	require.NoError(t, err)
	require.True(t, enabled)

	disc, err := p.DiscoveryEndpoint()
	require.NoError(t, err)
	require.Nil(t, disc)

	auth, err := p.AuthEndpoint()
	require.NoError(t, err)
	require.Equal(t, "https://example.com/authorize", auth.String())

	tok, err := p.TokenEndpoint()
	require.NoError(t, err)
	require.Equal(t, "https://example.com/token", tok.String())

	id, err := p.ClientID()
	require.NoError(t, err)
	require.Equal(t, "fb-client", id)

	secret, ok, err := p.ClientSecret()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fb-secret", secret)

	redirect, err := p.RedirectURI()
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/callback", redirect.String())

	scope, err := p.Scope()
	require.NoError(t, err)
	require.Equal(t, "public_profile email", scope)
}

func TestResolve_PublicClientHasNoSecret(t *testing.T) {
	res := newCountingResources()
	seedGoogle(res, true)
	p := MustIdentityProvider(googleLike())
	require.NoError(t, p.Resolve(res))

	secret, ok, err := p.ClientSecret()
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, secret)
}

func TestResolve_MalformedURIIsFatal(t *testing.T) {
	res := newCountingResources()
	seedFacebook(res, true)
	res.strings["facebook_token_endpoint"] = "://missing-scheme"
	p := MustIdentityProvider(facebookLike())

	err := p.Resolve(res)
	require.ErrorIs(t, err, ErrInvalidProvider)

	_, err = p.Config()
	require.ErrorIs(t, err, ErrNotResolved, "a failed Resolve must not publish partial state")
}

func TestResolve_MissingValueIsFatal(t *testing.T) {
	res := newCountingResources()
	seedGoogle(res, true)
	delete(res.strings, "google_scope_string")
	p := MustIdentityProvider(googleLike())

	require.ErrorIs(t, p.Resolve(res), ErrInvalidProvider)
	_, err := p.Scope()
	require.ErrorIs(t, err, ErrNotResolved)

	res.strings["google_scope_string"] = "openid"
	require.NoError(t, p.Resolve(res), "a later Resolve retries after failure")
}

func TestResolve_ConcurrentCallers(t *testing.T) {
	res := newCountingResources()
	seedGoogle(res, true)
	p := MustIdentityProvider(googleLike())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Resolve(res); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	id, err := p.ClientID()
	require.NoError(t, err)
	require.Equal(t, "google-client", id)
}
