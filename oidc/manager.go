package oidckit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Observer is notified once per Manager.RetrieveConfig outcome.
type Observer interface {
	ObserveRetrieve(provider, path string, err error, elapsed time.Duration)
}

// Dispatch paths reported to an Observer.
const (
	PathDiscovery = "discovery"
	PathExplicit  = "explicit"
	PathResolve   = "resolve"
)

// Manager holds the ordered provider registry and the collaborators used to
// resolve and dispatch them.
type Manager struct {
	res       Resources
	providers []*IdentityProvider
	fetcher   Fetcher
	log       logrus.FieldLogger
	observer  Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithFetcher replaces DefaultFetcher for discovery documents.
func WithFetcher(f Fetcher) Option { return func(m *Manager) { m.fetcher = f } }

func WithLogger(l logrus.FieldLogger) Option { return func(m *Manager) { m.log = l } }

func WithObserver(o Observer) Option { return func(m *Manager) { m.observer = o } }

// NewManager keeps providers in the given order. Resolution happens lazily.
func NewManager(res Resources, providers []*IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		res:       res,
		providers: append([]*IdentityProvider(nil), providers...),
		fetcher:   DefaultFetcher,
		log:       logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Providers returns every registered provider in registration order.
func (m *Manager) Providers() []*IdentityProvider {
	return append([]*IdentityProvider(nil), m.providers...)
}

// Provider looks a provider up by name, ignoring case.
func (m *Manager) Provider(name string) (*IdentityProvider, bool) {
	for _, p := range m.providers {
		if strings.EqualFold(p.Name(), strings.TrimSpace(name)) {
			return p, true
		}
	}
	return nil, false
}

// ListEnabled resolves every provider and returns the enabled ones in
// registration order.
func (m *Manager) ListEnabled(_ context.Context) ([]*IdentityProvider, error) {
	out, err := ListEnabled(m.res, m.providers)
	if err != nil {
		m.log.WithError(err).Error("provider_resolve_failed")
		return nil, err
	}
	return out, nil
}

// ListEnabled resolves providers against res and keeps the enabled ones in
// order. Any resolution failure aborts the listing.
func ListEnabled(res Resources, providers []*IdentityProvider) ([]*IdentityProvider, error) {
	var out []*IdentityProvider
	for _, p := range providers {
		if err := p.Resolve(res); err != nil {
			return nil, err
		}
		enabled, err := p.Enabled()
		if err != nil {
			return nil, err
		}
		if enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

// RetrieveConfig dispatches p and reports the outcome to the logger and
// observer before handing it to cb.
func (m *Manager) RetrieveConfig(ctx context.Context, p *IdentityProvider, cb RetrieveConfigCallback) {
	start := time.Now()
	m.log.WithField("provider", p.Name()).Debug("retrieve_config_started")
	p.RetrieveConfig(ctx, m.res, m.fetcher, func(sc *ServiceConfig, err error) {
		path := dispatchPath(p)
		entry := m.log.WithField("provider", p.Name()).WithField("path", path)
		if err != nil {
			entry.WithError(err).Warn("retrieve_config_failed")
		} else {
			entry.Debug("retrieve_config_completed")
		}
		if m.observer != nil {
			m.observer.ObserveRetrieve(p.Name(), path, err, time.Since(start))
		}
		cb(sc, err)
	})
}

// Retrieve is the blocking form of RetrieveConfig.
func (m *Manager) Retrieve(ctx context.Context, p *IdentityProvider) (*ServiceConfig, error) {
	type result struct {
		sc  *ServiceConfig
		err error
	}
	ch := make(chan result, 1)
	m.RetrieveConfig(ctx, p, func(sc *ServiceConfig, err error) { ch <- result{sc, err} })
	select {
	case r := <-ch:
		return r.sc, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func dispatchPath(p *IdentityProvider) string {
	r, err := p.Config()
	if errors.Is(err, ErrNotResolved) || r == nil {
		return PathResolve
	}
	if r.DiscoveryEndpoint != nil {
		return PathDiscovery
	}
	return PathExplicit
}
