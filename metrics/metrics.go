// Package metrics exports Prometheus counters for provider configuration retrieval.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	oidckit "github.com/open-rails/moreidps/oidc"
)

// Collector implements oidckit.Observer.
type Collector struct {
	retrievals *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

var _ oidckit.Observer = (*Collector)(nil)

// NewCollector registers the collector's metrics on reg (prometheus.DefaultRegisterer when nil).
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moreidps",
			Name:      "config_retrievals_total",
			Help:      "Provider service configuration retrievals by dispatch path and outcome.",
		}, []string{"provider", "path", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moreidps",
			Name:      "config_retrieval_seconds",
			Help:      "Time from dispatch to callback.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "path"}),
	}
	for _, m := range []prometheus.Collector{c.retrievals, c.latency} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveRetrieve(provider, path string, err error, elapsed time.Duration) {
	c.retrievals.WithLabelValues(provider, path, outcome(err)).Inc()
	c.latency.WithLabelValues(provider, path).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	var de *oidckit.DiscoveryError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &de):
		return "discovery_error"
	case errors.Is(err, oidckit.ErrInvalidProvider):
		return "config_error"
	default:
		return "error"
	}
}
