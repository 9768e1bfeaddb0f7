// Package testing provides a fake OpenID provider for tests.
package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/zitadel/oidc/v2/pkg/oidc"
)

// DiscoveryPath is where TestIssuer serves its discovery document.
const DiscoveryPath = oidc.DiscoveryEndpoint

// TestIssuer serves an OpenID Connect discovery document from an httptest server.
type TestIssuer struct {
	server   *httptest.Server
	requests atomic.Int64
	status   atomic.Int64
}

// NewTestIssuer starts a test issuer. Call Close when done.
func NewTestIssuer() *TestIssuer {
	ti := &TestIssuer{}
	ti.status.Store(http.StatusOK)
	mux := http.NewServeMux()
	mux.HandleFunc(DiscoveryPath, ti.serveDiscovery)
	ti.server = httptest.NewServer(mux)
	return ti
}

func (ti *TestIssuer) URL() string { return ti.server.URL }

// DiscoveryURL is the full URL of the discovery document.
func (ti *TestIssuer) DiscoveryURL() string { return ti.server.URL + DiscoveryPath }

func (ti *TestIssuer) AuthorizationEndpoint() string { return ti.server.URL + "/auth" }

func (ti *TestIssuer) TokenEndpoint() string { return ti.server.URL + "/token" }

// Requests counts discovery document requests served so far.
func (ti *TestIssuer) Requests() int64 { return ti.requests.Load() }

// FailWith makes the discovery endpoint answer with status; http.StatusOK restores it.
func (ti *TestIssuer) FailWith(status int) { ti.status.Store(int64(status)) }

func (ti *TestIssuer) Close() { ti.server.Close() }

// Document returns the discovery document the issuer serves.
func (ti *TestIssuer) Document() *oidc.DiscoveryConfiguration {
	return &oidc.DiscoveryConfiguration{
		Issuer:                 ti.server.URL,
		AuthorizationEndpoint:  ti.AuthorizationEndpoint(),
		TokenEndpoint:          ti.TokenEndpoint(),
		UserinfoEndpoint:       ti.server.URL + "/userinfo",
		JwksURI:                ti.server.URL + "/.well-known/jwks.json",
		ScopesSupported:        []string{"openid", "email", "profile"},
		ResponseTypesSupported: []string{"code"},
	}
}

func (ti *TestIssuer) serveDiscovery(w http.ResponseWriter, r *http.Request) {
	ti.requests.Add(1)
	if status := int(ti.status.Load()); status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ti.Document())
}
