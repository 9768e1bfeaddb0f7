package testing

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/zitadel/oidc/v2/pkg/oidc"
)

func TestTestIssuer_ServesDiscovery(t *testing.T) {
	issuer := NewTestIssuer()
	defer issuer.Close()

	resp, err := http.Get(issuer.DiscoveryURL())
	if err != nil {
		t.Fatalf("failed to fetch discovery document: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var doc oidc.DiscoveryConfiguration
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("failed to decode discovery document: %v", err)
	}
	if doc.AuthorizationEndpoint != issuer.AuthorizationEndpoint() {
		t.Errorf("authorization_endpoint = %q, want %q", doc.AuthorizationEndpoint, issuer.AuthorizationEndpoint())
	}
	if doc.TokenEndpoint != issuer.TokenEndpoint() {
		t.Errorf("token_endpoint = %q, want %q", doc.TokenEndpoint, issuer.TokenEndpoint())
	}
	if doc.Issuer != issuer.URL() {
		t.Errorf("issuer = %q, want %q", doc.Issuer, issuer.URL())
	}
	if issuer.Requests() != 1 {
		t.Errorf("expected 1 request, got %d", issuer.Requests())
	}
}

func TestTestIssuer_FailWith(t *testing.T) {
	issuer := NewTestIssuer()
	defer issuer.Close()

	issuer.FailWith(http.StatusServiceUnavailable)
	resp, err := http.Get(issuer.DiscoveryURL())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	issuer.FailWith(http.StatusOK)
	resp, err = http.Get(issuer.DiscoveryURL())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after reset, got %d", resp.StatusCode)
	}
}
