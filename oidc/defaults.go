package oidckit

// DefaultProviders returns the demo's provider table: Facebook, GitHub,
// Google and Microsoft, in that order. Each call builds fresh instances, so
// resolution state is never shared between registries.
func DefaultProviders() []*IdentityProvider {
	return []*IdentityProvider{
		// facebook has no OpenID Connect discovery document
		MustIdentityProvider(Definition{
			Name:          ProviderFacebook,
			Enabled:       "facebook_enabled",
			AuthEndpoint:  "facebook_auth_endpoint",
			TokenEndpoint: "facebook_token_endpoint",
			ClientID:      "facebook_client_id",
			ClientSecret:  "facebook_client_secret",
			RedirectURI:   "facebook_auth_redirect_uri",
			Scope:         "facebook_scope_string",
			ButtonImage:   "btn_facebook",
			ButtonLabel:   "facebook_name",
		}),
		// neither does github
		MustIdentityProvider(Definition{
			Name:          ProviderGitHub,
			Enabled:       "github_enabled",
			AuthEndpoint:  "github_auth_endpoint",
			TokenEndpoint: "github_token_endpoint",
			ClientID:      "github_client_id",
			ClientSecret:  "github_client_secret",
			RedirectURI:   "github_auth_redirect_uri",
			Scope:         "github_scope_string",
			ButtonImage:   "btn_github",
			ButtonLabel:   "github_name",
		}),
		MustIdentityProvider(Definition{
			Name:              ProviderGoogle,
			Enabled:           "google_enabled",
			DiscoveryEndpoint: "google_discovery_uri",
			ClientID:          "google_client_id",
			RedirectURI:       "google_auth_redirect_uri",
			Scope:             "google_scope_string",
			ButtonImage:       "btn_google",
			ButtonLabel:       "google_name",
		}),
		MustIdentityProvider(Definition{
			Name:              ProviderMicrosoft,
			Enabled:           "microsoft_enabled",
			DiscoveryEndpoint: "microsoft_discovery_uri",
			ClientID:          "microsoft_client_id",
			RedirectURI:       "microsoft_auth_redirect_uri",
			Scope:             "microsoft_scope_string",
			ButtonImage:       "btn_microsoft",
			ButtonLabel:       "microsoft_name",
		}),
	}
}
