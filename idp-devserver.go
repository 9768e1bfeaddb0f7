package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/open-rails/moreidps/metrics"
	oidckit "github.com/open-rails/moreidps/oidc"
	"github.com/open-rails/moreidps/resources"
	memorystore "github.com/open-rails/moreidps/storage/memory"
	redisstore "github.com/open-rails/moreidps/storage/redis"
)

type config struct {
	ListenAddr    string
	ResourcesPath string
	EnvPrefix     string
	RedisURL      string
	LogLevel      string
	DiscoveryTTL  time.Duration
	FetchTimeout  time.Duration
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fatal(fmt.Errorf("load .env: %w", err))
	}
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

func loadConfig() (*config, error) {
	c := &config{
		ListenAddr:    envOr("MOREIDPS_LISTEN_ADDR", ":8080"),
		ResourcesPath: envOr("MOREIDPS_CONFIG", "idp_configs.yaml"),
		EnvPrefix:     envOr("MOREIDPS_ENV_PREFIX", "MOREIDPS"),
		RedisURL:      firstEnv("MOREIDPS_REDIS_URL", "REDIS_URL"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		DiscoveryTTL:  envDuration("MOREIDPS_DISCOVERY_TTL", 24*time.Hour),
		FetchTimeout:  envDuration("MOREIDPS_FETCH_TIMEOUT", 10*time.Second),
	}
	if strings.TrimSpace(c.ResourcesPath) == "" {
		return nil, fmt.Errorf("MOREIDPS_CONFIG is required (a .yaml or Android .xml resource file)")
	}
	return c, nil
}

// app wires the provider registry to its resources, cache and metrics.
type app struct {
	cfg      *config
	log      *logrus.Logger
	res      *resources.Bundle
	mgr      *oidckit.Manager
	registry *prometheus.Registry
	closers  []io.Closer
}

func newApp(cfg *config) (*app, error) {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.JSONFormatter{})

	res, err := resources.Load(cfg.ResourcesPath)
	if err != nil {
		return nil, err
	}
	if err := res.ApplyEnv(cfg.EnvPrefix); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, res: res, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector())

	var cache oidckit.DocumentCache = memorystore.NewDocumentCache()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		a.closers = append(a.closers, rdb)
		cache = redisstore.NewDocumentCache(rdb)
	} else {
		log.Info("redis not configured; caching discovery documents in memory (single-node only)")
	}

	collector, err := metrics.NewCollector(a.registry)
	if err != nil {
		return nil, err
	}

	fetcher := &oidckit.CachingFetcher{
		Next:   oidckit.NewHTTPFetcher(&http.Client{Timeout: cfg.FetchTimeout}),
		Cache:  cache,
		TTL:    cfg.DiscoveryTTL,
		Logger: log,
	}
	a.mgr = oidckit.NewManager(res, oidckit.DefaultProviders(),
		oidckit.WithFetcher(fetcher),
		oidckit.WithLogger(log),
		oidckit.WithObserver(collector),
	)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func (a *app) label(p *oidckit.IdentityProvider) string {
	if s, err := a.res.String(p.Definition().ButtonLabel); err == nil && strings.TrimSpace(s) != "" {
		return s
	}
	return p.Name()
}

func (a *app) enabledProvider(ctx context.Context, name string) (*oidckit.IdentityProvider, error) {
	enabled, err := a.mgr.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range enabled {
		if strings.EqualFold(p.Name(), name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("provider %q is unknown or not enabled", name)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "moreidps",
		Short:         "Identity provider configuration demo (Facebook, GitHub, Google, Microsoft)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var resourcesPath string
	root.PersistentFlags().StringVar(&resourcesPath, "config", "", "resource file (.yaml or Android .xml); overrides MOREIDPS_CONFIG")

	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if resourcesPath != "" {
				cfg.ResourcesPath = resourcesPath
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "providers",
			Short: "List enabled providers",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
				enabled, err := a.mgr.ListEnabled(cmd.Context())
				if err != nil {
					return err
				}
				if len(enabled) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no identity providers configured")
					return nil
				}
				for _, p := range enabled {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Name(), a.label(p))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "config <provider>",
			Short: "Retrieve a provider's service configuration",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				p, err := a.enabledProvider(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				sc, err := a.mgr.Retrieve(cmd.Context(), p)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newConfigResponse(p, sc))
			}),
		},
		&cobra.Command{
			Use:   "authurl <provider>",
			Short: "Print an authorization request URL with fresh state and PKCE verifier",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				p, err := a.enabledProvider(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				sc, err := a.mgr.Retrieve(cmd.Context(), p)
				if err != nil {
					return err
				}
				req, err := oidckit.NewAuthRequest(p, sc)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "url:      %s\nstate:    %s\nverifier: %s\n", req.URL, req.State, req.Verifier)
				if req.Nonce != "" {
					fmt.Fprintf(out, "nonce:    %s\n", req.Nonce)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the provider list, configurations and metrics over HTTP",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
				server := &http.Server{
					Addr:              a.cfg.ListenAddr,
					Handler:           a.routes(),
					ReadHeaderTimeout: 5 * time.Second,
				}
				a.log.WithField("addr", a.cfg.ListenAddr).Info("listening")
				return server.ListenAndServe()
			}),
		},
	)
	return root
}

type providerResponse struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Discovery bool   `json:"discovery"`
}

type configResponse struct {
	Provider              string `json:"provider"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	Issuer                string `json:"issuer,omitempty"`
	UserinfoEndpoint      string `json:"userinfo_endpoint,omitempty"`
	JwksURI               string `json:"jwks_uri,omitempty"`
	Discovered            bool   `json:"discovered"`
}

func newConfigResponse(p *oidckit.IdentityProvider, sc *oidckit.ServiceConfig) configResponse {
	out := configResponse{
		Provider:              p.Name(),
		AuthorizationEndpoint: sc.AuthorizationEndpoint.String(),
		TokenEndpoint:         sc.TokenEndpoint.String(),
	}
	if d := sc.Discovery; d != nil {
		out.Discovered = true
		out.Issuer = d.Issuer
		out.UserinfoEndpoint = d.UserinfoEndpoint
		out.JwksURI = d.JwksURI
	}
	return out
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("GET /providers", func(w http.ResponseWriter, r *http.Request) {
		enabled, err := a.mgr.ListEnabled(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "provider_configuration_invalid"})
			return
		}
		out := make([]providerResponse, 0, len(enabled))
		for _, p := range enabled {
			disc, _ := p.DiscoveryEndpoint()
			out = append(out, providerResponse{Name: p.Name(), Label: a.label(p), Discovery: disc != nil})
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /providers/{name}/config", func(w http.ResponseWriter, r *http.Request) {
		p, err := a.enabledProvider(r.Context(), r.PathValue("name"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown_provider"})
			return
		}
		sc, err := a.mgr.Retrieve(r.Context(), p)
		if err != nil {
			var de *oidckit.DiscoveryError
			if errors.As(err, &de) {
				writeJSON(w, http.StatusBadGateway, map[string]any{"error": "discovery_failed"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "provider_configuration_invalid"})
			return
		}
		writeJSON(w, http.StatusOK, newConfigResponse(p, sc))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func fatal(err error) {
	if err == nil {
		os.Exit(0)
	}
	if errors.Is(err, http.ErrServerClosed) {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
