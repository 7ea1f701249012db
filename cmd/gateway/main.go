// Gateway is the multi-tenant Maximo MCP entrypoint. It serves the
// JSON-RPC tool catalog on /mcp, the REST admin surface on /api, and
// executes tool calls against each tenant's Maximo OSLC API.
package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/assetbridge/maxgw/pkg/approvals"
	"github.com/assetbridge/maxgw/pkg/audit"
	"github.com/assetbridge/maxgw/pkg/auth"
	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/metadata"
	"github.com/assetbridge/maxgw/pkg/metrics"
	mgwOtel "github.com/assetbridge/maxgw/pkg/otel"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/tools"
)

const (
	maxBodyBytes    = 1 << 21 // 2 MB
	maxRateLimiters = 10_000
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	// ── OpenTelemetry ────────────────────────────────────────────────────
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelShutdown, err := mgwOtel.Setup(ctx, mgwOtel.Config{
		ServiceName:    config.EnvOr("OTEL_SERVICE_NAME", "maxgw-gateway"),
		OTLPEndpoint:   otelEndpoint,
		MetricsEnabled: true,
		TracingEnabled: otelEndpoint != "",
	})
	if err != nil {
		log.Error("otel setup failed", "error", err)
	} else {
		defer otelShutdown(context.Background()) //nolint:errcheck // best-effort shutdown
	}

	// ── Tenant store ─────────────────────────────────────────────────────
	var store tenant.Store
	var pool *pgxpool.Pool
	switch cfg.TenantStore {
	case "postgres":
		pool, err = pgxpool.New(ctx, buildPostgresDSN())
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = tenant.NewPGStore(pool)
	default:
		fileStore, err := tenant.NewFileStore(cfg.TenantsFile)
		if err != nil {
			log.Error("tenant file load failed", "path", cfg.TenantsFile, "error", err)
			os.Exit(1)
		}
		store = fileStore
	}

	// ── Dependencies ─────────────────────────────────────────────────────
	m := metrics.New()
	cache := metadata.NewCache(cfg.MetadataTTLSeconds)
	registry, err := tools.Build(cfg, store, cache, log, m, nil)
	if err != nil {
		log.Error("tool catalog build failed", "error", err)
		os.Exit(1)
	}
	keyStore := auth.NewKeyStore(os.Getenv("API_KEYS"))

	gw := &Gateway{
		cfg:            cfg,
		log:            log,
		store:          store,
		registry:       registry,
		cache:          cache,
		approvals:      approvals.NewStore(),
		audit:          audit.NewRecorder(pool, log),
		metrics:        m,
		startedAt:      time.Now(),
		rateLimiters:   make(map[string]*rate.Limiter),
		perTenantLimit: cfg.RateLimitPerTenant,
	}

	// ── Router ───────────────────────────────────────────────────────────
	r := gw.router(keyStore)

	// ── Metrics (internal) ───────────────────────────────────────────────
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	go func() {
		log.Info("metrics server starting", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", "error", err)
		}
	}()

	// ── Server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("gateway starting", "addr", cfg.Addr, "tenant_store", cfg.TenantStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down gateway")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	if err := metricsSrv.Shutdown(shutCtx); err != nil {
		log.Error("metrics server shutdown error", "error", err)
	}
}

// router assembles the full HTTP surface: health probes, the JSON-RPC
// dispatch endpoint and the admin REST API.
func (gw *Gateway) router(keys *auth.KeyStore) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Logger)
	r.Use(noStore)
	r.Use(auth.APIKeyAuth(keys))

	r.Get("/healthz", gw.handleHealthz)
	r.Get("/readyz", gw.handleReadyz)

	r.Post("/mcp", gw.HandleMCP)
	r.Post("/mcp/", gw.HandleMCP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", gw.handleStatus)
		r.Get("/capabilities", gw.handleCapabilities)
		r.Get("/tenants", gw.handleListTenants)
		r.Post("/tenants", gw.handleUpsertTenant)
		r.Delete("/tenants/{tenantId}", gw.handleDeleteTenant)
		r.Get("/approvals", gw.handleListApprovals)
		r.Post("/approvals/{id}/approve", gw.handleDecideApproval)
		r.Post("/approvals/{id}/reject", gw.handleDecideApproval)
		r.Post("/agent/chat", gw.handleAgentChat)
	})
	return r
}

// noStore keeps API and MCP responses out of intermediary caches.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func buildPostgresDSN() string {
	sslmode := config.EnvOr("POSTGRES_SSLMODE", "disable")
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.EnvOr("POSTGRES_USER", "maxgw"), config.EnvOr("POSTGRES_PASSWORD", "changeme")),
		Host:     net.JoinHostPort(config.EnvOr("POSTGRES_HOST", "localhost"), config.EnvOr("POSTGRES_PORT", "5432")),
		Path:     config.EnvOr("POSTGRES_DB", "maxgw"),
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}
