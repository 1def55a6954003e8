package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"

	"github.com/Strob0t/rentalmanager/internal/adapter/azblob"
	rmhttp "github.com/Strob0t/rentalmanager/internal/adapter/http"
	"github.com/Strob0t/rentalmanager/internal/adapter/localfs"
	"github.com/Strob0t/rentalmanager/internal/adapter/mcp"
	rmnats "github.com/Strob0t/rentalmanager/internal/adapter/nats"
	"github.com/Strob0t/rentalmanager/internal/adapter/natskv"
	rmotel "github.com/Strob0t/rentalmanager/internal/adapter/otel"
	"github.com/Strob0t/rentalmanager/internal/adapter/postgres"
	rmredis "github.com/Strob0t/rentalmanager/internal/adapter/redis"
	"github.com/Strob0t/rentalmanager/internal/adapter/ristretto"
	"github.com/Strob0t/rentalmanager/internal/adapter/tiered"
	"github.com/Strob0t/rentalmanager/internal/adapter/ws"
	"github.com/Strob0t/rentalmanager/internal/config"
	"github.com/Strob0t/rentalmanager/internal/logger"
	"github.com/Strob0t/rentalmanager/internal/middleware"
	"github.com/Strob0t/rentalmanager/internal/port/cache"
	"github.com/Strob0t/rentalmanager/internal/port/messagequeue"
	"github.com/Strob0t/rentalmanager/internal/port/storage"
	"github.com/Strob0t/rentalmanager/internal/resilience"
	"github.com/Strob0t/rentalmanager/internal/secrets"
	"github.com/Strob0t/rentalmanager/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			slog.Error("admin command failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log.With("app", cfg.Server.AppName))

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"storage", cfg.Storage.Provider,
		"cache_l2", cfg.Cache.L2Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Secrets ---

	vault, err := secrets.NewVault(secrets.WithDefaults(
		secrets.EnvLoader(secrets.KeyJWTSecret, secrets.KeyBackendKey, secrets.KeyMCPAPIKey),
		map[string]string{
			secrets.KeyJWTSecret:  cfg.Auth.JWTSecret,
			secrets.KeyBackendKey: cfg.Backend.AnonKey,
			secrets.KeyMCPAPIKey:  cfg.MCP.APIKey,
		},
	))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	if err := vault.Require(secrets.KeyJWTSecret, secrets.KeyBackendKey); err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	go reloadOnHangup(ctx, vault)

	// --- Telemetry ---

	shutdownOtel, err := rmotel.Setup(ctx, cfg.Otel, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := rmotel.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Backend.URL, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Backend.URL); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")
	store := postgres.NewStore(pool)

	objects, storageHandler, err := openObjectStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	var queue *rmnats.Queue
	var mq messagequeue.Queue
	if cfg.NATS.URL != "" {
		queue, err = rmnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Drain() }()
		mq = queue
		slog.Info("nats connected")
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()
	sharedCache, closeL2, err := openCache(ctx, cfg, l1, queue)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeL2()

	// --- Events ---

	hub := ws.NewHub(originPatterns(cfg.Server.CORSOrigin)...)
	events := service.NewEventPublisher(mq, hub)
	cancelForward, err := events.Forward(ctx)
	if err != nil {
		return fmt.Errorf("event forwarding: %w", err)
	}
	defer cancelForward()
	notifier := metrics.RecordNotifier(events)

	// --- Services ---

	authSvc := service.NewAuthService(store, &cfg.Auth)
	authSvc.SetSecret(vault.Get(secrets.KeyJWTSecret))
	vault.OnReload(func() { authSvc.SetSecret(vault.Get(secrets.KeyJWTSecret)) })
	defer authSvc.OnAuthStateChange(events.AuthStateChanged)()
	defer authSvc.OnAuthStateChange(metrics.CountAuth)()
	authSvc.StartTokenCleanup(ctx, cfg.Auth.CleanupInterval)

	lists := service.NewListCache(sharedCache, cfg.Cache.ListTTL)
	confirms := service.NewConfirmations(sharedCache, cfg.Cache.ConfirmTTL)

	propertySvc := service.NewPropertyService(store, lists, notifier)
	tenantSvc := service.NewTenantService(store, store, lists, confirms, notifier)
	documentSvc := service.NewDocumentService(service.DocumentDeps{
		Documents:  store,
		Properties: store,
		Tenants:    store,
		Objects:    objects,
		Breaker:    resilience.NewBreaker("storage", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout),
		Limiter:    resilience.NewLimiter("uploads", cfg.Storage.MaxConcurrentUploads),
		Cache:      lists,
		Events:     notifier,
	})
	dashboardSvc := service.NewDashboardService(store, store, lists)

	// --- HTTP ---

	handlers := &rmhttp.Handlers{
		AppName:            cfg.Server.AppName,
		Auth:               authSvc,
		Probe:              store,
		Properties:         propertySvc,
		Tenants:            tenantSvc,
		Documents:          documentSvc,
		Dashboard:          dashboardSvc,
		Uploads:            metrics,
		MaxUploadBytes:     cfg.Storage.MaxUploadMB << 20,
		RefreshTokenExpiry: cfg.Auth.RefreshTokenExpiry,
	}

	mounts := rmhttp.Mounts{WS: hub.HandleWS, Storage: storageHandler}
	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{Name: cfg.Server.AppName, Version: version}, mcp.ServerDeps{
			Properties: propertySvc,
			Tenants:    tenantSvc,
			Documents:  documentSvc,
			Dashboard:  dashboardSvc,
		})
		mounts.MCP = mcp.AuthMiddleware(func() string { return vault.Get(secrets.KeyMCPAPIKey) }, mcpSrv.Handler())
		slog.Info("mcp endpoint enabled", "path", "/mcp")
	}

	limiter := middleware.NewRateLimiterFromConfig(ctx, cfg.Rate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(rmhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(rmotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(rmhttp.SecurityHeaders)
	r.Use(rmhttp.AppName(cfg.Server.AppName))
	r.Use(rmhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.APIKey(func() string { return vault.Get(secrets.KeyBackendKey) }))
	r.Use(middleware.Gate(authSvc, store))
	r.Use(limiter.Handler)
	r.Use(middleware.Idempotency(sharedCache, cfg.Idempotency.TTL))

	rmhttp.MountRoutes(r, handlers, mounts)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute, // uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openObjectStore returns the configured object store and, for the local
// provider, the handler serving its files under /storage.
func openObjectStore(ctx context.Context, cfg config.Storage) (storage.ObjectStore, http.Handler, error) {
	switch cfg.Provider {
	case "azure":
		s, err := azblob.New(ctx, cfg.AzureConnStr, cfg.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		s, err := localfs.New(cfg.LocalDir, cfg.Bucket, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Handler(), nil
	}
}

// openCache layers the configured L2 under l1. The returned func closes the L2.
func openCache(ctx context.Context, cfg *config.Config, l1 *ristretto.Cache, queue *rmnats.Queue) (cache.Cache, func(), error) {
	var l2 cache.Cache
	closeL2 := func() {}

	switch cfg.Cache.L2Backend {
	case "nats":
		if queue == nil {
			return nil, nil, errors.New("nats l2 cache needs a nats connection")
		}
		kv, err := natskv.Open(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("nats kv: %w", err)
		}
		l2 = kv
	case "redis":
		rc, err := rmredis.Dial(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		l2 = rc
		closeL2 = func() { _ = rc.Close() }
	}
	return tiered.New(l1, l2, cfg.Cache.ListTTL), closeL2, nil
}

// originPatterns turns the CORS origin into the host pattern the WebSocket
// handshake accepts.
func originPatterns(origin string) []string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// reloadOnHangup reloads the vault on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded", "keys", len(vault.Keys()))
		}
	}
}
