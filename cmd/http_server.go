package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	gormLogger "gorm.io/gorm/logger"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	authPostgres "github.com/apdq/deliver-backend/internal/auth/postgres"
	"github.com/apdq/deliver-backend/internal/billing"
	billingPostgres "github.com/apdq/deliver-backend/internal/billing/postgres"
	billingStripe "github.com/apdq/deliver-backend/internal/billing/stripe"
	"github.com/apdq/deliver-backend/internal/cache"
	"github.com/apdq/deliver-backend/internal/core/events"
	"github.com/apdq/deliver-backend/internal/faq"
	faqPostgres "github.com/apdq/deliver-backend/internal/faq/postgres"
	"github.com/apdq/deliver-backend/internal/garage"
	garagePostgres "github.com/apdq/deliver-backend/internal/garage/postgres"
	"github.com/apdq/deliver-backend/internal/message"
	messagePostgres "github.com/apdq/deliver-backend/internal/message/postgres"
	"github.com/apdq/deliver-backend/internal/notify"
	"github.com/apdq/deliver-backend/internal/remorqueur"
	remorqueurPostgres "github.com/apdq/deliver-backend/internal/remorqueur/postgres"
	"github.com/apdq/deliver-backend/internal/staff"
	staffPostgres "github.com/apdq/deliver-backend/internal/staff/postgres"
	"github.com/apdq/deliver-backend/internal/storage"
	"github.com/apdq/deliver-backend/internal/transport"
	"github.com/apdq/deliver-backend/internal/transport/middleware"
	"github.com/apdq/deliver-backend/internal/transport/rest"
	"github.com/apdq/deliver-backend/internal/transport/swagger"
	"github.com/apdq/deliver-backend/internal/vehicle"
	vehiclePostgres "github.com/apdq/deliver-backend/internal/vehicle/postgres"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Redis      *redis.Client
	Bus        *events.EventBus
	Dispatcher *notify.Dispatcher
	Router     *chi.Mux
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
		}
	}

	deps.Close()
	deps.Logger.Info("Server stopped")
}

// Close releases everything initializeDependencies opened, in reverse order.
// Event handlers still running get a few seconds to hand their events to
// the dispatcher.
func (d *Dependencies) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Bus.Wait(ctx); err != nil {
		d.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	d.Dispatcher.Shutdown()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

// initNotifications builds the in-process event bus and forwards its events
// to RabbitMQ, or drops them when no broker is configured.
func initNotifications(cfg *internal.Config, lg *slog.Logger) (*events.EventBus, *notify.Dispatcher) {
	var publisher notify.Publisher = notify.NopPublisher{Logger: lg}
	if cfg.RabbitMQ.URL != "" {
		publisher = notify.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, lg)
	}

	bus := events.NewEventBus(lg)
	dispatcher := notify.NewDispatcher(publisher, notify.DispatcherConfig{
		MaxWorkers:   cfg.RabbitMQ.MaxWorkers,
		JobQueueSize: cfg.RabbitMQ.JobQueueSize,
	}, lg)
	dispatcher.Attach(bus)
	return bus, dispatcher
}

func initStore(cfg internal.StorageConfig, lg *slog.Logger) (storage.Store, error) {
	if cfg.FTPHost != "" {
		return storage.NewFTPStore(storage.FTPConfig{
			Host:     cfg.FTPHost,
			User:     cfg.FTPUser,
			Password: cfg.FTPPassword,
			Timeout:  cfg.Timeout,
		}, lg), nil
	}
	lg.Warn("no FTP host configured, storing attachments on local disk", "dir", cfg.LocalDir)
	return storage.NewLocalStore(cfg.LocalDir)
}

// initBilling leaves the verifier and portal nil when Stripe is not
// configured; the billing service then answers 503.
func initBilling(cfg internal.BillingConfig) (billing.Verifier, billing.PortalClient) {
	var (
		verifier billing.Verifier
		portal   billing.PortalClient
	)
	if cfg.WebhookSecret != "" {
		verifier = billingStripe.NewVerifier(cfg.WebhookSecret)
	}
	if cfg.APIKey != "" {
		portal = billingStripe.NewPortal(cfg.APIKey)
	}
	return verifier, portal
}

type coreDeps struct {
	store  storage.Store
	hasher *auth.Hasher
	issuer *auth.TokenIssuer
}

// initCore builds the pieces that need no network connection. It runs
// before the database and Redis are opened so a bad secret or storage
// directory never leaves a pool behind.
func initCore(cfg *internal.Config, lg *slog.Logger) (*coreDeps, error) {
	hasher, err := auth.NewHasher(cfg.Security.PasswordPepper)
	if err != nil {
		return nil, err
	}
	issuer, err := auth.NewTokenIssuer(cfg.Security.JWTSecret, lg)
	if err != nil {
		return nil, err
	}
	store, err := initStore(cfg.Storage, lg)
	if err != nil {
		return nil, err
	}
	return &coreDeps{store: store, hasher: hasher, issuer: issuer}, nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)

	if _, err := swagger.Load(ctx); err != nil {
		return nil, err
	}

	core, err := initCore(config, lg)
	if err != nil {
		return nil, err
	}
	store, hasher, issuer := core.store, core.hasher, core.issuer

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := initGorm(config.Database, db, gormLogger.Warn)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// Redis is opened last; nothing after it returns an error, so both pools
	// belong to Dependencies from here on.
	rdb, err := cache.NewRedisClient(ctx, config.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	bus, dispatcher := initNotifications(config, lg)
	base := transport.NewBaseHandler(lg)

	var (
		vehicleCache vehicle.Cache = cache.Nop{}
		scripter     redis.Scripter
	)
	health := map[string]rest.Pinger{
		"database": rest.PingFunc(db.PingContext),
		"storage":  store,
	}
	if rdb != nil {
		redisCache := cache.NewRedisCache(rdb, config.Redis.CacheTTL)
		vehicleCache = redisCache
		scripter = rdb
		health["redis"] = redisCache
	} else {
		lg.Warn("no redis configured, vehicle lookups are not cached and login is not rate limited")
	}

	verifier, portal := initBilling(config.Billing)

	authService := auth.NewService(authPostgres.NewRepository(gdb), hasher, issuer, lg)
	staffService := staff.NewService(staffPostgres.NewStaffRepository(gdb), hasher, lg)
	garageService := garage.NewService(garagePostgres.NewGarageRepository(gdb), hasher, bus, lg)
	remorqueurService := remorqueur.NewService(remorqueurPostgres.NewRemorqueurRepository(gdb), hasher, lg)
	messageService := message.NewService(messagePostgres.NewMessageRepository(gdb), bus, lg)
	faqService := faq.NewService(faqPostgres.NewFAQRepository(gdb), lg)
	vehicleService := vehicle.NewService(vehiclePostgres.NewVehicleRepository(gdb), store, vehicleCache, config.Storage.BaseDir, lg)
	billingService := billing.NewService(billingPostgres.NewBillingRepository(gdb), verifier, portal, bus, config.Billing.DefaultFrontendURL, lg)

	metricsPath := ""
	if config.Observability.Metrics.Enabled {
		metricsPath = config.Observability.Metrics.Path
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Routes{
		Auth:           auth.NewHandler(authService),
		Gate:           auth.NewGate(lg),
		Staff:          staff.NewHandler(base, staffService, config.Security.DispatchAdminKey),
		Garage:         garage.NewHandler(base, garageService),
		Remorqueur:     remorqueur.NewHandler(base, remorqueurService),
		Message:        message.NewHandler(base, messageService),
		FAQ:            faq.NewHandler(base, faqService),
		Vehicle:        vehicle.NewHandler(base, vehicleService),
		Billing:        billing.NewHandler(base, billingService),
		Health:         rest.NewHealthHandler(base, health),
		LoginLimiter:   middleware.NewRateLimiter(config.Redis.RateLimit, scripter, "login", lg),
		AllowedOrigins: config.Server.Origins(),
		MetricsPath:    metricsPath,
		TrustProxy:     config.Server.TrustProxy,
		Logger:         lg,
	})

	return &Dependencies{
		Config:     config,
		DB:         db,
		Redis:      rdb,
		Bus:        bus,
		Dispatcher: dispatcher,
		Router:     router,
		Logger:     lg,
	}, nil
}
