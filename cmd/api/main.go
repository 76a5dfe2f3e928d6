package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BradenHooton/investment-portal/internal/auth"
	"github.com/BradenHooton/investment-portal/internal/background"
	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/config"
	"github.com/BradenHooton/investment-portal/internal/database"
	"github.com/BradenHooton/investment-portal/internal/handlers"
	middlewareCustom "github.com/BradenHooton/investment-portal/internal/middleware"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/repositories"
	"github.com/BradenHooton/investment-portal/internal/routes"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	"github.com/BradenHooton/investment-portal/migrations"
	pkgauth "github.com/BradenHooton/investment-portal/pkg/auth"
	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
	pkglogger "github.com/BradenHooton/investment-portal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("session_store", cfg.Session.Store),
	)

	pkgauth.BcryptCost = cfg.Auth.BcryptCost

	// Initialize database
	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	prometheus.MustRegister(database.NewPoolCollector(db))

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := db.Migrate(migrateCtx, migrations.FS)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Session store
	var (
		store   session.Store
		sweeper *background.SessionSweeper
	)
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb, err := session.ConnectRedis(bgCtx, session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
	default:
		mem := session.NewMemoryStore()
		sweeper = background.NewSessionSweeper(mem, logger, cfg.Session.SweepInterval)
		store = mem
	}

	sessionManager := session.NewManager(
		store,
		auth.NewSessionTokenSigner(cfg.Session.Secret),
		auth.CookieConfig{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.Session.CookieDomain,
			Secure:   cfg.Session.CookieSecure,
			SameSite: cfg.Session.CookieSameSite,
		},
		cfg.Session.TTL,
		logger,
	)

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	// Timing delay for login responses
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:    cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs:  cfg.Auth.TimingDelayRandomMs,
		DelayOnSuccess: cfg.Auth.TimingDelayOnSuccess,
	})

	// Initialize repositories
	clientRepo := repositories.NewClientRepository(db)
	adminRepo := repositories.NewAdminUserRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Initialize services
	provider := brokerage.NewFixtureProvider()
	auditService := services.NewAuditService(auditRepo, logger)
	clientAuthService := services.NewClientAuthService(clientRepo, timingDelay, pkglogger.NewAuthEventLogger(logger), logger)
	adminService := services.NewAdminService(adminRepo, clientRepo, auditService, provider, timingDelay, logger)
	brokerageService := services.NewBrokerageService(provider, clientRepo, logger)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, adminRepo, cfg.Admin, cfg.Server.Env, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins}))
	router.Use(middlewareCustom.HTTPMetrics)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(clientAuthService, sessionManager, ipConfig, logger),
		Admin:     handlers.NewAdminHandler(adminService, sessionManager, ipConfig, logger),
		Brokerage: handlers.NewBrokerageHandler(brokerageService, sessionManager, logger),
	}, sessionManager.Middleware, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Auth.LoginRateLimitPerMin,
		IPConfig:          ipConfig,
	})

	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"database":      handlers.PingFunc(db.HealthCheck),
		"session_store": handlers.PingFunc(sessionManager.Ping),
	}, logger)
	router.Get("/health", healthHandler.Health)
	router.Handle("/metrics", promhttp.Handler())

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start session sweeper (memory store only)
	if sweeper != nil {
		go sweeper.Start(bgCtx)
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	if sweeper != nil {
		sweeper.Stop()
	}
	bgCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the bootstrap super_admin if ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD are set and no admin has that username yet
func ensureAdminUser(ctx context.Context, adminRepo *repositories.AdminUserRepository, cfg config.AdminBootstrapConfig, env string, logger *slog.Logger) error {
	if !cfg.Enabled() {
		logger.Info("no ADMIN_USERNAME, ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := adminRepo.GetByUsername(ctx, cfg.Username)
	if err == nil {
		logger.Info("admin user already exists", slog.String("username", cfg.Username))
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if !models.ValidAdminRole(cfg.Role) {
		return fmt.Errorf("invalid ADMIN_ROLE %q", cfg.Role)
	}

	if err := pkgauth.ValidatePassword(cfg.Password); err != nil {
		return fmt.Errorf("invalid ADMIN_PASSWORD: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = adminRepo.Create(ctx, &models.AdminUser{
		Username:     cfg.Username,
		Email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		PasswordHash: hashedPassword,
		FirstName:    cfg.FirstName,
		LastName:     cfg.LastName,
		Role:         cfg.Role,
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully",
		slog.String("username", cfg.Username),
		pkglogger.RedactedAttr("email", cfg.Email, env),
		slog.String("role", cfg.Role),
	)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
