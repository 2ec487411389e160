package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/colemarsh/gatehouse/internal/auth"
	"github.com/colemarsh/gatehouse/internal/background"
	"github.com/colemarsh/gatehouse/internal/config"
	"github.com/colemarsh/gatehouse/internal/database"
	"github.com/colemarsh/gatehouse/internal/handlers"
	middlewareCustom "github.com/colemarsh/gatehouse/internal/middleware"
	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/colemarsh/gatehouse/internal/ratelimit"
	"github.com/colemarsh/gatehouse/internal/repositories"
	"github.com/colemarsh/gatehouse/internal/routes"
	"github.com/colemarsh/gatehouse/internal/services"
	pkgauth "github.com/colemarsh/gatehouse/pkg/auth"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
	pkglogger "github.com/colemarsh/gatehouse/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Email delivery: SES in deployed environments, log-only fallback in dev
	var emailService services.EmailService
	if cfg.Email.AWSRegion != "" && cfg.Email.FromAddress != "" {
		emailService, err = services.NewAWSSESEmailService(
			cfg.Email.AWSRegion,
			cfg.Email.FromAddress,
			cfg.Email.VerificationURLBase,
			logger,
		)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("email delivery not configured, using log-only email service")
		emailService = services.NewLogEmailService(logger)
	}

	// Rate limiter: one fixed-window store shared by all action classes
	limiterStore := ratelimit.NewMemoryStore()
	limiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimit.Window, ratelimit.Limits{
		ratelimit.ClassGeneral: cfg.RateLimit.GeneralMax,
		ratelimit.ClassAuth:    cfg.RateLimit.AuthMax,
		ratelimit.ClassReview:  cfg.RateLimit.ReviewMax,
		ratelimit.ClassUpload:  cfg.RateLimit.UploadMax,
	})

	// Initialize services
	authService := services.NewAuthService(
		accountRepo,
		sessionRepo,
		tokenManager,
		emailService,
		services.LockoutPolicy{
			MaxFailedLogins: cfg.Auth.MaxFailedLogins,
			LockoutDuration: cfg.Auth.LockoutDuration,
		},
		cfg.Auth.MaxSessionsPerUser,
		cfg.Email.TokenExpiry,
		logger,
		auditLogger,
	)
	accountService := services.NewAccountService(accountRepo, sessionRepo, logger, auditLogger)

	// Initialize handlers
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "strict",
	}
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, cfg.Auth.RefreshTokenExpiry)
	accountHandler := handlers.NewAccountHandler(accountService)
	contentHandler := handlers.NewContentHandler()

	// Bootstrap first admin account if configured
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(bootstrapCtx, accountRepo, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	bootstrapCancel()

	// Cleanup loop: expired sessions + stale limiter windows
	cleanupManager := background.NewCleanupManager(
		sessionRepo,
		limiterStore,
		cfg.RateLimit.Window,
		logger,
		cfg.Auth.CleanupInterval,
	)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.GlobalRateLimit(cfg.RateLimit.GeneralMax))

	// Register routes
	routes.RegisterRoutes(router, routes.Dependencies{
		AuthHandler:    authHandler,
		AccountHandler: accountHandler,
		ContentHandler: contentHandler,
		TokenManager:   tokenManager,
		Limiter:        limiter,
		IPConfig:       &pkghttp.IPConfig{},
		HealthCheck: func(r *http.Request) error {
			return db.HealthCheck(r.Context())
		},
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminAccount creates the first admin account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set. The account is created pre-verified.
func ensureAdminAccount(ctx context.Context, accountRepo *repositories.AccountRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin account creation")
		return nil
	}

	_, err := accountRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Account{
		Email:         adminEmail,
		PasswordHash:  hashedPassword,
		Role:          models.RoleAdmin,
		EmailVerified: true,
		Status:        models.StatusActive,
	}

	if _, err := accountRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created successfully")
	return nil
}
