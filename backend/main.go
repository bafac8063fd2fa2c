package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemarket/backend/config"
	"coursemarket/backend/platform/cache"
	"coursemarket/backend/platform/identity"
	"coursemarket/backend/platform/payment"
	"coursemarket/backend/platform/storage"
	"coursemarket/backend/platform/tracing"
	"coursemarket/backend/routes"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		Environment: cfg.Env,
		Ratio:       cfg.TracingRatio,
	}, logger)

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Error("Error initializing database", "error", err)
		os.Exit(1)
	}

	verifier, err := utils.NewSessionVerifier(cfg)
	if err != nil {
		logger.Error("Error initializing session verifier", "error", err)
		os.Exit(1)
	}

	deps := services.Deps{DB: db, VerifyPayments: cfg.VerifyPayments}

	if cfg.StripeSecretKey != "" {
		stripeClient, err := payment.NewStripeClient(cfg.StripeSecretKey, cfg.Currency, logger)
		if err != nil {
			logger.Error("Error initializing payment client", "error", err)
			os.Exit(1)
		}
		deps.Payments = stripeClient
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; payment intents are disabled")
	}
	if cfg.VerifyPayments && deps.Payments == nil {
		logger.Error("PAYMENT_VERIFY requires STRIPE_SECRET_KEY")
		os.Exit(1)
	}

	if cfg.GCSBucket != "" {
		signer, err := storage.NewGCSSigner(ctx, storage.GCSConfig{
			Bucket:          cfg.GCSBucket,
			CDNDomain:       cfg.CDNDomain,
			CredentialsFile: cfg.GCSCredentials,
			URLTTL:          cfg.UploadURLTTL,
		}, logger)
		if err != nil {
			logger.Error("Error initializing object storage", "error", err)
			os.Exit(1)
		}
		defer signer.Close()
		deps.Storage = signer
	} else {
		logger.Warn("GCS_BUCKET_NAME not set; video uploads are disabled")
	}

	if cfg.RedisAddr != "" {
		courseCache, err := cache.NewCourseCache(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TTL:      cfg.CacheTTL,
		}, logger)
		if err != nil {
			// The cache is optional; serve straight from the database.
			logger.Warn("Course cache unavailable", "error", err)
		} else {
			defer courseCache.Close()
			deps.Cache = courseCache
		}
	}

	if cfg.ClerkSecretKey != "" {
		clerk, err := identity.NewClerkClient(cfg.ClerkAPIURL, cfg.ClerkSecretKey, logger)
		if err != nil {
			logger.Error("Error initializing identity client", "error", err)
			os.Exit(1)
		}
		deps.Identity = clerk
	} else {
		logger.Warn("CLERK_SECRET_KEY not set; user settings updates are disabled")
	}

	svc := services.New(deps, logger)

	if cfg.ReconcileInterval > 0 {
		go svc.Reconciler.Start(ctx, cfg.ReconcileInterval)
	}

	// Create Fiber app
	app := routes.NewApp(cfg, logger)
	routes.SetupRoutes(app, svc, verifier)

	// Start server
	go func() {
		logger.Info("Listening", "port", cfg.ServerPort, "env", cfg.Env)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Error flushing traces", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
