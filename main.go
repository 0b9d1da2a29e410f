package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trade-advisor/config"
	"trade-advisor/internal/advisor"
	"trade-advisor/internal/api"
	"trade-advisor/internal/auth"
	"trade-advisor/internal/cache"
	"trade-advisor/internal/capital"
	"trade-advisor/internal/database"
	"trade-advisor/internal/events"
	"trade-advisor/internal/logging"
	"trade-advisor/internal/regime"
	sig "trade-advisor/internal/signal"
	"trade-advisor/internal/validation"
	"trade-advisor/internal/vault"
)

func main() {
	// Generate a sample config and exit when asked
	if len(os.Args) > 1 && os.Args[1] == "generate-config" {
		if err := config.GenerateSampleConfig("config.json"); err != nil {
			log.Fatalf("Failed to generate sample config: %v", err)
		}
		log.Println("Sample configuration written to config.json")
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Msg("Structured logging initialized")

	// Initialize event bus
	eventBus := events.NewEventBus()
	logger.Info().Msg("Event bus initialized")

	// Resolve the database password from Vault when enabled
	dbPassword := cfg.DatabaseConfig.Password
	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(cfg.VaultConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create vault client")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		password, err := vaultClient.DatabasePassword(ctx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read database password from vault")
		}
		dbPassword = password
		logger.Info().Msg("Database password loaded from vault")
	}

	// Connect to PostgreSQL; the advisor runs without history when the
	// database is unreachable.
	var repo *database.Repository
	var store validation.HistoryStore
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: dbPassword,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Database unavailable, signal history disabled")
	} else {
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.RunMigrations(ctx)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Database migrations failed")
		}

		repo = database.NewRepository(db)
		store = repo
	}

	// Redis analysis cache (optional)
	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cfg.RedisConfig)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis cache disabled")
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}

	// JWT auth (optional)
	var jwtManager *auth.JWTManager
	if cfg.AuthConfig.Enabled {
		if cfg.AuthConfig.JWTSecret == "" {
			logger.Fatal().Msg("AUTH_JWT_SECRET is required when auth is enabled")
		}
		jwtManager = auth.NewJWTManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.AccessTokenDuration)
		logger.Info().Msg("JWT authentication enabled")
	}

	// Assemble the analysis pipeline
	adv := advisor.New(advisorConfig(cfg.AdvisorConfig), store, logger)

	// HTTP API server
	server := api.NewServer(api.ServerConfig{
		Port:           cfg.ServerConfig.Port,
		Host:           cfg.ServerConfig.Host,
		AllowedOrigins: cfg.ServerConfig.AllowedOrigins,
		ReadTimeout:    time.Duration(cfg.ServerConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.ServerConfig.WriteTimeout) * time.Second,
		ProductionMode: os.Getenv("GIN_MODE") == "release",
	}, adv, repo, eventBus, cacheService, jwtManager)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("host", cfg.ServerConfig.Host).
		Int("port", cfg.ServerConfig.Port).
		Msg("Trade advisor started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	logger.Info().Msg("Shutdown complete")
}

// advisorConfig maps the file/env configuration onto pipeline settings.
func advisorConfig(c config.AdvisorConfig) advisor.Config {
	cfg := advisor.DefaultConfig()

	cfg.Regime = regime.Config{
		MinBars:          c.MinBars,
		TrendingADX:      c.TrendingADX,
		VolatileRatio:    c.VolatileRatio,
		HighVolatility:   c.HighVolatility,
		MediumVolatility: c.MediumVolatility,
		VolatilityWindow: regime.DefaultConfig().VolatilityWindow,
		TradingDays:      regime.DefaultConfig().TradingDays,
	}
	cfg.Weights = sig.Weights{
		Trend:             c.TrendWeight,
		Momentum:          c.MomentumWeight,
		Volatility:        c.VolatilityWeight,
		Volume:            c.VolumeWeight,
		Pattern:           c.PatternWeight,
		SupportResistance: c.LevelWeight,
	}
	cfg.Sizing = capital.Config{
		BaseRiskPercent:      c.BaseRiskPercent,
		MaxRiskPercent:       c.MaxRiskPercent,
		MinRiskPercent:       c.MinRiskPercent,
		MaxPositionPercent:   c.MaxPositionPercent,
		VolatileClassPercent: c.VolatileAssetMaxPct,
		FallbackPercent:      c.FallbackRiskPercent,
		PortfolioRiskCeiling: c.PortfolioCeilingPct,
	}
	cfg.StoreTimeout = c.StoreTimeout

	return cfg
}
