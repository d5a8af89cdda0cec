package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analysis"
	"dex-scalp-assistant/internal/api"
	"dex-scalp-assistant/internal/auth"
	"dex-scalp-assistant/internal/cache"
	"dex-scalp-assistant/internal/database"
	"dex-scalp-assistant/internal/dex"
	"dex-scalp-assistant/internal/events"
	"dex-scalp-assistant/internal/market"
	"dex-scalp-assistant/internal/poller"
	"dex-scalp-assistant/internal/vault"
)

// localUserEmail is the account all requests run as when auth is disabled
const localUserEmail = "local@scalp-assistant"

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := newLogger(cfg.LoggingConfig)
	logger.Info().Msg("Starting scalp assistant")

	ctx := context.Background()

	// Database and migrations
	db, err := database.NewDB(cfg.DatabaseConfig, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	repo := database.NewRepository(db)

	// Event bus
	eventBus := events.NewEventBus()

	// Analysis cache (Redis with in-memory fallback)
	analysisCache := cache.NewAnalysisCache(cfg.RedisConfig, logger)
	defer analysisCache.Close()

	// Market data client, with the API key resolved from Vault when enabled
	marketClient := market.NewClient(cfg.MarketConfig, logger)
	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(cfg.VaultConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Vault")
		}
		creds, err := vaultClient.GetMarketCredentials(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("No market credentials in Vault, using config API key")
		} else if creds.APIKey != "" {
			marketClient.SetAPIKey(creds.APIKey)
			logger.Info().Str("provider", creds.Provider).Msg("Market API key loaded from Vault")
		}
	}

	// DEX quote client
	var dexClient *dex.Client
	if cfg.DexConfig.Enabled {
		dexClient = dex.NewClient(cfg.DexConfig, logger)
		logger.Info().Msg("DEX quote client enabled")
	}

	// Analysis service
	analysisService := analysis.NewService(
		marketClient,
		repo,
		analysisCache,
		eventBus,
		cfg.MarketConfig.CandleLimit,
		cfg.PollerConfig.CacheTTL,
		cfg.DatabaseConfig.SnapshotRetention,
		logger,
	)

	// Background poller over watched pools
	analysisPoller := poller.NewPoller(analysisService, repo, eventBus,
		cfg.PollerConfig, cfg.MarketConfig.DefaultTimeframe, logger)
	analysisPoller.Start()
	defer analysisPoller.Stop()

	// Auth
	var authService *auth.Service
	var jwtManager *auth.JWTManager
	if cfg.AuthConfig.Enabled {
		jwtManager = auth.NewJWTManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.AccessTokenDuration)
		passwords := auth.NewPasswordManager(auth.DefaultBcryptCost, cfg.AuthConfig.MinPasswordLength)
		authService = auth.NewService(repo, passwords, jwtManager, logger)
		logger.Info().Msg("Authentication enabled")
	}

	// API server
	server := api.NewServer(cfg.ServerConfig, cfg.MarketConfig, repo, analysisService,
		dexClient, eventBus, authService, jwtManager, logger)

	if !cfg.AuthConfig.Enabled {
		localID, err := ensureLocalUser(ctx, repo)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to bootstrap local user")
		}
		server.SetLocalUser(localID)
		logger.Info().Msg("Authentication disabled, running in single-user mode")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}
	logger.Info().Msg("Shutdown complete")
}

// ensureLocalUser returns the single-user-mode account, creating it on first run
func ensureLocalUser(ctx context.Context, repo *database.Repository) (uuid.UUID, error) {
	user, err := repo.GetUserByEmail(ctx, localUserEmail)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return uuid.Nil, err
	}

	user = &database.User{
		ID:           uuid.New(),
		Email:        localUserEmail,
		PasswordHash: uuid.NewString(), // Never used for login
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// newLogger builds the root zerolog logger from config
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out *os.File
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = os.Stdout
		} else {
			out = f
		}
	}

	if cfg.JSONFormat {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}
