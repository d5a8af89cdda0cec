package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDB creates a new database connection
func NewDB(cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Configure connection pool
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "database").Logger()
	log.Info().Msg("Connected to PostgreSQL")

	return &DB{Pool: pool, logger: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info().Msg("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	db.logger.Info().Msg("Running database migrations")

	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		// Create watchlist table for tracked pools
		`CREATE TABLE IF NOT EXISTS watchlist (
			id SERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			network VARCHAR(50) NOT NULL,
			pool_address VARCHAR(100) NOT NULL,
			token_symbol VARCHAR(50),
			notes TEXT,
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, network, pool_address)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist(user_id)`,

		// Create trading plans table
		`CREATE TABLE IF NOT EXISTS trading_plans (
			id SERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			network VARCHAR(50) NOT NULL,
			pool_address VARCHAR(100) NOT NULL,
			token_symbol VARCHAR(50),
			entry_price DECIMAL(30, 18) NOT NULL,
			stop_loss DECIMAL(30, 18) NOT NULL,
			take_profit DECIMAL(30, 18) NOT NULL,
			entry_signal VARCHAR(20),
			score DECIMAL(5, 2),
			status VARCHAR(20) NOT NULL DEFAULT 'planned',
			notes TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trading_plans_user ON trading_plans(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trading_plans_status ON trading_plans(status)`,

		// Create analysis snapshots table for history
		`CREATE TABLE IF NOT EXISTS analysis_snapshots (
			id BIGSERIAL PRIMARY KEY,
			network VARCHAR(50) NOT NULL,
			pool_address VARCHAR(100) NOT NULL,
			current_price DECIMAL(30, 18) NOT NULL,
			price_change_percent DECIMAL(10, 4) NOT NULL,
			volatility DECIMAL(10, 4) NOT NULL,
			trend VARCHAR(20) NOT NULL,
			momentum_score DECIMAL(5, 2) NOT NULL,
			scalping_score DECIMAL(5, 2) NOT NULL,
			verdict VARCHAR(20) NOT NULL,
			entry_signal VARCHAR(20) NOT NULL,
			analysis JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_pool ON analysis_snapshots(network, pool_address)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON analysis_snapshots(created_at DESC)`,

		// Create updated_at trigger function
		`CREATE OR REPLACE FUNCTION update_updated_at_column()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = CURRENT_TIMESTAMP;
			RETURN NEW;
		END;
		$$ language 'plpgsql'`,

		`DROP TRIGGER IF EXISTS update_users_updated_at ON users`,
		`CREATE TRIGGER update_users_updated_at BEFORE UPDATE ON users
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_trading_plans_updated_at ON trading_plans`,
		`CREATE TRIGGER update_trading_plans_updated_at BEFORE UPDATE ON trading_plans
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	db.logger.Info().Msg("Database migrations completed")
	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
