package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a disallowed plan status change
	ErrInvalidTransition = errors.New("invalid plan status transition")
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ============================================================================
// USERS
// ============================================================================

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	return r.db.Pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ============================================================================
// WATCHLIST
// ============================================================================

// AddToWatchlist inserts a watchlist entry, ignoring duplicates
func (r *Repository) AddToWatchlist(ctx context.Context, entry *WatchlistEntry) error {
	query := `
		INSERT INTO watchlist (user_id, network, pool_address, token_symbol, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, network, pool_address) DO UPDATE
		SET token_symbol = EXCLUDED.token_symbol, notes = EXCLUDED.notes
		RETURNING id, added_at
	`
	return r.db.Pool.QueryRow(
		ctx, query,
		entry.UserID, entry.Network, entry.PoolAddress, entry.TokenSymbol, entry.Notes,
	).Scan(&entry.ID, &entry.AddedAt)
}

// GetWatchlist retrieves all watchlist entries for a user
func (r *Repository) GetWatchlist(ctx context.Context, userID uuid.UUID) ([]*WatchlistEntry, error) {
	query := `
		SELECT id, user_id, network, pool_address, token_symbol, notes, added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*WatchlistEntry
	for rows.Next() {
		entry := &WatchlistEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Network, &entry.PoolAddress,
			&entry.TokenSymbol, &entry.Notes, &entry.AddedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetAllWatchedPools retrieves the distinct pools across all watchlists,
// used by the poller to decide what to analyze.
func (r *Repository) GetAllWatchedPools(ctx context.Context) ([]*WatchlistEntry, error) {
	query := `
		SELECT DISTINCT ON (network, pool_address)
		       id, user_id, network, pool_address, token_symbol, notes, added_at
		FROM watchlist
		ORDER BY network, pool_address, added_at DESC
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*WatchlistEntry
	for rows.Next() {
		entry := &WatchlistEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Network, &entry.PoolAddress,
			&entry.TokenSymbol, &entry.Notes, &entry.AddedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RemoveFromWatchlist deletes a watchlist entry owned by the user
func (r *Repository) RemoveFromWatchlist(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM watchlist WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// TRADING PLANS
// ============================================================================

// CreatePlan inserts a new trading plan
func (r *Repository) CreatePlan(ctx context.Context, plan *TradingPlan) error {
	if plan.Status == "" {
		plan.Status = PlanPlanned
	}
	query := `
		INSERT INTO trading_plans (user_id, network, pool_address, token_symbol,
		                           entry_price, stop_loss, take_profit, entry_signal, score, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	return r.db.Pool.QueryRow(
		ctx, query,
		plan.UserID, plan.Network, plan.PoolAddress, plan.TokenSymbol,
		plan.EntryPrice, plan.StopLoss, plan.TakeProfit, plan.EntrySignal,
		plan.Score, plan.Status, plan.Notes,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

// GetPlanByID retrieves a plan owned by the user
func (r *Repository) GetPlanByID(ctx context.Context, userID uuid.UUID, id int64) (*TradingPlan, error) {
	query := `
		SELECT id, user_id, network, pool_address, token_symbol,
		       entry_price, stop_loss, take_profit, entry_signal, score, status, notes,
		       created_at, updated_at
		FROM trading_plans
		WHERE id = $1 AND user_id = $2
	`
	plan := &TradingPlan{}
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&plan.ID, &plan.UserID, &plan.Network, &plan.PoolAddress, &plan.TokenSymbol,
		&plan.EntryPrice, &plan.StopLoss, &plan.TakeProfit, &plan.EntrySignal,
		&plan.Score, &plan.Status, &plan.Notes, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlans retrieves the user's plans, optionally filtered by status
func (r *Repository) GetPlans(ctx context.Context, userID uuid.UUID, status PlanStatus) ([]*TradingPlan, error) {
	query := `
		SELECT id, user_id, network, pool_address, token_symbol,
		       entry_price, stop_loss, take_profit, entry_signal, score, status, notes,
		       created_at, updated_at
		FROM trading_plans
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*TradingPlan
	for rows.Next() {
		plan := &TradingPlan{}
		if err := rows.Scan(
			&plan.ID, &plan.UserID, &plan.Network, &plan.PoolAddress, &plan.TokenSymbol,
			&plan.EntryPrice, &plan.StopLoss, &plan.TakeProfit, &plan.EntrySignal,
			&plan.Score, &plan.Status, &plan.Notes, &plan.CreatedAt, &plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdatePlanStatus moves a plan through its lifecycle, enforcing the
// planned -> armed -> executed/cancelled transitions.
func (r *Repository) UpdatePlanStatus(ctx context.Context, userID uuid.UUID, id int64, to PlanStatus) (*TradingPlan, error) {
	plan, err := r.GetPlanByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !plan.Status.ValidTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, plan.Status, to)
	}

	query := `
		UPDATE trading_plans
		SET status = $3
		WHERE id = $1 AND user_id = $2 AND status = $4
		RETURNING updated_at
	`
	err = r.db.Pool.QueryRow(ctx, query, id, userID, to, plan.Status).Scan(&plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race with a concurrent transition
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	plan.Status = to
	return plan, nil
}

// DeletePlan deletes a plan owned by the user
func (r *Repository) DeletePlan(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM trading_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// ANALYSIS SNAPSHOTS
// ============================================================================

// SaveSnapshot inserts an analysis snapshot
func (r *Repository) SaveSnapshot(ctx context.Context, snap *AnalysisSnapshot) error {
	query := `
		INSERT INTO analysis_snapshots (network, pool_address, current_price, price_change_percent,
		                                volatility, trend, momentum_score, scalping_score,
		                                verdict, entry_signal, analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	return r.db.Pool.QueryRow(
		ctx, query,
		snap.Network, snap.PoolAddress, snap.CurrentPrice, snap.PriceChangePercent,
		snap.Volatility, snap.Trend, snap.MomentumScore, snap.ScalpingScore,
		snap.Verdict, snap.EntrySignal, snap.Analysis,
	).Scan(&snap.ID, &snap.CreatedAt)
}

// GetSnapshots retrieves recent snapshots for a pool, newest first
func (r *Repository) GetSnapshots(ctx context.Context, network, poolAddress string, limit int) ([]*AnalysisSnapshot, error) {
	query := `
		SELECT id, network, pool_address, current_price, price_change_percent,
		       volatility, trend, momentum_score, scalping_score,
		       verdict, entry_signal, analysis, created_at
		FROM analysis_snapshots
		WHERE network = $1 AND pool_address = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Pool.Query(ctx, query, network, poolAddress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*AnalysisSnapshot
	for rows.Next() {
		snap := &AnalysisSnapshot{}
		if err := rows.Scan(
			&snap.ID, &snap.Network, &snap.PoolAddress, &snap.CurrentPrice,
			&snap.PriceChangePercent, &snap.Volatility, &snap.Trend,
			&snap.MomentumScore, &snap.ScalpingScore, &snap.Verdict,
			&snap.EntrySignal, &snap.Analysis, &snap.CreatedAt,
		); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// PruneSnapshots deletes old snapshots beyond the retention count per pool
func (r *Repository) PruneSnapshots(ctx context.Context, network, poolAddress string, keep int) (int64, error) {
	query := `
		DELETE FROM analysis_snapshots
		WHERE network = $1 AND pool_address = $2
		  AND id NOT IN (
			SELECT id FROM analysis_snapshots
			WHERE network = $1 AND pool_address = $2
			ORDER BY created_at DESC
			LIMIT $3
		  )
	`
	tag, err := r.db.Pool.Exec(ctx, query, network, poolAddress, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
