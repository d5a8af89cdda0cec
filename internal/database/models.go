package database

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the lifecycle state of a trading plan
type PlanStatus string

const (
	PlanPlanned   PlanStatus = "planned"
	PlanArmed     PlanStatus = "armed"
	PlanExecuted  PlanStatus = "executed"
	PlanCancelled PlanStatus = "cancelled"
)

// ValidTransition reports whether a plan may move from its current status
// to the target status. Executed and cancelled are terminal.
func (s PlanStatus) ValidTransition(to PlanStatus) bool {
	switch s {
	case PlanPlanned:
		return to == PlanArmed || to == PlanCancelled
	case PlanArmed:
		return to == PlanExecuted || to == PlanCancelled
	default:
		return false
	}
}

// User represents a registered user
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WatchlistEntry is a pool a user tracks
type WatchlistEntry struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Network     string    `json:"network"`
	PoolAddress string    `json:"pool_address"`
	TokenSymbol string    `json:"token_symbol"`
	Notes       string    `json:"notes"`
	AddedAt     time.Time `json:"added_at"`
}

// TradingPlan is a planned scalp entry with its risk levels
type TradingPlan struct {
	ID          int64      `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Network     string     `json:"network"`
	PoolAddress string     `json:"pool_address"`
	TokenSymbol string     `json:"token_symbol"`
	EntryPrice  float64    `json:"entry_price"`
	StopLoss    float64    `json:"stop_loss"`
	TakeProfit  float64    `json:"take_profit"`
	EntrySignal string     `json:"entry_signal"`
	Score       float64    `json:"score"`
	Status      PlanStatus `json:"status"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AnalysisSnapshot is a persisted analysis result for one pool at one time.
// The full analysis is stored as JSONB; the headline numbers are broken out
// into columns for querying.
type AnalysisSnapshot struct {
	ID                 int64     `json:"id"`
	Network            string    `json:"network"`
	PoolAddress        string    `json:"pool_address"`
	CurrentPrice       float64   `json:"current_price"`
	PriceChangePercent float64   `json:"price_change_percent"`
	Volatility         float64   `json:"volatility"`
	Trend              string    `json:"trend"`
	MomentumScore      float64   `json:"momentum_score"`
	ScalpingScore      float64   `json:"scalping_score"`
	Verdict            string    `json:"verdict"`
	EntrySignal        string    `json:"entry_signal"`
	Analysis           []byte    `json:"analysis"`
	CreatedAt          time.Time `json:"created_at"`
}
