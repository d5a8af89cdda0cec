package analyzer

// Candle represents a single OHLCV candle for a token pool
type Candle struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"` // unix seconds
}

// TrendDirection represents the short-term trend classification
type TrendDirection string

const (
	TrendBullish  TrendDirection = "bullish"
	TrendBearish  TrendDirection = "bearish"
	TrendSideways TrendDirection = "sideways"
)

// MomentumDirection represents the direction of the 24h move
type MomentumDirection string

const (
	MomentumUp      MomentumDirection = "up"
	MomentumDown    MomentumDirection = "down"
	MomentumNeutral MomentumDirection = "neutral"
)

// MomentumSignal classifies the momentum structure
type MomentumSignal string

const (
	MomentumStrong   MomentumSignal = "strong_momentum"
	MomentumBuilding MomentumSignal = "building"
	MomentumFading   MomentumSignal = "fading"
	MomentumNone     MomentumSignal = "none"
)

// EntrySignal is the recommended action at the current price
type EntrySignal string

const (
	EntryStrongBuy   EntrySignal = "strong_buy"
	EntryBuy         EntrySignal = "buy"
	EntryMomentumBuy EntrySignal = "momentum_buy"
	EntryWait        EntrySignal = "wait"
	EntryAvoid       EntrySignal = "avoid"
)

// Verdict is the overall scalping suitability classification
type Verdict string

const (
	VerdictGood     Verdict = "good"
	VerdictModerate Verdict = "moderate"
	VerdictPoor     Verdict = "poor"
)

// EntryBasis tags which formula produced the optimal entry price
type EntryBasis string

const (
	BasisSwingLowVWAP  EntryBasis = "swing_low_vwap" // bullish: recent swing low vs discounted VWAP
	BasisSupportBounce EntryBasis = "support_bounce" // bearish: just above support
	BasisRangeLow      EntryBasis = "range_low"      // sideways: lower fifth of the range
)

// VerdictFactor tags the most unfavorable factor behind the verdict
type VerdictFactor string

const (
	FactorLowVolatility VerdictFactor = "low_volatility_no_momentum"
	FactorTooVolatile   VerdictFactor = "too_volatile"
	FactorLowVolume     VerdictFactor = "low_volume"
	FactorRiskReward    VerdictFactor = "risk_reward"
)

// Momentum holds the momentum sub-analysis
type Momentum struct {
	Score          float64           `json:"score"` // 0-100
	Direction      MomentumDirection `json:"direction"`
	Consistency    float64           `json:"consistency"` // 0-100
	HigherHighs    int               `json:"higher_highs"`
	HigherLows     int               `json:"higher_lows"`
	LowerHighs     int               `json:"lower_highs"`
	LowerLows      int               `json:"lower_lows"`
	IsMomentumPlay bool              `json:"is_momentum_play"`
	Signal         MomentumSignal    `json:"signal"`
	Reason         string            `json:"reason"`
}

// Analysis is the immutable result of one analysis pass over a candle series.
// Every field is always populated when Analyze succeeds.
type Analysis struct {
	CurrentPrice       float64 `json:"current_price"`
	OpenPrice          float64 `json:"open_price"`
	High24h            float64 `json:"high_24h"`
	Low24h             float64 `json:"low_24h"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
	AvgVolume          float64 `json:"avg_volume"`
	Volatility         float64 `json:"volatility"` // coefficient of variation, percent

	Trend         TrendDirection `json:"trend"`
	TrendStrength float64        `json:"trend_strength"` // 0-100

	Momentum Momentum `json:"momentum"`

	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`

	SuggestedStopLoss          float64 `json:"suggested_stop_loss"`
	SuggestedStopLossPercent   float64 `json:"suggested_stop_loss_percent"`
	SuggestedTakeProfit        float64 `json:"suggested_take_profit"`
	SuggestedTakeProfitPercent float64 `json:"suggested_take_profit_percent"`

	OptimalEntry            float64    `json:"optimal_entry"`
	OptimalEntryBasis       EntryBasis `json:"optimal_entry_basis"`
	OptimalEntryReason      string     `json:"optimal_entry_reason"`
	CurrentVsOptimalPercent float64    `json:"current_vs_optimal_percent"`

	EntrySignal EntrySignal `json:"entry_signal"`
	EntryReason string      `json:"entry_reason"`

	ExpectedProfitAtCurrent float64 `json:"expected_profit_at_current"`
	ExpectedProfitAtOptimal float64 `json:"expected_profit_at_optimal"`

	ScalpingScore float64       `json:"scalping_score"` // 0-100
	Verdict       Verdict       `json:"verdict"`
	VerdictFactor VerdictFactor `json:"verdict_factor"`
	VerdictReason string        `json:"verdict_reason"`

	// Candles echoes the analyzed series (sorted ascending) for charting
	Candles []Candle `json:"candles"`
}
