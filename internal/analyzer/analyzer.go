// Package analyzer computes a single-pass scalping analysis from a fixed
// window of OHLCV candles. The whole package is pure: no I/O, no state
// across calls, safe for concurrent use.
package analyzer

import (
	"errors"
	"sort"
)

const (
	// MinCandles is the minimum series length the engine accepts
	MinCandles = 10

	// trendWindow is the candle count of each moving-average window,
	// sized for 15-minute candles over a rolling 24h fetch
	trendWindow = 8

	// levelWindow is the recent sub-window used for support/resistance
	// and close-based swing low detection
	levelWindow = 16
)

var (
	// ErrInsufficientData is returned when fewer than MinCandles candles
	// are supplied. No partial result is produced.
	ErrInsufficientData = errors.New("analyzer: insufficient candle data")

	// ErrDegenerateInput is returned when a candle carries a non-positive
	// price. Rejecting these up front keeps every downstream denominator
	// positive and every output finite.
	ErrDegenerateInput = errors.New("analyzer: candle with non-positive price")
)

// Analyze runs the four analysis stages over the candle series and returns
// the complete analysis record. The input slice is not mutated; candles are
// copied and sorted ascending by timestamp before any computation.
func Analyze(candles []Candle) (*Analysis, error) {
	if len(candles) < MinCandles {
		return nil, ErrInsufficientData
	}

	series := make([]Candle, len(candles))
	copy(series, candles)
	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp < series[j].Timestamp
	})

	for _, c := range series {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return nil, ErrDegenerateInput
		}
	}

	// Stage 1: statistics
	stats := computeStats(series)

	// Stage 2: trend and momentum
	trend, trendStrength := classifyTrend(series)
	swingHighs, swingLows := findSwingPoints(series)
	structure := countStructure(swingHighs, swingLows)
	momentum := computeMomentum(stats.priceChangePercent, stats.volatility, structure)

	// Stage 3: support/resistance and price levels
	levels := computeLevels(series, stats.currentPrice, stats.volatility, trend)

	// Stage 4: scoring and entry signal
	scoring := computeScore(stats, trendStrength, momentum, levels)

	return &Analysis{
		CurrentPrice:       stats.currentPrice,
		OpenPrice:          stats.openPrice,
		High24h:            stats.high,
		Low24h:             stats.low,
		PriceChange:        stats.priceChange,
		PriceChangePercent: stats.priceChangePercent,
		AvgVolume:          stats.avgVolume,
		Volatility:         stats.volatility,

		Trend:         trend,
		TrendStrength: trendStrength,
		Momentum:      momentum,

		Support:    levels.support,
		Resistance: levels.resistance,

		SuggestedStopLoss:          levels.stopLoss,
		SuggestedStopLossPercent:   levels.stopLossPercent,
		SuggestedTakeProfit:        levels.takeProfit,
		SuggestedTakeProfitPercent: levels.takeProfitPercent,

		OptimalEntry:            levels.optimalEntry,
		OptimalEntryBasis:       levels.entryBasis,
		OptimalEntryReason:      optimalEntryReason(levels),
		CurrentVsOptimalPercent: levels.currentVsOptimalPercent,

		EntrySignal: scoring.entrySignal,
		EntryReason: entryReason(scoring.entrySignal, momentum, levels),

		ExpectedProfitAtCurrent: scoring.expectedProfitAtCurrent,
		ExpectedProfitAtOptimal: scoring.expectedProfitAtOptimal,

		ScalpingScore: scoring.score,
		Verdict:       scoring.verdict,
		VerdictFactor: scoring.factor,
		VerdictReason: verdictReason(scoring, stats.volatility, stats.avgVolume),

		Candles: series,
	}, nil
}
