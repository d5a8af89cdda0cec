package analyzer

import (
	"testing"
)

func TestComputeLevelsSupportResistanceWindow(t *testing.T) {
	// 20 candles; the first 4 carry extremes that must be ignored because
	// levels only look at the most recent 16.
	candles := make([]Candle, 20)
	for i := range candles {
		candles[i] = Candle{Open: 100, High: 105, Low: 95, Close: 100, Volume: 1000, Timestamp: int64(i)}
	}
	candles[0].High = 500
	candles[1].Low = 1
	candles[10].High = 120
	candles[12].Low = 80

	l := computeLevels(candles, 100, 5, TrendSideways)
	if l.resistance != 120 {
		t.Errorf("resistance = %f, want 120 from the recent window", l.resistance)
	}
	if l.support != 80 {
		t.Errorf("support = %f, want 80 from the recent window", l.support)
	}
}

func TestComputeLevelsStopAndTarget(t *testing.T) {
	candles := make([]Candle, 16)
	for i := range candles {
		candles[i] = Candle{Open: 100, High: 104, Low: 96, Close: 100, Volume: 1000, Timestamp: int64(i)}
	}

	// volatility 5%: volatility stop = 100*(1-0.10) = 90,
	// support stop = 96*0.98 = 94.08 -> tighter stop wins
	l := computeLevels(candles, 100, 5, TrendSideways)
	if !almostEqual(l.stopLoss, 94.08) {
		t.Errorf("stopLoss = %f, want 94.08 (support-based)", l.stopLoss)
	}
	// volatility target = 100*1.15 = 115, resistance target = 104*1.02 = 106.08
	if !almostEqual(l.takeProfit, 106.08) {
		t.Errorf("takeProfit = %f, want 106.08 (resistance-based)", l.takeProfit)
	}
	if !almostEqual(l.stopLossPercent, (100-94.08)/100*100) {
		t.Errorf("stopLossPercent = %f", l.stopLossPercent)
	}
	if !almostEqual(l.takeProfitPercent, 6.08) {
		t.Errorf("takeProfitPercent = %f, want 6.08", l.takeProfitPercent)
	}

	// With tiny volatility the volatility stop is the tighter one
	l = computeLevels(candles, 100, 0.5, TrendSideways)
	if !almostEqual(l.stopLoss, 99) {
		t.Errorf("stopLoss = %f, want 99 (volatility-based)", l.stopLoss)
	}
	if !almostEqual(l.takeProfit, 101.5) {
		t.Errorf("takeProfit = %f, want 101.5 (volatility-based)", l.takeProfit)
	}
}

func TestComputeVWAP(t *testing.T) {
	candles := []Candle{
		{Close: 100, Volume: 10},
		{Close: 200, Volume: 30},
	}
	if got := computeVWAP(candles); !almostEqual(got, (100*10+200*30)/40.0) {
		t.Errorf("vwap = %f, want 175", got)
	}

	// Zero total volume falls back to the arithmetic mean close
	candles = []Candle{
		{Close: 100, Volume: 0},
		{Close: 200, Volume: 0},
	}
	if got := computeVWAP(candles); !almostEqual(got, 150) {
		t.Errorf("vwap fallback = %f, want mean close 150", got)
	}
}

func TestLatestCloseSwingLow(t *testing.T) {
	candles := []Candle{
		{Close: 100}, {Close: 95}, {Close: 98}, // swing low at 95
		{Close: 96}, {Close: 94}, {Close: 97}, // swing low at 94 (more recent)
		{Close: 99},
	}
	low, ok := latestCloseSwingLow(candles)
	if !ok || low != 94 {
		t.Errorf("swing low = %f (ok=%v), want most recent 94", low, ok)
	}

	// Monotonic closes have no local minimum
	candles = []Candle{{Close: 1}, {Close: 2}, {Close: 3}, {Close: 4}}
	if _, ok := latestCloseSwingLow(candles); ok {
		t.Error("monotonic series should have no close swing low")
	}
}

func TestComputeLevelsOptimalEntryBranches(t *testing.T) {
	candles := make([]Candle, 16)
	for i := range candles {
		candles[i] = Candle{Open: 100, High: 110, Low: 90, Close: 100, Volume: 100, Timestamp: int64(i)}
	}
	// Put a close swing low at 92 near the end
	candles[13].Close = 92

	// Bullish: the swing low beats the discounted VWAP when higher
	l := computeLevels(candles, 100, 5, TrendBullish)
	if l.entryBasis != BasisSwingLowVWAP {
		t.Errorf("basis = %s, want %s", l.entryBasis, BasisSwingLowVWAP)
	}
	vwapEntry := l.vwap * 0.995
	want := vwapEntry
	if 92 > want {
		want = 92
	}
	if !almostEqual(l.optimalEntry, want) {
		t.Errorf("bullish optimal entry = %f, want %f", l.optimalEntry, want)
	}

	// Bearish: just above support
	l = computeLevels(candles, 100, 5, TrendBearish)
	if l.entryBasis != BasisSupportBounce || !almostEqual(l.optimalEntry, 90*1.01) {
		t.Errorf("bearish optimal entry = %f (%s), want %f", l.optimalEntry, l.entryBasis, 90*1.01)
	}

	// Sideways: lower fifth of the range
	l = computeLevels(candles, 100, 5, TrendSideways)
	if l.entryBasis != BasisRangeLow || !almostEqual(l.optimalEntry, 90+(110-90)*0.2) {
		t.Errorf("sideways optimal entry = %f (%s), want 94", l.optimalEntry, l.entryBasis)
	}

	// Delta vs optimal
	if !almostEqual(l.currentVsOptimalPercent, (100-94.0)/94.0*100) {
		t.Errorf("currentVsOptimalPercent = %f", l.currentVsOptimalPercent)
	}
}
