package analyzer

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeStats(t *testing.T) {
	candles := make([]Candle, 10)
	for i := range candles {
		close := float64(i + 1)
		candles[i] = Candle{
			Open: close, High: close + 0.5, Low: close - 0.5, Close: close,
			Volume:    float64((i + 1) * 100),
			Timestamp: int64(i),
		}
	}

	s := computeStats(candles)

	if s.currentPrice != 10 {
		t.Errorf("currentPrice = %f, want 10", s.currentPrice)
	}
	if s.openPrice != 1 {
		t.Errorf("openPrice = %f, want 1 (close of first candle)", s.openPrice)
	}
	if s.high != 10.5 {
		t.Errorf("high = %f, want 10.5", s.high)
	}
	if s.low != 0.5 {
		t.Errorf("low = %f, want 0.5", s.low)
	}
	if s.priceChange != 9 {
		t.Errorf("priceChange = %f, want 9", s.priceChange)
	}
	if s.priceChangePercent != 900 {
		t.Errorf("priceChangePercent = %f, want 900", s.priceChangePercent)
	}
	if s.avgVolume != 550 {
		t.Errorf("avgVolume = %f, want 550", s.avgVolume)
	}

	// Population standard deviation of 1..10 is sqrt(8.25), mean is 5.5
	wantVolatility := math.Sqrt(8.25) / 5.5 * 100
	if !almostEqual(s.volatility, wantVolatility) {
		t.Errorf("volatility = %f, want %f", s.volatility, wantVolatility)
	}
}

func TestComputeStatsFlat(t *testing.T) {
	s := computeStats(flatSeries(12, 42, 7))
	if s.volatility != 0 {
		t.Errorf("volatility = %f, want 0 for identical closes", s.volatility)
	}
	if s.priceChange != 0 || s.priceChangePercent != 0 {
		t.Errorf("price change = %f (%f%%), want 0", s.priceChange, s.priceChangePercent)
	}
	if s.avgVolume != 7 {
		t.Errorf("avgVolume = %f, want 7", s.avgVolume)
	}
}
