package analyzer

import "math"

// priceLevels holds the output of the level stage
type priceLevels struct {
	support                 float64
	resistance              float64
	stopLoss                float64
	stopLossPercent         float64
	takeProfit              float64
	takeProfitPercent       float64
	vwap                    float64
	optimalEntry            float64
	entryBasis              EntryBasis
	currentVsOptimalPercent float64
}

// computeLevels derives support/resistance from the recent sub-window and
// synthesizes stop-loss, take-profit and optimal entry prices from a blend
// of volatility-based and level-based formulas.
func computeLevels(candles []Candle, currentPrice, volatility float64, trend TrendDirection) priceLevels {
	window := candles
	if len(window) > levelWindow {
		window = window[len(window)-levelWindow:]
	}

	l := priceLevels{
		support:    window[0].Low,
		resistance: window[0].High,
	}
	for _, c := range window {
		if c.Low < l.support {
			l.support = c.Low
		}
		if c.High > l.resistance {
			l.resistance = c.High
		}
	}

	// Stop loss: the tighter (higher) of the volatility distance and a
	// 2% cushion under support. Take profit: the nearer (lower) of the
	// volatility target and a 2% stretch above resistance.
	l.stopLoss = math.Max(currentPrice*(1-2*volatility/100), l.support*0.98)
	l.takeProfit = math.Min(currentPrice*(1+3*volatility/100), l.resistance*1.02)
	l.stopLossPercent = (currentPrice - l.stopLoss) / currentPrice * 100
	l.takeProfitPercent = (l.takeProfit - currentPrice) / currentPrice * 100

	l.vwap = computeVWAP(candles)

	swingLow, hasSwingLow := latestCloseSwingLow(window)

	switch trend {
	case TrendBullish:
		l.entryBasis = BasisSwingLowVWAP
		l.optimalEntry = l.vwap * 0.995
		if hasSwingLow && swingLow > l.optimalEntry {
			l.optimalEntry = swingLow
		}
	case TrendBearish:
		l.entryBasis = BasisSupportBounce
		l.optimalEntry = l.support * 1.01
	default:
		l.entryBasis = BasisRangeLow
		l.optimalEntry = l.support + (l.resistance-l.support)*0.2
	}

	l.currentVsOptimalPercent = (currentPrice - l.optimalEntry) / l.optimalEntry * 100

	return l
}

// computeVWAP returns the volume-weighted average close over the full
// window, falling back to the arithmetic mean when total volume is zero.
func computeVWAP(candles []Candle) float64 {
	var weighted, volumeSum float64
	for _, c := range candles {
		weighted += c.Close * c.Volume
		volumeSum += c.Volume
	}
	if volumeSum == 0 {
		return meanClose(candles)
	}
	return weighted / volumeSum
}

// latestCloseSwingLow finds the most recent 3-point local minimum on raw
// close values. This is deliberately independent of the OHLC-based swing
// detection used for momentum structure.
func latestCloseSwingLow(candles []Candle) (float64, bool) {
	for i := len(candles) - 2; i >= 1; i-- {
		if candles[i].Close < candles[i-1].Close && candles[i].Close < candles[i+1].Close {
			return candles[i].Close, true
		}
	}
	return 0, false
}
