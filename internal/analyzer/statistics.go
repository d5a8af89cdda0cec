package analyzer

import "math"

// priceStats holds the output of the statistics stage
type priceStats struct {
	currentPrice       float64
	openPrice          float64
	high               float64
	low                float64
	priceChange        float64
	priceChangePercent float64
	avgVolume          float64
	volatility         float64 // coefficient of variation of closes, percent
}

// computeStats derives price range, change, average volume and volatility
// from the full candle window. Callers guarantee len(candles) >= MinCandles
// and strictly positive prices.
func computeStats(candles []Candle) priceStats {
	s := priceStats{
		currentPrice: candles[len(candles)-1].Close,
		openPrice:    candles[0].Close,
		high:         candles[0].High,
		low:          candles[0].Low,
	}

	var volumeSum, closeSum float64
	for _, c := range candles {
		if c.High > s.high {
			s.high = c.High
		}
		if c.Low < s.low {
			s.low = c.Low
		}
		volumeSum += c.Volume
		closeSum += c.Close
	}

	n := float64(len(candles))
	s.avgVolume = volumeSum / n
	s.priceChange = s.currentPrice - s.openPrice
	s.priceChangePercent = s.priceChange / s.openPrice * 100

	// Volatility here is a coefficient of variation over closes, not a
	// volatility-of-returns measure. Population standard deviation.
	meanClose := closeSum / n
	var variance float64
	for _, c := range candles {
		d := c.Close - meanClose
		variance += d * d
	}
	variance /= n
	s.volatility = math.Sqrt(variance) / meanClose * 100

	return s
}
