package analyzer

import "math"

// classifyTrend compares the mean close of the two most recent adjacent
// windows. A difference above +2% is bullish, below -2% bearish, anything
// between sideways. Strength is 0-100.
func classifyTrend(candles []Candle) (TrendDirection, float64) {
	w := trendWindow
	if len(candles) < 2*w {
		w = len(candles) / 2
	}

	recent := candles[len(candles)-w:]
	older := candles[len(candles)-2*w : len(candles)-w]

	recentAvg := meanClose(recent)
	olderAvg := meanClose(older)

	// Multiply before dividing so an exact 2% window difference lands
	// exactly on the boundary and stays sideways.
	trendDiff := (recentAvg - olderAvg) * 100 / olderAvg

	switch {
	case trendDiff > 2:
		return TrendBullish, math.Min(100, math.Abs(trendDiff)*10)
	case trendDiff < -2:
		return TrendBearish, math.Min(100, math.Abs(trendDiff)*10)
	default:
		// Sideways strength decays with drift; clamped at zero
		return TrendSideways, math.Max(0, 100-math.Abs(trendDiff)*20)
	}
}

func meanClose(candles []Candle) float64 {
	var sum float64
	for _, c := range candles {
		sum += c.Close
	}
	return sum / float64(len(candles))
}

// swingPoint marks a local extremum in the series
type swingPoint struct {
	price float64
	index int
}

// findSwingPoints scans interior candles for 3-candle local extrema on the
// high and low channels. A swing high is strictly above both neighbors'
// highs, a swing low strictly below both neighbors' lows.
func findSwingPoints(candles []Candle) (highs, lows []swingPoint) {
	for i := 1; i < len(candles)-1; i++ {
		if candles[i].High > candles[i-1].High && candles[i].High > candles[i+1].High {
			highs = append(highs, swingPoint{price: candles[i].High, index: i})
		}
		if candles[i].Low < candles[i-1].Low && candles[i].Low < candles[i+1].Low {
			lows = append(lows, swingPoint{price: candles[i].Low, index: i})
		}
	}
	return highs, lows
}

// swingStructure holds pairwise comparison counts over swing sequences
type swingStructure struct {
	higherHighs int
	lowerHighs  int
	higherLows  int
	lowerLows   int
	totalSwings int
}

// countStructure compares consecutive swing highs and lows to count the
// structural moves that drive momentum classification.
func countStructure(highs, lows []swingPoint) swingStructure {
	st := swingStructure{totalSwings: len(highs) + len(lows)}
	for i := 1; i < len(highs); i++ {
		if highs[i].price > highs[i-1].price {
			st.higherHighs++
		} else if highs[i].price < highs[i-1].price {
			st.lowerHighs++
		}
	}
	for i := 1; i < len(lows); i++ {
		if lows[i].price > lows[i-1].price {
			st.higherLows++
		} else if lows[i].price < lows[i-1].price {
			st.lowerLows++
		}
	}
	return st
}

// computeMomentum scores momentum from the window's percentage change and
// the swing structure, then classifies the momentum signal.
func computeMomentum(priceChangePercent, volatility float64, st swingStructure) Momentum {
	m := Momentum{
		Direction:   MomentumNeutral,
		HigherHighs: st.higherHighs,
		HigherLows:  st.higherLows,
		LowerHighs:  st.lowerHighs,
		LowerLows:   st.lowerLows,
	}

	var score float64
	switch {
	case priceChangePercent > 5:
		m.Direction = MomentumUp
		score = math.Min(100, priceChangePercent*2)
	case priceChangePercent < -5:
		m.Direction = MomentumDown
		score = math.Min(100, math.Abs(priceChangePercent)*2)
	}

	// Structure confirming the direction is worth a bonus
	if m.Direction == MomentumUp && st.higherLows >= 2 && st.higherHighs >= 1 {
		score += 20
	}
	if m.Direction == MomentumDown && st.lowerHighs >= 2 && st.lowerLows >= 1 {
		score += 20
	}

	if st.totalSwings > 2 {
		dominant := st.higherHighs + st.higherLows
		if m.Direction == MomentumDown {
			dominant = st.lowerHighs + st.lowerLows
		} else if m.Direction == MomentumNeutral {
			if down := st.lowerHighs + st.lowerLows; down > dominant {
				dominant = down
			}
		}
		m.Consistency = math.Min(100, float64(dominant)/(float64(st.totalSwings)/2)*50)
	}

	bonus := 0.0
	if score > 50 {
		bonus = 20
	}
	m.Score = math.Min(100, (score+m.Consistency)/2+bonus)

	m.Signal, m.IsMomentumPlay = classifyMomentumSignal(m, priceChangePercent, volatility, st)
	m.Reason = momentumReason(m.Signal, m.Direction, priceChangePercent, m.Consistency, st)

	return m
}

// classifyMomentumSignal applies the momentum decision ladder; the first
// matching branch wins.
func classifyMomentumSignal(m Momentum, pct, volatility float64, st swingStructure) (MomentumSignal, bool) {
	switch {
	case m.Direction == MomentumUp && pct >= 10 && st.higherLows >= 2:
		return MomentumStrong, true
	case m.Direction == MomentumUp && pct >= 5 && m.Consistency >= 50:
		return MomentumBuilding, volatility < 5
	case m.Direction == MomentumUp && pct >= 5 && m.Consistency < 30:
		return MomentumFading, false
	default:
		return MomentumNone, false
	}
}
