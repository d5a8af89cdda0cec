package analyzer

import "math"

// scoreResult holds the output of the scoring stage
type scoreResult struct {
	score                   float64
	verdict                 Verdict
	factor                  VerdictFactor
	entrySignal             EntrySignal
	riskReward              float64
	expectedProfitAtCurrent float64
	expectedProfitAtOptimal float64
}

// computeScore combines statistics, trend, momentum and levels into the
// 0-100 scalping suitability score, the verdict and the entry signal.
// All adjustments apply to the same base, they do not compound.
func computeScore(stats priceStats, trendStrength float64, m Momentum, l priceLevels) scoreResult {
	r := scoreResult{score: 50}

	switch {
	case stats.volatility >= 2 && stats.volatility <= 10:
		r.score += 20
	case stats.volatility > 10 && stats.volatility <= 20:
		r.score += 10
	case stats.volatility > 20:
		r.score -= 10
	case m.IsMomentumPlay:
		// below 2% volatility but momentum carries it
		r.score += 15
	default:
		r.score -= 10
	}

	switch {
	case stats.avgVolume >= 10000:
		r.score += 15
	case stats.avgVolume >= 1000:
		r.score += 5
	default:
		r.score -= 15
	}

	if trendStrength > 50 {
		r.score += 15
	}

	if m.IsMomentumPlay {
		r.score += 15
	} else if m.Signal == MomentumBuilding {
		r.score += 10
	}

	// Risk/reward is indeterminate when the stop sits at the current
	// price (flat series); skip the adjustment rather than divide by zero.
	if l.stopLossPercent > 0 {
		r.riskReward = l.takeProfitPercent / l.stopLossPercent
		switch {
		case r.riskReward >= 2:
			r.score += 10
		case r.riskReward >= 1.5:
			r.score += 5
		case r.riskReward < 1:
			r.score -= 20
		}
	}

	r.score = math.Max(0, math.Min(100, r.score))

	switch {
	case r.score >= 70:
		r.verdict = VerdictGood
	case r.score >= 40:
		r.verdict = VerdictModerate
	default:
		r.verdict = VerdictPoor
	}
	r.factor = limitingFactor(stats, m, r.riskReward)

	r.entrySignal = classifyEntry(r.verdict, stats.volatility, m, l)

	r.expectedProfitAtCurrent = (l.takeProfit - stats.currentPrice) / stats.currentPrice * 100
	r.expectedProfitAtOptimal = (l.takeProfit - l.optimalEntry) / l.optimalEntry * 100

	return r
}

// limitingFactor picks the most unfavorable factor for the verdict reason,
// in fixed priority order.
func limitingFactor(stats priceStats, m Momentum, riskReward float64) VerdictFactor {
	switch {
	case stats.volatility < 2 && !m.IsMomentumPlay:
		return FactorLowVolatility
	case stats.volatility > 20:
		return FactorTooVolatile
	case stats.avgVolume < 1000:
		return FactorLowVolume
	default:
		return FactorRiskReward
	}
}

// classifyEntry applies the entry decision ladder; the first matching
// branch wins. The acceptable range around the optimal entry is half the
// volatility, reused as the threshold multiplier throughout.
func classifyEntry(verdict Verdict, volatility float64, m Momentum, l priceLevels) EntrySignal {
	acceptable := volatility / 2
	delta := l.currentVsOptimalPercent

	switch {
	case verdict == VerdictPoor:
		return EntryAvoid
	case m.IsMomentumPlay:
		return EntryMomentumBuy
	case m.Signal == MomentumBuilding && delta <= 3*acceptable:
		return EntryBuy
	case delta <= -acceptable:
		return EntryStrongBuy
	case delta <= acceptable:
		return EntryBuy
	default:
		return EntryWait
	}
}
