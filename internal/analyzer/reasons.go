package analyzer

import "fmt"

// Reason rendering lives here so the decision kernel stays free of
// presentation concerns. Every template embeds the numbers the decision
// was actually made on.

func momentumReason(signal MomentumSignal, dir MomentumDirection, pct, consistency float64, st swingStructure) string {
	switch signal {
	case MomentumStrong:
		return fmt.Sprintf("strong momentum: %+.2f%% with %d higher lows confirming the move", pct, st.higherLows)
	case MomentumBuilding:
		return fmt.Sprintf("momentum building: %+.2f%% with %.0f%% swing consistency", pct, consistency)
	case MomentumFading:
		return fmt.Sprintf("momentum fading: %+.2f%% gain but only %.0f%% swing consistency", pct, consistency)
	}

	switch dir {
	case MomentumUp:
		return fmt.Sprintf("mild upward movement: %+.2f%%, not enough for a momentum play", pct)
	case MomentumDown:
		return fmt.Sprintf("negative momentum: %+.2f%%", pct)
	default:
		return "no clear momentum"
	}
}

func optimalEntryReason(l priceLevels) string {
	switch l.entryBasis {
	case BasisSwingLowVWAP:
		return fmt.Sprintf("bullish trend: enter near the recent swing low or %.6f (VWAP discount)", l.vwap*0.995)
	case BasisSupportBounce:
		return fmt.Sprintf("bearish trend: wait for a bounce just above support at %.6f", l.support)
	default:
		return fmt.Sprintf("sideways range: accumulate in the lower fifth between %.6f and %.6f", l.support, l.resistance)
	}
}

func entryReason(signal EntrySignal, m Momentum, l priceLevels) string {
	delta := l.currentVsOptimalPercent
	switch signal {
	case EntryAvoid:
		return "conditions unfavorable for scalping, stay out"
	case EntryMomentumBuy:
		return fmt.Sprintf("momentum play in progress, enter at market (%+.2f%% vs optimal)", delta)
	case EntryStrongBuy:
		return fmt.Sprintf("price is %+.2f%% below the optimal entry", delta)
	case EntryBuy:
		if m.Signal == MomentumBuilding {
			return fmt.Sprintf("momentum building and price within range of optimal entry (%+.2f%%)", delta)
		}
		return fmt.Sprintf("price within the acceptable range of the optimal entry (%+.2f%%)", delta)
	default:
		return fmt.Sprintf("price is %+.2f%% above the optimal entry, wait for a pullback", delta)
	}
}

func verdictReason(r scoreResult, volatility, avgVolume float64) string {
	prefix := fmt.Sprintf("%s setup (score %.0f): ", r.verdict, r.score)
	switch r.factor {
	case FactorLowVolatility:
		return prefix + fmt.Sprintf("volatility %.2f%% is too low without a momentum play", volatility)
	case FactorTooVolatile:
		return prefix + fmt.Sprintf("volatility %.2f%% is too high for controlled scalps", volatility)
	case FactorLowVolume:
		return prefix + fmt.Sprintf("average volume %.0f is too thin for reliable fills", avgVolume)
	default:
		return prefix + fmt.Sprintf("risk/reward ratio is %.2f", r.riskReward)
	}
}
