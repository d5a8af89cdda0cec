package analyzer

import (
	"testing"
)

func baseScoreInputs() (priceStats, float64, Momentum, priceLevels) {
	stats := priceStats{currentPrice: 100, volatility: 5, avgVolume: 5000}
	levels := priceLevels{
		stopLoss: 95, stopLossPercent: 5,
		takeProfit: 110, takeProfitPercent: 10,
		optimalEntry: 100,
	}
	return stats, 0, Momentum{}, levels
}

func TestComputeScoreVolatilityBands(t *testing.T) {
	tests := []struct {
		name       string
		volatility float64
		play       bool
		want       float64
	}{
		// base 50, volume +5, rr=2 +10
		{"ideal band", 5, false, 85},
		{"elevated band", 15, false, 75},
		{"extreme", 25, false, 55},
		{"dead no play", 1, false, 55},
		{"dead with play", 1, true, 95}, // +15 volatility, +15 play
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, ts, m, l := baseScoreInputs()
			stats.volatility = tt.volatility
			m.IsMomentumPlay = tt.play
			r := computeScore(stats, ts, m, l)
			if r.score != tt.want {
				t.Errorf("score = %f, want %f", r.score, tt.want)
			}
		})
	}
}

func TestComputeScoreRiskReward(t *testing.T) {
	tests := []struct {
		name   string
		slPct  float64
		tpPct  float64
		want   float64
		wantRR float64
	}{
		// base 50, volatility +20, volume +5 = 75 before rr
		{"rr two", 5, 10, 85, 2},
		{"rr one and a half", 4, 6, 80, 1.5},
		{"rr neutral", 5, 6, 75, 1.2},
		{"rr bad", 5, 4, 55, 0.8},
		{"rr skipped on zero stop", 0, 10, 75, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, ts, m, l := baseScoreInputs()
			l.stopLossPercent = tt.slPct
			l.takeProfitPercent = tt.tpPct
			r := computeScore(stats, ts, m, l)
			if r.score != tt.want {
				t.Errorf("score = %f, want %f", r.score, tt.want)
			}
			if r.riskReward != tt.wantRR {
				t.Errorf("riskReward = %f, want %f", r.riskReward, tt.wantRR)
			}
		})
	}
}

func TestComputeScoreAdjustmentsDoNotCompound(t *testing.T) {
	// Everything favorable at once: 50 +20 +15 +15 +15 +10 = 125, clamped
	stats, _, m, l := baseScoreInputs()
	stats.avgVolume = 50000
	m.IsMomentumPlay = true
	r := computeScore(stats, 60, m, l)
	if r.score != 100 {
		t.Errorf("score = %f, want clamp at 100", r.score)
	}
	if r.verdict != VerdictGood {
		t.Errorf("verdict = %s, want %s", r.verdict, VerdictGood)
	}

	// Everything unfavorable: 50 -10 -15 -20 = 5
	stats, _, m, l = baseScoreInputs()
	stats.volatility = 25
	stats.avgVolume = 100
	l.takeProfitPercent = 2
	r = computeScore(stats, 0, m, l)
	if r.score != 5 {
		t.Errorf("score = %f, want 5", r.score)
	}
	if r.verdict != VerdictPoor {
		t.Errorf("verdict = %s, want %s", r.verdict, VerdictPoor)
	}
}

func TestComputeScoreBuildingBonus(t *testing.T) {
	stats, ts, m, l := baseScoreInputs()
	m.Signal = MomentumBuilding
	r := computeScore(stats, ts, m, l)
	if r.score != 95 { // 85 + 10 building
		t.Errorf("score = %f, want 95", r.score)
	}

	// The play bonus supersedes the building bonus
	m.IsMomentumPlay = true
	r = computeScore(stats, ts, m, l)
	if r.score != 100 { // 85 + 15 play
		t.Errorf("score = %f, want 100", r.score)
	}
}

func TestLimitingFactorPriority(t *testing.T) {
	tests := []struct {
		name  string
		stats priceStats
		m     Momentum
		want  VerdictFactor
	}{
		{"dead market", priceStats{volatility: 1, avgVolume: 100}, Momentum{}, FactorLowVolatility},
		{"dead but playing", priceStats{volatility: 1, avgVolume: 100}, Momentum{IsMomentumPlay: true}, FactorLowVolume},
		{"too volatile beats volume", priceStats{volatility: 25, avgVolume: 100}, Momentum{}, FactorTooVolatile},
		{"thin volume", priceStats{volatility: 5, avgVolume: 100}, Momentum{}, FactorLowVolume},
		{"default", priceStats{volatility: 5, avgVolume: 5000}, Momentum{}, FactorRiskReward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := limitingFactor(tt.stats, tt.m, 1); got != tt.want {
				t.Errorf("factor = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyEntryLadder(t *testing.T) {
	levels := func(delta float64) priceLevels {
		return priceLevels{currentVsOptimalPercent: delta}
	}
	tests := []struct {
		name       string
		verdict    Verdict
		volatility float64
		m          Momentum
		delta      float64
		want       EntrySignal
	}{
		{"poor always avoids", VerdictPoor, 5, Momentum{IsMomentumPlay: true}, -10, EntryAvoid},
		{"play jumps the queue", VerdictGood, 5, Momentum{IsMomentumPlay: true}, 50, EntryMomentumBuy},
		{"building stretches the band", VerdictGood, 5, Momentum{Signal: MomentumBuilding}, 7, EntryBuy},
		{"building outside stretch", VerdictGood, 5, Momentum{Signal: MomentumBuilding}, 8, EntryWait},
		{"below optimal", VerdictGood, 5, Momentum{}, -3, EntryStrongBuy},
		{"at optimal", VerdictModerate, 5, Momentum{}, 1, EntryBuy},
		{"stretched", VerdictGood, 5, Momentum{}, 4, EntryWait},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyEntry(tt.verdict, tt.volatility, tt.m, levels(tt.delta)); got != tt.want {
				t.Errorf("entry = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExpectedProfits(t *testing.T) {
	stats, ts, m, l := baseScoreInputs()
	l.optimalEntry = 95
	r := computeScore(stats, ts, m, l)
	if !almostEqual(r.expectedProfitAtCurrent, 10) {
		t.Errorf("expectedProfitAtCurrent = %f, want 10", r.expectedProfitAtCurrent)
	}
	if !almostEqual(r.expectedProfitAtOptimal, (110-95.0)/95.0*100) {
		t.Errorf("expectedProfitAtOptimal = %f", r.expectedProfitAtOptimal)
	}
}
