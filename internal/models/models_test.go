package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

var asOf = domain.MustParseDate("2026-02-21")

func TestZScoreExactBoundaryIsOneSigma(t *testing.T) {
	window := make([]float64, CarryMinObs)
	for i := range window {
		window[i] = float64(i % 5)
	}
	m := mean(window)
	sd := stddev(window)
	valueAtExactlyOneSigma := m + sd

	z := ZScore(valueAtExactlyOneSigma, window)
	assert.InDelta(t, 1.0, z, 1e-9)
}

func TestCountSurvivingPredictorsIgnoresConstantColumn(t *testing.T) {
	rows := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}
	assert.Equal(t, 1, countSurvivingPredictors(rows))
}

func TestRunBEERInsufficientPredictors(t *testing.T) {
	rows := make([][]float64, BEERMinObs)
	y := make([]float64, BEERMinObs)
	for i := range rows {
		rows[i] = []float64{1.0, 5.0} // second column constant: only 1 surviving predictor
		y[i] = float64(i) * 0.01
	}
	sig := RunBEER("fx_beer", "fx", asOf, BEERFrame{LogTarget: y, Predictors: rows}, 90)
	assert.True(t, sig.IsNoSignal())
	assert.Equal(t, "insufficient_predictors", sig.Metadata["reason"])
}

func TestRunBEERFiresAboveThreshold(t *testing.T) {
	n := BEERMinObs + 10
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1 := float64(i) * 0.02
		x2 := math.Sin(float64(i))
		rows[i] = []float64{x1, x2}
		y[i] = 0.3 + 0.8*x1 + 0.1*x2
	}
	// Push the last observation far off the fitted line to force a large misalignment.
	y[n-1] += 2.0

	sig := RunBEER("fx_beer", "fx", asOf, BEERFrame{LogTarget: y, Predictors: rows}, 90)
	assert.False(t, sig.IsNoSignal())
	assert.Contains(t, []domain.SignalDirection{domain.DirectionLong, domain.DirectionShort}, sig.Direction)
}

// TestRunBEERScenarioAConfidenceMatchesSpec reproduces spec §8 Scenario A:
// an actual value 8% above fair value must yield direction SHORT, value
// +8.0, confidence ~=0.80, and strength STRONG. A large, almost entirely
// clean panel keeps the single outlier row from dragging the fitted line
// off the true coefficients, so the predicted fair value at the last row
// stays close to its noiseless construction.
func TestRunBEERScenarioAConfidenceMatchesSpec(t *testing.T) {
	n := 1000
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1 := float64(i) * 0.001
		x2 := math.Sin(float64(i) / 50)
		rows[i] = []float64{x1, x2}
		fair := 0.3 + 0.8*x1 + 0.1*x2
		if i == n-1 {
			y[i] = fair + math.Log(1.08) // actual = fair * 1.08
			continue
		}
		y[i] = fair
	}

	sig := RunBEER("fx_beer", "fx", asOf, BEERFrame{LogTarget: y, Predictors: rows}, 90)
	require.False(t, sig.IsNoSignal())
	assert.Equal(t, domain.DirectionShort, sig.Direction)
	assert.InDelta(t, 8.0, sig.Value, 0.2)
	assert.InDelta(t, 0.80, sig.Confidence, 0.02)
	assert.Equal(t, domain.StrengthStrong, sig.Strength)
}

func TestRunCarryToRiskBoundaryRatioHasUnitZScore(t *testing.T) {
	history := make([]float64, CarryMinObs)
	for i := range history {
		history[i] = float64(i % 7)
	}
	m := mean(history)
	sd := stddev(history)
	ratioAtBoundary := m + sd // z == 1.0 exactly

	sig := RunCarryToRisk("fx_carry", "fx", asOf, 0, 0, 1.0, history, 90)
	_ = ratioAtBoundary
	// domesticRate=0, foreignRate=0, vol=1 => ratio=0; just assert it behaves (no panic) and
	// exercise the exact-boundary path directly via ZScore instead for determinism.
	z := ZScore(ratioAtBoundary, history)
	assert.InDelta(t, 1.0, z, 1e-9)
	assert.NotEqual(t, domain.SignalStrength(""), sig.Strength)
}

func TestRunCarryToRiskInsufficientData(t *testing.T) {
	sig := RunCarryToRisk("fx_carry", "fx", asOf, 0.10, 0.03, 0.15, []float64{1, 2}, 90)
	assert.True(t, sig.IsNoSignal())
	assert.Equal(t, "insufficient_data", sig.Metadata["reason"])
}

func TestRunCarryToRiskTrimsHistoryToRollingWindow(t *testing.T) {
	// A stale tail of zeros several years long would drag the mean/stddev
	// toward zero and mask a recent regime shift if it were not trimmed
	// to the locked 12-month window before z-scoring.
	history := make([]float64, 0, 365*3)
	for i := 0; i < 365*3-CarryRollingWindowObs; i++ {
		history = append(history, 0)
	}
	for i := 0; i < CarryRollingWindowObs; i++ {
		history = append(history, float64(i%7))
	}

	trimmed := history[len(history)-CarryRollingWindowObs:]
	m := mean(trimmed)
	sd := stddev(trimmed)
	domesticRate := m + 2*sd // ratio sits two trimmed-window sigmas above the trimmed mean
	foreignRate := 0.0
	vol := 1.0

	sig := RunCarryToRisk("fx_carry", "fx", asOf, domesticRate, foreignRate, vol, history, 90)
	require.False(t, sig.IsNoSignal())
	assert.InDelta(t, 2.0, sig.Metadata["z_score"], 1e-6)
}

func TestRunFlowSingleSourceFallback(t *testing.T) {
	fxHistory := make([]float64, FlowMinObs)
	for i := range fxHistory {
		fxHistory[i] = float64(i % 3)
	}
	sig := RunFlow("fx_flow", "fx", asOf, 5.0, fxHistory, 0, nil, 90)
	assert.False(t, sig.IsNoSignal())
	assert.Equal(t, "fx_flow_only", sig.Metadata["source"])
}

func TestRunFlowBothSourcesMissingIsNoSignal(t *testing.T) {
	sig := RunFlow("fx_flow", "fx", asOf, 5.0, nil, 3.0, nil, 90)
	assert.True(t, sig.IsNoSignal())
}

func TestRunCIPBasisUsesFallbackWhenDepreciationMissing(t *testing.T) {
	sig := RunCIPBasis("fx_cip", "fx", asOf, 0.11, 0.05, nil, 90)
	assert.Equal(t, "sofr_proxy_fallback", sig.Metadata["depreciation_source"])
	assert.Equal(t, domain.DirectionLong, sig.Direction) // 0.11 - (0.05+0.015) = 0.045 > 0
}

func TestRunCIPBasisPositiveIsLong(t *testing.T) {
	dep := 0.01
	sig := RunCIPBasis("fx_cip", "fx", asOf, 0.10, 0.03, &dep, 90)
	assert.Equal(t, domain.DirectionLong, sig.Direction)
}

func TestRunCIPBasisZeroIsNoSignal(t *testing.T) {
	dep := 0.015 // domesticShortRate - (foreignRiskFreeRate + dep) == 0
	sig := RunCIPBasis("fx_cip", "fx", asOf, 0.065, 0.05, &dep, 90)
	assert.True(t, sig.IsNoSignal())
	assert.Equal(t, domain.DirectionNeutral, sig.Direction)
	assert.Equal(t, 0.0, sig.Confidence)
}

func TestRunDSAFourOfFourStabilizingIsHighConfidence(t *testing.T) {
	inputs := DSAInputs{CurrentDebtToGDP: 0.60, BaselineR: 0.02, BaselineG: 0.04, BaselinePB: 0.03}
	sig := RunDSA("fiscal_dsa", "fiscal", asOf, inputs, 365)
	if !sig.IsNoSignal() {
		assert.GreaterOrEqual(t, sig.Confidence, 0.70)
	}
}

func TestRunDSADeterministic(t *testing.T) {
	inputs := DSAInputs{CurrentDebtToGDP: 0.85, BaselineR: 0.06, BaselineG: 0.02, BaselinePB: -0.01}
	first := RunDSA("fiscal_dsa", "fiscal", asOf, inputs, 365)
	second := RunDSA("fiscal_dsa", "fiscal", asOf, inputs, 365)
	assert.Equal(t, first.Direction, second.Direction)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestRunFiscalImpulseBelowThreshold(t *testing.T) {
	history := make([]float64, FiscalImpulseMinObs)
	for i := range history {
		history[i] = 0.1
	}
	sig := RunFiscalImpulse("fiscal_impulse", "fiscal", asOf, 0.1, history, 365)
	assert.True(t, sig.IsNoSignal())
}

func TestRunDominanceRiskMissingSubScoreUsesMidpoint(t *testing.T) {
	debt := 0.45
	inputs := DominanceInputs{DebtToGDP: &debt}
	sig := RunDominanceRisk("fiscal_dominance", "fiscal", asOf, inputs, 365)
	// debt at 45% -> score 25, remaining three default to neutral midpoint (50):
	// 25*0.35 + 50*0.65 = 41.25, inside the 33-66 neutral band.
	assert.True(t, sig.IsNoSignal())
}

func TestRunDominanceRiskHighRiskIsLong(t *testing.T) {
	debt := 0.95
	rg := 5.0
	pbTrend := -4.0
	cb := 10.0
	inputs := DominanceInputs{DebtToGDP: &debt, RGSpread: &rg, PBTrendPctOfGDP: &pbTrend, CBCredibilityScore: &cb}
	sig := RunDominanceRisk("fiscal_dominance", "fiscal", asOf, inputs, 365)
	assert.Equal(t, domain.DirectionLong, sig.Direction)
}

func TestBuildCompositeNoActiveChildrenIsNoSignal(t *testing.T) {
	weights := map[string]float64{"a": 0.5, "b": 0.5}
	children := []domain.Signal{
		domain.NewNoSignal("a", "fx", asOf, "insufficient_data", 90),
		domain.NewNoSignal("b", "fx", asOf, "insufficient_data", 90),
	}
	composite := BuildComposite("fx_COMPOSITE", "fx", asOf, children, weights, 90)
	assert.True(t, composite.IsNoSignal())
}

func TestBuildCompositeAppliesDampeningOnDisagreement(t *testing.T) {
	weights := map[string]float64{"a": 0.6, "b": 0.4}
	children := []domain.Signal{
		domain.NewSignal("a", "fx", asOf, domain.DirectionLong, 0.8, 1, 90, nil),
		domain.NewSignal("b", "fx", asOf, domain.DirectionShort, 0.8, -1, 90, nil),
	}
	composite := BuildComposite("fx_COMPOSITE", "fx", asOf, children, weights, 90)
	assert.Equal(t, domain.DirectionLong, composite.Direction)
	assert.True(t, composite.Metadata["dampened"].(bool))
	assert.InDelta(t, 0.8*ConflictDampening, composite.Confidence, 1e-9)
}

func TestBuildCompositeNoDampeningWhenUnanimous(t *testing.T) {
	weights := map[string]float64{"a": 0.5, "b": 0.5}
	children := []domain.Signal{
		domain.NewSignal("a", "fx", asOf, domain.DirectionLong, 0.6, 1, 90, nil),
		domain.NewSignal("b", "fx", asOf, domain.DirectionLong, 0.8, 1, 90, nil),
	}
	composite := BuildComposite("fx_COMPOSITE", "fx", asOf, children, weights, 90)
	assert.False(t, composite.Metadata["dampened"].(bool))
	assert.InDelta(t, 0.7, composite.Confidence, 1e-9)
}

func TestValidateWeightsRejectsBadSum(t *testing.T) {
	err := ValidateWeights(map[string]float64{"a": 0.5, "b": 0.2})
	require.Error(t, err)
}

func TestValidateWeightsAcceptsLockedFXWeights(t *testing.T) {
	err := ValidateWeights(map[string]float64{"BEER": 0.40, "CARRY": 0.30, "FLOW": 0.20, "CIP": 0.10})
	require.NoError(t, err)
}

func TestHPFilterSmoothsNoisySeries(t *testing.T) {
	series := []float64{1, 5, 1, 5, 1, 5, 1, 5, 1, 5}
	trend := HPFilter(series, 1600)
	require.Len(t, trend, len(series))
	// A heavily smoothed trend should have much lower variance than the raw series.
	assert.Less(t, stddev(trend), stddev(series))
}

func TestKalmanRStarConvergesTowardObservations(t *testing.T) {
	k := NewKalmanRStar(0.01, 0.5)
	var last float64
	for i := 0; i < 50; i++ {
		last = k.Update(2.0)
	}
	assert.InDelta(t, 2.0, last, 0.2)
}

func TestRunTaylorRuleFiresOnLargeGap(t *testing.T) {
	sig := RunTaylorRule("monetary_taylor", "monetary", asOf, 0.1375, 0.04, 0.03, 0.01, 0.00, 90)
	assert.False(t, sig.IsNoSignal())
}

func TestRunTaylorRuleBelowThresholdIsNoSignal(t *testing.T) {
	sig := RunTaylorRule("monetary_taylor", "monetary", asOf, 0.0649, 0.03, 0.03, 0.00, 0.00, 90)
	assert.True(t, sig.IsNoSignal())
}
