package models

import "github.com/mcauduro0/macro-signal-pipeline/internal/domain"

// DominanceWeights are the locked sub-score weights for the 0-100
// dominance-risk composite.
type DominanceWeights struct {
	DebtLevel     float64
	RGSpread      float64
	PBTrend       float64
	CBCredibility float64
}

// DefaultDominanceWeights returns the spec-locked weight table.
func DefaultDominanceWeights() DominanceWeights {
	return DominanceWeights{DebtLevel: 0.35, RGSpread: 0.30, PBTrend: 0.20, CBCredibility: 0.15}
}

// neutralMidpoint is substituted for any sub-score that cannot be
// computed from available data.
const neutralMidpoint = 50.0

// DominanceInputs are the four raw sub-scores before normalization;
// nil means the input could not be computed and the neutral midpoint
// substitutes for it.
type DominanceInputs struct {
	DebtToGDP         *float64 // fraction, e.g. 0.78
	RGSpread          *float64 // real rate minus real growth, in percentage points
	PBTrendPctOfGDP   *float64 // trailing primary-balance trend, percentage points
	CBCredibilityScore *float64 // external 0-100 central-bank credibility score
}

// RunDominanceRisk normalizes each sub-score to [0,100] via linear
// interpolation between anchor points, substitutes the neutral midpoint
// for missing inputs, and combines them with DefaultDominanceWeights.
// The mapping to direction treats low composite scores as favorable
// (SHORT the risk trade) and high scores as adverse (LONG).
func RunDominanceRisk(signalID, agentID string, asOf domain.Date, inputs DominanceInputs, horizonDays int) domain.Signal {
	debtScore := neutralMidpoint
	if inputs.DebtToGDP != nil {
		debtScore = lerp(*inputs.DebtToGDP*100, 30, 0, 90, 100)
	}
	rgScore := neutralMidpoint
	if inputs.RGSpread != nil {
		rgScore = lerp(*inputs.RGSpread, -2, 0, 4, 100)
	}
	pbScore := neutralMidpoint
	if inputs.PBTrendPctOfGDP != nil {
		// Deteriorating trend (more negative) raises risk; anchor at
		// +2pp improvement -> 0, -3pp deterioration -> 100.
		pbScore = lerp(*inputs.PBTrendPctOfGDP, 2, 0, -3, 100)
	}
	cbScore := neutralMidpoint
	if inputs.CBCredibilityScore != nil {
		// Higher credibility lowers risk: invert the raw 0-100 score.
		cbScore = 100 - *inputs.CBCredibilityScore
	}

	weights := DefaultDominanceWeights()
	composite := debtScore*weights.DebtLevel + rgScore*weights.RGSpread + pbScore*weights.PBTrend + cbScore*weights.CBCredibility

	var direction domain.SignalDirection
	switch {
	case composite < 33:
		direction = domain.DirectionShort
	case composite > 66:
		direction = domain.DirectionLong
	default:
		direction = domain.DirectionNeutral
	}

	if direction == domain.DirectionNeutral {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	confidence := clip01(distanceFromNeutralBand(composite) / 34.0)

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, composite, horizonDays, map[string]interface{}{
		"dominance_score": composite,
		"debt_level_score": debtScore,
		"r_g_spread_score":  rgScore,
		"pb_trend_score":    pbScore,
		"cb_credibility_score": cbScore,
	})
}

// distanceFromNeutralBand returns how far score sits beyond the [33,66]
// neutral band, used to scale confidence with the strength of the signal.
func distanceFromNeutralBand(score float64) float64 {
	if score < 33 {
		return 33 - score
	}
	if score > 66 {
		return score - 66
	}
	return 0
}
