package models

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// CarryMinObs is the minimum rolling-window length (trading days) the
// carry-to-risk model needs before it will fire.
const CarryMinObs = 60

// CarryRollingWindowObs is the locked 12-month rolling window (trading
// days) the ratio is z-scored against; callers may hand in a longer
// history (e.g. the feature engine's multi-year lookback) and this model
// trims it to the trailing window itself rather than trusting the caller
// to have already bounded it.
const CarryRollingWindowObs = 252

// CarryZThreshold is the locked firing threshold on the rolling z-score.
const CarryZThreshold = 1.0

// RunCarryToRisk computes ratio = (domestic_rate - foreign_rate) /
// annualized_30d_realized_vol, z-scores it against the trailing 12-month
// window of rollingRatioHistory as given (the model removes nothing from
// it, so a history whose last entry is the current ratio, as the FX
// feature engine builds it, includes that ratio), and fires when |z| > 1.0.
func RunCarryToRisk(signalID, agentID string, asOf domain.Date, domesticRate, foreignRate, realizedVol30d float64, rollingRatioHistory []float64, horizonDays int) domain.Signal {
	if len(rollingRatioHistory) < CarryMinObs {
		return domain.NewNoSignal(signalID, agentID, asOf, "insufficient_data", horizonDays)
	}
	if realizedVol30d <= 0 || math.IsNaN(realizedVol30d) {
		return domain.NewNoSignal(signalID, agentID, asOf, "numerical_failure", horizonDays)
	}

	window := rollingRatioHistory
	if len(window) > CarryRollingWindowObs {
		window = window[len(window)-CarryRollingWindowObs:]
	}

	ratio := (domesticRate - foreignRate) / realizedVol30d
	z := ZScore(ratio, window)
	if math.IsNaN(z) {
		return domain.NewNoSignal(signalID, agentID, asOf, "numerical_failure", horizonDays)
	}

	if math.Abs(z) <= CarryZThreshold {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	direction := domain.DirectionLong
	if z > 0 {
		direction = domain.DirectionShort
	}
	confidence := clip01(math.Abs(z) / 3.0)

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, z, horizonDays, map[string]interface{}{
		"carry_to_risk_ratio": ratio,
		"z_score":             z,
	})
}
