package models

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// FlowMinObs is the minimum rolling-window length required per source
// series before it contributes a z-score.
const FlowMinObs = 36

// RunFlow z-scores two flow series (FX flow and speculator positioning)
// independently and equal-weights them. A single-source fallback applies
// when one source has too little history: the model still fires on the
// other rather than emitting NO_SIGNAL, since partial flow information is
// still informative (unlike BEER's predictor-count floor).
func RunFlow(signalID, agentID string, asOf domain.Date, fxFlowValue float64, fxFlowHistory []float64, speculatorValue float64, speculatorHistory []float64, horizonDays int) domain.Signal {
	fxZ := math.NaN()
	if len(fxFlowHistory) >= FlowMinObs {
		fxZ = ZScore(fxFlowValue, fxFlowHistory)
	}
	specZ := math.NaN()
	if len(speculatorHistory) >= FlowMinObs {
		specZ = ZScore(speculatorValue, speculatorHistory)
	}

	haveFX := !math.IsNaN(fxZ)
	haveSpec := !math.IsNaN(specZ)
	if !haveFX && !haveSpec {
		return domain.NewNoSignal(signalID, agentID, asOf, "insufficient_data", horizonDays)
	}

	var combined float64
	source := "combined"
	switch {
	case haveFX && haveSpec:
		combined = 0.5*fxZ + 0.5*specZ
	case haveFX:
		combined = fxZ
		source = "fx_flow_only"
	default:
		combined = specZ
		source = "speculator_only"
	}

	if combined == 0 {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	direction := domain.DirectionLong
	if combined > 0 {
		direction = domain.DirectionShort
	}
	confidence := clip01(math.Abs(combined) / 3.0)

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, combined, horizonDays, map[string]interface{}{
		"combined_z_score": combined,
		"source":           source,
	})
}
