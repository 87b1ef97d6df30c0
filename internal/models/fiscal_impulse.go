package models

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// FiscalImpulseMinObs is the minimum 36-month rolling window length.
const FiscalImpulseMinObs = 36

// FiscalImpulseZThreshold is the locked firing threshold.
const FiscalImpulseZThreshold = 1.0

// RunFiscalImpulse z-scores the 12-month change in primary-balance/GDP
// against a 36-month rolling window of that same change. A positive
// z (fiscal contraction relative to trend) implies SHORT the
// currency-weakness trade; a negative z (expansion) implies LONG.
func RunFiscalImpulse(signalID, agentID string, asOf domain.Date, twelveMonthChange float64, rollingChangeHistory []float64, horizonDays int) domain.Signal {
	if len(rollingChangeHistory) < FiscalImpulseMinObs {
		return domain.NewNoSignal(signalID, agentID, asOf, "insufficient_data", horizonDays)
	}

	z := ZScore(twelveMonthChange, rollingChangeHistory)
	if math.IsNaN(z) {
		return domain.NewNoSignal(signalID, agentID, asOf, "numerical_failure", horizonDays)
	}
	if math.Abs(z) <= FiscalImpulseZThreshold {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	direction := domain.DirectionLong
	if z > 0 {
		direction = domain.DirectionShort
	}
	confidence := clip01(math.Abs(z) / 3.0)

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, z, horizonDays, map[string]interface{}{
		"twelve_month_change_pb_gdp": twelveMonthChange,
		"z_score":                    z,
	})
}
