package models

import "github.com/mcauduro0/macro-signal-pipeline/internal/domain"

// SofrProxyFallback is the static depreciation-expectation proxy used when
// no market-implied expected-depreciation series is available (Open
// Question resolution: see SPEC_FULL.md §5). It approximates the
// long-run SOFR-implied forward premium and is recorded in metadata
// whenever it substitutes for a live series, so consumers can discount
// the signal's precision accordingly.
const SofrProxyFallback = 0.015

// RunCIPBasis computes basis = short-tenor domestic rate - (foreign
// risk-free rate + expected depreciation). Direction is locked:
// basis > 0 implies LONG (funding friction makes the target currency
// less attractive as a funding source). There is no firing threshold —
// the model returns a directional signal for any nonzero basis once its
// three inputs are available, with confidence proportional to the basis
// magnitude relative to a 200bp normalizer. An exact zero basis has no
// direction to assign and is NEUTRAL/NO_SIGNAL rather than defaulting to
// SHORT.
func RunCIPBasis(signalID, agentID string, asOf domain.Date, domesticShortRate, foreignRiskFreeRate float64, expectedDepreciation *float64, horizonDays int) domain.Signal {
	depreciation := SofrProxyFallback
	usedFallback := true
	if expectedDepreciation != nil {
		depreciation = *expectedDepreciation
		usedFallback = false
	}

	basis := domesticShortRate - (foreignRiskFreeRate + depreciation)

	if basis == 0 {
		return domain.NewNoSignal(signalID, agentID, asOf, "zero_basis", horizonDays)
	}

	direction := domain.DirectionShort
	if basis > 0 {
		direction = domain.DirectionLong
	}
	confidence := clip01(abs(basis) / 0.02)

	metadata := map[string]interface{}{
		"basis": basis,
	}
	if usedFallback {
		metadata["depreciation_source"] = "sofr_proxy_fallback"
	} else {
		metadata["depreciation_source"] = "market_implied"
	}

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, basis, horizonDays, metadata)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
