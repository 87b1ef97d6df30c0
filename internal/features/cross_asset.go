package features

import "github.com/mcauduro0/macro-signal-pipeline/internal/domain"

// Regime is one of the four macro states the cross-asset agent narrates.
type Regime string

const (
	RegimeGoldilocks  Regime = "goldilocks"
	RegimeReflation   Regime = "reflation"
	RegimeStagflation Regime = "stagflation"
	RegimeDeflation   Regime = "deflation"
)

// HighVolThreshold and HighCreditSpreadThreshold gate confidence: a regime
// call made during calm markets carries more conviction than one made
// amid elevated vol or credit stress, which tend to blur regime signals.
const (
	HighVolThreshold           = 0.25
	HighCreditSpreadThreshold  = 3.0
)

// ComputeCrossAsset folds the other four agents' composites into a regime
// classification plus the raw composite directions the cross-asset
// model's final directional stance is built from.
func ComputeCrossAsset(bundle CrossAssetBundle) FeatureMap {
	f := FeatureMap{}

	regime, confidence := classifyRegime(bundle)
	f["regime"] = string(regime)
	f["regime_confidence"] = confidence

	f["inflation_direction"] = bundle.InflationComposite.Direction
	f["monetary_direction"] = bundle.MonetaryComposite.Direction
	f["fiscal_direction"] = bundle.FiscalComposite.Direction
	f["fx_direction"] = bundle.FXComposite.Direction

	f["_upstream_composites"] = map[string]domain.Signal{
		"inflation": bundle.InflationComposite,
		"monetary":  bundle.MonetaryComposite,
		"fiscal":    bundle.FiscalComposite,
		"fx":        bundle.FXComposite,
	}

	return f
}

// classifyRegime reads inflation direction as the inflation-pressure axis
// (LONG = rising/above-target inflation) and monetary direction as the
// policy-stance axis (LONG = restrictive policy), the two axes that
// conventionally separate the four regimes:
//
//	                 restrictive policy      accommodative policy
//	low inflation     deflation                goldilocks
//	high inflation    stagflation              reflation
func classifyRegime(bundle CrossAssetBundle) (Regime, float64) {
	inflationRising := bundle.InflationComposite.Direction == domain.DirectionLong
	policyRestrictive := bundle.MonetaryComposite.Direction == domain.DirectionLong

	var regime Regime
	switch {
	case !inflationRising && !policyRestrictive:
		regime = RegimeGoldilocks
	case inflationRising && !policyRestrictive:
		regime = RegimeReflation
	case inflationRising && policyRestrictive:
		regime = RegimeStagflation
	default:
		regime = RegimeDeflation
	}

	confidence := averageConfidence(bundle)
	if bundle.RealizedVolRegime > HighVolThreshold || bundle.CreditSpreadRegime > HighCreditSpreadThreshold {
		confidence *= 0.70
	}
	if confidence > 1 {
		confidence = 1
	}
	return regime, confidence
}

func averageConfidence(bundle CrossAssetBundle) float64 {
	sum := bundle.InflationComposite.Confidence + bundle.MonetaryComposite.Confidence
	return sum / 2
}
