package features

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/models"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

// ComputeFX derives the BEER regression frame, carry-to-risk and flow
// inputs, and CIP-basis inputs the FX agent's four models consume.
func ComputeFX(bundle FXBundle) FeatureMap {
	f := FeatureMap{}

	ptax, ok := lastValue(bundle.PTAXDaily)
	if !ok {
		ptax = math.NaN()
	}
	f["ptax_daily"] = ptax

	f["_beer_ols_data"] = buildBEERFrame(bundle)
	f["_ptax_daily"] = seriesValues(bundle.PTAXDaily)

	domesticRate, domOK := lastCurveRate(bundle.DomesticRateHistory)
	foreignRate, forOK := lastCurveRate(bundle.ForeignRateHistory)
	realizedVol, volOK := lastValue(bundle.RealizedVolHistory)
	if !domOK {
		domesticRate = math.NaN()
	}
	if !forOK {
		foreignRate = math.NaN()
	}
	if !volOK {
		realizedVol = math.NaN()
	}
	f["domestic_short_rate"] = domesticRate
	f["foreign_risk_free_rate"] = foreignRate
	f["realized_vol_30d"] = realizedVol
	f["expected_depreciation"] = bundle.ExpectedDepreciation

	carryRatio := math.NaN()
	if domOK && forOK && volOK && realizedVol > 0 {
		carryRatio = (domesticRate - foreignRate) / realizedVol
	}
	f["carry_to_risk_ratio"] = carryRatio
	f["_carry_ratio_history"] = buildCarryRatioHistory(bundle.DomesticRateHistory, bundle.ForeignRateHistory, bundle.RealizedVolHistory)

	f["_flow_combined"] = map[string]interface{}{
		"fx_flow_value":       bundle.FXFlowValue,
		"fx_flow_history":     bundle.FXFlowHistory,
		"speculator_value":    bundle.SpeculatorValue,
		"speculator_history":  bundle.SpeculatorHistory,
	}

	return f
}

// buildCarryRatioHistory zips the domestic and foreign rate curves with
// the realized-vol series into the rolling carry-to-risk ratio history
// RunCarryToRisk z-scores against, truncating all three to their common
// length the same way buildBEERFrame truncates its panel: the three
// series are fetched with the same as-of date and lookback window, so
// index-aligned truncation keeps them in lockstep without needing an
// explicit date join.
func buildCarryRatioHistory(domestic, foreign []pit.CurveHistoryPoint, vol []pit.Point) []float64 {
	n := len(domestic)
	if len(foreign) < n {
		n = len(foreign)
	}
	if len(vol) < n {
		n = len(vol)
	}

	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := vol[i].Value
		if v == nil || *v <= 0 {
			continue
		}
		out = append(out, (domestic[i].Rate-foreign[i].Rate)/ *v)
	}
	return out
}

// buildBEERFrame aligns log(PTAX) against the log of the US and BR price
// indices, the minimal two-predictor BEER specification.
func buildBEERFrame(bundle FXBundle) models.BEERFrame {
	n := len(bundle.PTAXDaily)
	if len(bundle.USPriceIndex) < n {
		n = len(bundle.USPriceIndex)
	}
	if len(bundle.BRPriceIndex) < n {
		n = len(bundle.BRPriceIndex)
	}

	frame := models.BEERFrame{}
	for i := 0; i < n; i++ {
		ptax := bundle.PTAXDaily[i].Value
		us := bundle.USPriceIndex[i].Value
		br := bundle.BRPriceIndex[i].Value
		if ptax == nil || us == nil || br == nil {
			frame.LogTarget = append(frame.LogTarget, math.NaN())
			frame.Predictors = append(frame.Predictors, []float64{math.NaN(), math.NaN()})
			continue
		}
		frame.LogTarget = append(frame.LogTarget, math.Log(*ptax))
		frame.Predictors = append(frame.Predictors, []float64{math.Log(*us), math.Log(*br)})
	}
	return frame
}
