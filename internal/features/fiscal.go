package features

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/models"
)

// ComputeFiscal derives the DSA inputs, the 12-month primary-balance
// change plus its 36-month rolling history, and the dominance-risk
// sub-score inputs.
func ComputeFiscal(bundle FiscalBundle) FeatureMap {
	f := FeatureMap{}

	debtToGDP, ok := lastValue(bundle.GrossDebtToGDP)
	if !ok {
		debtToGDP = math.NaN()
	}
	f["gross_debt_gdp"] = debtToGDP

	pbToGDP, ok := lastValue(bundle.PrimaryBalanceToGDP)
	if !ok {
		pbToGDP = math.NaN()
	}
	f["primary_balance_gdp"] = pbToGDP

	pbSeries := seriesValues(bundle.PrimaryBalanceToGDP)
	f["_pb_gdp_history"] = pbSeries
	f["_pb_gdp_change_history"] = twelveMonthChanges(pbSeries)

	var twelveMonthChange float64 = math.NaN()
	if len(pbSeries) >= 13 {
		twelveMonthChange = pbSeries[len(pbSeries)-1] - pbSeries[len(pbSeries)-13]
	}
	f["pb_gdp_12m_change"] = twelveMonthChange

	nominalRate, rateOK := lastCurveRate(bundle.InterestRateHistory)
	if !rateOK {
		nominalRate = math.NaN()
	}
	nominalGrowth, growthOK := lastValue(bundle.GrowthRateHistory)
	if !growthOK {
		nominalGrowth = math.NaN()
	}
	f["nominal_interest_rate"] = nominalRate
	f["nominal_growth_rate"] = nominalGrowth

	f["_dsa_raw_data"] = models.DSAInputs{
		CurrentDebtToGDP: debtToGDP,
		BaselineR:        nominalRate,
		BaselineG:        nominalGrowth,
		BaselinePB:       pbToGDP,
	}

	f["cb_credibility_score"] = bundle.CBCredibilityScore

	return f
}

// twelveMonthChanges derives the rolling history of 12-month differences
// a z-score model needs, one value per month once 13 months of history
// exist.
func twelveMonthChanges(series []float64) []float64 {
	if len(series) < 13 {
		return nil
	}
	out := make([]float64, 0, len(series)-12)
	for i := 12; i < len(series); i++ {
		out = append(out, series[i]-series[i-12])
	}
	return out
}
