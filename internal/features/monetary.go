package features

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/models"
)

// MonetaryHPLambda is the smoothing parameter the monetary agent's r*
// Kalman filter feeds through the HP filter before updating, matching the
// standard monthly-data lambda of 14,400.
const MonetaryHPLambda = 14400.0

// ComputeMonetary derives the policy-rate-gap inputs for the Taylor-rule
// model and an HP-filtered real-rate trend feeding the Kalman r* estimate.
func ComputeMonetary(bundle MonetaryBundle) FeatureMap {
	f := FeatureMap{}

	policyRate, ok := lastValue(bundle.PolicyRate)
	if !ok {
		policyRate = math.NaN()
	}
	f["policy_rate"] = policyRate

	inflationGap, ok := lastValue(bundle.InflationGap)
	if !ok {
		inflationGap = 0
	}
	f["inflation_gap"] = inflationGap

	outputGap, ok := lastValue(bundle.OutputGap)
	if !ok {
		outputGap = 0
	}
	f["output_gap"] = outputGap

	f["inflation_target"] = bundle.InflationTarget

	realRateHistory := seriesValues(bundle.RealRateHistory)
	var neutralRate float64 = math.NaN()
	if len(realRateHistory) >= 3 {
		trend := models.HPFilter(realRateHistory, MonetaryHPLambda)
		kalman := models.NewKalmanRStar(0.01, 0.25)
		for _, v := range trend {
			neutralRate = kalman.Update(v)
		}
	}
	f["neutral_rate_estimate"] = neutralRate
	f["_real_rate_history"] = realRateHistory

	return f
}
