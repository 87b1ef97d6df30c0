package models

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// TaylorMinObs is the minimum history needed for the HP filter feeding
// the Kalman r* estimate to be considered trustworthy.
const TaylorMinObs = 24

// TaylorDeviationThreshold is the locked policy-rate-gap threshold (pp).
const TaylorDeviationThreshold = 0.5

// KalmanRStar is a scalar Kalman filter estimating the neutral real rate
// r* from a series of HP-filtered real rates. The state transition is a
// random walk (r*_t = r*_{t-1} + process noise); observations are the
// HP-filtered real rate plus measurement noise.
type KalmanRStar struct {
	ProcessVariance     float64
	MeasurementVariance float64
	estimate            float64
	errorCovariance     float64
	initialized         bool
}

// NewKalmanRStar builds a filter with the given process/measurement
// noise variances; smaller ProcessVariance yields a smoother, slower-
// adapting r* estimate.
func NewKalmanRStar(processVariance, measurementVariance float64) *KalmanRStar {
	return &KalmanRStar{ProcessVariance: processVariance, MeasurementVariance: measurementVariance}
}

// Update feeds one new HP-filtered real-rate observation and returns the
// updated r* estimate.
func (k *KalmanRStar) Update(observation float64) float64 {
	if !k.initialized {
		k.estimate = observation
		k.errorCovariance = k.MeasurementVariance
		k.initialized = true
		return k.estimate
	}

	// Predict.
	predictedEstimate := k.estimate
	predictedCovariance := k.errorCovariance + k.ProcessVariance

	// Update.
	kalmanGain := predictedCovariance / (predictedCovariance + k.MeasurementVariance)
	k.estimate = predictedEstimate + kalmanGain*(observation-predictedEstimate)
	k.errorCovariance = (1 - kalmanGain) * predictedCovariance

	return k.estimate
}

// HPFilter applies the Hodrick-Prescott filter to extract a smooth trend
// from series, using the standard two-sided penalized least-squares
// formulation solved via the closed-form pentadiagonal system for small
// series (n <= a few hundred, which is the scale this pipeline operates
// at — a monthly real-rate history spans years, not decades).
func HPFilter(series []float64, lambda float64) []float64 {
	n := len(series)
	if n < 3 {
		out := make([]float64, n)
		copy(out, series)
		return out
	}

	// Build the second-difference penalty matrix D (n-2 x n) implicitly
	// via (I + lambda * D^T D) trend = series, solved densely — fine at
	// this pipeline's data scale.
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		a[i][i] = 1
	}
	for i := 0; i < n-2; i++ {
		coeffs := []float64{1, -2, 1}
		for j, c := range coeffs {
			for k, d := range coeffs {
				a[i+j][i+k] += lambda * c * d
			}
		}
	}

	trend, ok := solveLinearSystem(a, series)
	if !ok {
		out := make([]float64, n)
		copy(out, series)
		return out
	}
	return trend
}

// RunTaylorRule computes the Taylor-rule target rate from output-gap and
// inflation-gap inputs, compares it to the current policy rate, and fires
// when the gap exceeds TaylorDeviationThreshold percentage points. Rates
// are decimal fractions (0.1375 = 13.75%), so the gap is scaled by 100
// before it is compared with the threshold.
//
// target = neutralRate + inflationTarget + 0.5*inflationGap + 0.5*outputGap
func RunTaylorRule(signalID, agentID string, asOf domain.Date, policyRate, neutralRate, inflationTarget, inflationGap, outputGap float64, horizonDays int) domain.Signal {
	target := neutralRate + inflationTarget + 0.5*inflationGap + 0.5*outputGap
	gap := policyRate - target
	gapPP := gap * 100

	if math.Abs(gapPP) <= TaylorDeviationThreshold {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	// Policy rate above the implied target is restrictive relative to
	// conditions, favoring currency strength: LONG. Below target is
	// accommodative: SHORT.
	direction := domain.DirectionLong
	if gap < 0 {
		direction = domain.DirectionShort
	}
	confidence := clip01(math.Abs(gapPP) / 3.0)

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, gap, horizonDays, map[string]interface{}{
		"taylor_target_rate": target,
		"policy_rate_gap":    gap,
		"neutral_rate":       neutralRate,
	})
}
