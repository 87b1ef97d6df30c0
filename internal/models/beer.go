package models

import (
	"math"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// BEERMinObs is the minimum number of aligned observations required to
// attempt an OLS fit.
const BEERMinObs = 24

// BEERThresholdPct is the locked misalignment threshold, in percent.
const BEERThresholdPct = 5.0

// BEERFrame is the model-ready input the inflation/FX feature engine
// assembles: log(target_price) aligned against N predictor columns, one
// row per historical period, most recent last.
type BEERFrame struct {
	LogTarget  []float64
	Predictors [][]float64 // len(Predictors) == len(LogTarget); each row has the same column count
}

// RunBEER fits an OLS misalignment (behavioral equilibrium exchange rate)
// model: drop rows with any missing predictor, fit with intercept, predict
// the most recent row with the identical design matrix used in training,
// and express the gap between actual and fair value as a percent
// misalignment.
func RunBEER(signalID, agentID string, asOf domain.Date, frame BEERFrame, horizonDays int) domain.Signal {
	rows, y, ok := dropMissingRows(frame.Predictors, frame.LogTarget)
	if !ok || len(rows) < BEERMinObs {
		return domain.NewNoSignal(signalID, agentID, asOf, "insufficient_data", horizonDays)
	}

	survivingPredictors := countSurvivingPredictors(rows)
	if survivingPredictors < 2 {
		return domain.NewNoSignal(signalID, agentID, asOf, "insufficient_predictors", horizonDays)
	}

	fit, ok := FitOLS(rows, y)
	if !ok {
		return domain.NewNoSignal(signalID, agentID, asOf, "numerical_failure", horizonDays)
	}

	lastRow := rows[len(rows)-1]
	actualLog := y[len(y)-1]
	fairLog := fit.Predict(lastRow)

	actual := math.Exp(actualLog)
	fair := math.Exp(fairLog)
	if fair == 0 || math.IsNaN(fair) || math.IsInf(fair, 0) {
		return domain.NewNoSignal(signalID, agentID, asOf, "numerical_failure", horizonDays)
	}

	misalignmentPct := (actual/fair - 1) * 100

	if math.Abs(misalignmentPct) <= BEERThresholdPct {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	direction := domain.DirectionLong
	if actual > fair {
		direction = domain.DirectionShort
	}
	confidence := clip01(math.Abs(misalignmentPct) / 10)

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, misalignmentPct, horizonDays, map[string]interface{}{
		"misalignment_pct": misalignmentPct,
		"n_predictors":      survivingPredictors,
		"n_obs":             fit.NObs,
	})
}

// dropMissingRows removes rows (and their aligned y value) that contain a
// NaN predictor, keeping rows and y in lockstep.
func dropMissingRows(rows [][]float64, y []float64) ([][]float64, []float64, bool) {
	if len(rows) != len(y) {
		return nil, nil, false
	}
	var outRows [][]float64
	var outY []float64
	for i, row := range rows {
		if math.IsNaN(y[i]) {
			continue
		}
		clean := true
		for _, v := range row {
			if math.IsNaN(v) {
				clean = false
				break
			}
		}
		if !clean {
			continue
		}
		outRows = append(outRows, row)
		outY = append(outY, y[i])
	}
	return outRows, outY, true
}

// countSurvivingPredictors counts predictor columns that still vary after
// missing-row removal (a constant column carries no information and would
// make the design matrix singular, so it does not count as a usable
// predictor).
func countSurvivingPredictors(rows [][]float64) int {
	if len(rows) == 0 {
		return 0
	}
	k := len(rows[0])
	count := 0
	for c := 0; c < k; c++ {
		first := rows[0][c]
		varies := false
		for _, row := range rows[1:] {
			if row[c] != first {
				varies = true
				break
			}
		}
		if varies {
			count++
		}
	}
	return count
}
