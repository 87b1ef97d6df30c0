package features

import "math"

// ComputeInflation derives the scalar CPI/expectations features the
// inflation agent's models need, plus the private rolling-window payload
// the fiscal-impulse-style z-score model consumes.
func ComputeInflation(bundle InflationBundle) FeatureMap {
	f := FeatureMap{}

	ipca, ok := lastValue(bundle.IPCAMonthly)
	if !ok {
		ipca = math.NaN()
	}
	f["ipca_monthly"] = ipca

	core, ok := lastValue(bundle.IPCACore)
	if !ok {
		core = math.NaN()
	}
	f["ipca_core_monthly"] = core

	gap, ok := lastValue(bundle.ExpectationsGap)
	if !ok {
		gap = math.NaN()
	}
	f["expectations_gap"] = gap

	f["_ipca_history"] = seriesValues(bundle.IPCAMonthly)
	f["_ipca_core_history"] = seriesValues(bundle.IPCACore)
	f["_expectations_gap_history"] = seriesValues(bundle.ExpectationsGap)

	return f
}
