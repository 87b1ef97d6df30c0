// Package features transforms the raw series an agent's load_data step
// retrieves into the feature maps its models consume. Every Compute
// function here is pure: no I/O, no repository access, deterministic for
// a given bundle and as-of date. Each returns two kinds of keys in its
// feature map: scalar features with semantic names, and private payloads
// prefixed "_" carrying the model-ready frames models consume directly
// instead of re-deriving them from raw series.
package features

import (
	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

// FeatureMap is the output of a Compute call: scalar and private-payload
// keys side by side, matching spec §4.3's contract.
type FeatureMap map[string]interface{}

// InflationBundle is what the inflation agent's load_data assembles.
type InflationBundle struct {
	IPCAMonthly      []pit.Point
	IPCACore         []pit.Point
	ExpectationsGap  []pit.Point // survey-implied minus target, monthly
}

// MonetaryBundle is what the monetary agent's load_data assembles.
type MonetaryBundle struct {
	PolicyRate       []pit.Point
	RealRateHistory  []pit.Point // monthly, HP-filtered upstream by the connector is NOT assumed; raw here
	InflationGap     []pit.Point
	OutputGap        []pit.Point
	InflationTarget  float64
}

// FiscalBundle is what the fiscal agent's load_data assembles.
type FiscalBundle struct {
	PrimaryBalanceToGDP []pit.Point
	GrossDebtToGDP      []pit.Point
	CBCredibilityScore  *float64
	InterestRateHistory []pit.CurveHistoryPoint // effective cost-of-debt curve, drives nominal_interest_rate (DSA BaselineR)
	GrowthRateHistory   []pit.Point             // nominal GDP growth series, drives nominal_growth_rate (DSA BaselineG)
}

// FXBundle is what the FX agent's load_data assembles. Domestic and
// foreign rates and realized vol arrive as PIT histories rather than
// scalars so the carry-to-risk ratio can be rebuilt day-by-day for the
// rolling z-score, the same way buildBEERFrame rebuilds its design matrix
// from raw series instead of a single snapshot value.
type FXBundle struct {
	PTAXDaily            []pit.Point
	USPriceIndex         []pit.Point
	BRPriceIndex         []pit.Point
	DomesticRateHistory  []pit.CurveHistoryPoint
	ForeignRateHistory   []pit.CurveHistoryPoint
	RealizedVolHistory   []pit.Point
	ExpectedDepreciation *float64
	FXFlowValue          float64
	FXFlowHistory        []float64
	SpeculatorValue      float64
	SpeculatorHistory    []float64
}

// CrossAssetBundle is what the cross-asset agent's load_data assembles;
// unlike the other four, its inputs are the other agents' composites
// rather than raw series.
type CrossAssetBundle struct {
	InflationComposite domain.Signal
	MonetaryComposite  domain.Signal
	FiscalComposite    domain.Signal
	FXComposite        domain.Signal
	RealizedVolRegime  float64 // annualized equity realized vol, regime classifier input
	CreditSpreadRegime float64 // sovereign CDS or local credit spread, regime classifier input
}

func seriesValues(points []pit.Point) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		out = append(out, *p.Value)
	}
	return out
}

func lastValue(points []pit.Point) (float64, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Value != nil {
			return *points[i].Value, true
		}
	}
	return 0, false
}

func lastCurveRate(history []pit.CurveHistoryPoint) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	return history[len(history)-1].Rate, true
}
