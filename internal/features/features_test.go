package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

func pt(date string, v float64) pit.Point {
	d := domain.MustParseDate(date)
	return pit.Point{Date: d, Value: &v}
}

func TestComputeInflationMissingSeriesIsNaN(t *testing.T) {
	f := ComputeInflation(InflationBundle{})
	assert.True(t, math.IsNaN(f["ipca_monthly"].(float64)))
}

func TestComputeInflationIsDeterministic(t *testing.T) {
	bundle := InflationBundle{
		IPCAMonthly: []pit.Point{pt("2026-01-31", 0.5), pt("2026-02-28", 0.6)},
	}
	first := ComputeInflation(bundle)
	second := ComputeInflation(bundle)
	assert.Equal(t, first["ipca_monthly"], second["ipca_monthly"])
}

func TestComputeFiscalTwelveMonthChange(t *testing.T) {
	series := make([]pit.Point, 13)
	for i := range series {
		series[i] = pt(domain.MustParseDate("2025-01-31").AddDays(31*i).String(), float64(i)*0.1)
	}
	f := ComputeFiscal(FiscalBundle{PrimaryBalanceToGDP: series})
	change := f["pb_gdp_12m_change"].(float64)
	assert.InDelta(t, 1.2, change, 1e-9)
}

func TestComputeFXBuildsBEERFrame(t *testing.T) {
	bundle := FXBundle{
		PTAXDaily:    []pit.Point{pt("2026-02-19", 5.0), pt("2026-02-20", 5.1)},
		USPriceIndex: []pit.Point{pt("2026-02-19", 300), pt("2026-02-20", 301)},
		BRPriceIndex: []pit.Point{pt("2026-02-19", 700), pt("2026-02-20", 705)},
	}
	f := ComputeFX(bundle)
	frame := f["_beer_ols_data"]
	require.NotNil(t, frame)
}

func TestComputeFXDerivesCarryRatioHistoryFromCurves(t *testing.T) {
	bundle := FXBundle{
		DomesticRateHistory: []pit.CurveHistoryPoint{
			{Date: domain.MustParseDate("2026-02-19"), Rate: 0.12},
			{Date: domain.MustParseDate("2026-02-20"), Rate: 0.13},
		},
		ForeignRateHistory: []pit.CurveHistoryPoint{
			{Date: domain.MustParseDate("2026-02-19"), Rate: 0.05},
			{Date: domain.MustParseDate("2026-02-20"), Rate: 0.05},
		},
		RealizedVolHistory: []pit.Point{pt("2026-02-19", 0.10), pt("2026-02-20", 0.16)},
	}
	f := ComputeFX(bundle)

	assert.InDelta(t, 0.13, f["domestic_short_rate"].(float64), 1e-9)
	assert.InDelta(t, 0.05, f["foreign_risk_free_rate"].(float64), 1e-9)
	assert.InDelta(t, 0.16, f["realized_vol_30d"].(float64), 1e-9)
	assert.InDelta(t, 0.5, f["carry_to_risk_ratio"].(float64), 1e-9) // (0.13-0.05)/0.16

	history := f["_carry_ratio_history"].([]float64)
	require.Len(t, history, 2)
	assert.InDelta(t, 0.7, history[0], 1e-9) // (0.12-0.05)/0.10
	assert.InDelta(t, 0.5, history[1], 1e-9) // (0.13-0.05)/0.16
}

func TestComputeFXMissingCurvesAreNaN(t *testing.T) {
	f := ComputeFX(FXBundle{})
	assert.True(t, math.IsNaN(f["domestic_short_rate"].(float64)))
	assert.True(t, math.IsNaN(f["foreign_risk_free_rate"].(float64)))
	assert.True(t, math.IsNaN(f["realized_vol_30d"].(float64)))
	assert.True(t, math.IsNaN(f["carry_to_risk_ratio"].(float64)))
}

func TestComputeFiscalDerivesRGFromCurveAndSeries(t *testing.T) {
	bundle := FiscalBundle{
		InterestRateHistory: []pit.CurveHistoryPoint{
			{Date: domain.MustParseDate("2026-02-19"), Rate: 0.11},
			{Date: domain.MustParseDate("2026-02-20"), Rate: 0.115},
		},
		GrowthRateHistory: []pit.Point{pt("2026-02-19", 0.04), pt("2026-02-20", 0.045)},
	}
	f := ComputeFiscal(bundle)
	assert.InDelta(t, 0.115, f["nominal_interest_rate"].(float64), 1e-9)
	assert.InDelta(t, 0.045, f["nominal_growth_rate"].(float64), 1e-9)
}

func TestClassifyRegimeGoldilocks(t *testing.T) {
	bundle := CrossAssetBundle{
		InflationComposite: domain.NewSignal("inflation_COMPOSITE", "inflation", domain.MustParseDate("2026-02-21"), domain.DirectionShort, 0.6, -1, 90, nil),
		MonetaryComposite:  domain.NewSignal("monetary_COMPOSITE", "monetary", domain.MustParseDate("2026-02-21"), domain.DirectionShort, 0.6, -1, 90, nil),
	}
	regime, confidence := classifyRegime(bundle)
	assert.Equal(t, RegimeGoldilocks, regime)
	assert.Greater(t, confidence, 0.0)
}

func TestClassifyRegimeStagflation(t *testing.T) {
	bundle := CrossAssetBundle{
		InflationComposite: domain.NewSignal("inflation_COMPOSITE", "inflation", domain.MustParseDate("2026-02-21"), domain.DirectionLong, 0.7, 1, 90, nil),
		MonetaryComposite:  domain.NewSignal("monetary_COMPOSITE", "monetary", domain.MustParseDate("2026-02-21"), domain.DirectionLong, 0.7, 1, 90, nil),
	}
	regime, _ := classifyRegime(bundle)
	assert.Equal(t, RegimeStagflation, regime)
}

func TestClassifyRegimeDampenedUnderHighVol(t *testing.T) {
	base := CrossAssetBundle{
		InflationComposite: domain.NewSignal("inflation_COMPOSITE", "inflation", domain.MustParseDate("2026-02-21"), domain.DirectionShort, 0.6, -1, 90, nil),
		MonetaryComposite:  domain.NewSignal("monetary_COMPOSITE", "monetary", domain.MustParseDate("2026-02-21"), domain.DirectionShort, 0.6, -1, 90, nil),
	}
	_, calm := classifyRegime(base)

	stressed := base
	stressed.RealizedVolRegime = 0.9
	_, stressedConfidence := classifyRegime(stressed)

	assert.Less(t, stressedConfidence, calm)
}
