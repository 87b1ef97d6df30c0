package agents

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/features"
	"github.com/mcauduro0/macro-signal-pipeline/internal/models"
	"github.com/mcauduro0/macro-signal-pipeline/internal/narrative"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

// FXAgentID is the locked agent identifier.
const FXAgentID = "fx"

// FXCompositeWeights are the locked base weights across BEER, carry-to-
// risk, flow, and CIP-basis.
var FXCompositeWeights = map[string]float64{
	"fx_beer":  0.40,
	"fx_carry": 0.30,
	"fx_flow":  0.20,
	"fx_cip":   0.10,
}

// FXAgent runs the four currency-valuation models and blends them with
// the locked 40/30/20/10 weighting.
type FXAgent struct {
	BaseAgent
	ptaxSeries          string
	usPriceSeries       string
	brPriceSeries       string
	fxFlowSeries        string
	speculatorSeries    string
	domesticCurveID     string
	domesticTenorDays   int
	foreignCurveID      string
	foreignTenorDays    int
	realizedVolTicker   string
	depreciationSurvey  string
	lookbackDays        int
}

// NewFXAgent builds the FX agent. The domestic leg of the carry and CIP
// models is the BR DI-pre swap curve's 1-month tenor; the foreign leg is
// the US SOFR OIS curve's 1-month tenor, both sourced the same way
// BEER's PTAX/price-index predictors are: through the PIT loader, never
// hardcoded.
func NewFXAgent(loader *pit.Loader, repo persistence.AgentReportsRepo, logger zerolog.Logger) *FXAgent {
	a := &FXAgent{
		ptaxSeries:         "PTAX_DAILY",
		usPriceSeries:      "US_CPI_INDEX",
		brPriceSeries:      "BR_IPCA_INDEX",
		fxFlowSeries:       "FX_FLOW_NET",
		speculatorSeries:   "FX_SPECULATOR_POSITIONING",
		domesticCurveID:    "BR_DI_PRE_CURVE",
		domesticTenorDays:  30,
		foreignCurveID:     "US_SOFR_OIS_CURVE",
		foreignTenorDays:   30,
		realizedVolTicker:  "USDBRL_REALIZED_VOL_30D",
		depreciationSurvey: "FX_DEPRECIATION_EXPECTATION_SURVEY",
		lookbackDays:       365 * 3,
	}
	a.BaseAgent = newBaseAgent(FXAgentID, loader, repo, logger, a)
	return a
}

func (a *FXAgent) loadData(ctx context.Context, asOf domain.Date, report *domain.Report) interface{} {
	bundle := features.FXBundle{}

	ptaxFrame := safeLoad(&a.BaseAgent, report, "ptax_daily", func() (pit.MarketFrame, error) {
		return a.loader.GetMarketData(ctx, a.ptaxSeries, asOf, a.lookbackDays)
	})
	bundle.PTAXDaily = pointsFromColumn(ptaxFrame.Dates, ptaxFrame.Close)

	bundle.USPriceIndex = safeLoad(&a.BaseAgent, report, "us_price_index", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.usPriceSeries, asOf, a.lookbackDays)
	})
	bundle.BRPriceIndex = safeLoad(&a.BaseAgent, report, "br_price_index", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.brPriceSeries, asOf, a.lookbackDays)
	})

	bundle.DomesticRateHistory = safeLoad(&a.BaseAgent, report, "domestic_short_rate_curve", func() ([]pit.CurveHistoryPoint, error) {
		return a.loader.GetCurveHistory(ctx, a.domesticCurveID, a.domesticTenorDays, asOf, a.lookbackDays)
	})
	bundle.ForeignRateHistory = safeLoad(&a.BaseAgent, report, "foreign_risk_free_curve", func() ([]pit.CurveHistoryPoint, error) {
		return a.loader.GetCurveHistory(ctx, a.foreignCurveID, a.foreignTenorDays, asOf, a.lookbackDays)
	})

	volFrame := safeLoad(&a.BaseAgent, report, "realized_vol_30d", func() (pit.MarketFrame, error) {
		return a.loader.GetMarketData(ctx, a.realizedVolTicker, asOf, a.lookbackDays)
	})
	bundle.RealizedVolHistory = pointsFromColumn(volFrame.Dates, volFrame.Close)

	depreciationPoints := safeLoad(&a.BaseAgent, report, "expected_depreciation", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.depreciationSurvey, asOf, 90)
	})
	if v, ok := lastOf(depreciationPoints); ok {
		bundle.ExpectedDepreciation = &v
	}

	fxFlowPoints := safeLoad(&a.BaseAgent, report, "fx_flow", func() ([]pit.Point, error) {
		return a.loader.GetFlowData(ctx, a.fxFlowSeries, asOf, 365)
	})
	bundle.FXFlowHistory = seriesOf(fxFlowPoints)
	if v, ok := lastOf(fxFlowPoints); ok {
		bundle.FXFlowValue = v
	}

	specPoints := safeLoad(&a.BaseAgent, report, "speculator_positioning", func() ([]pit.Point, error) {
		return a.loader.GetFlowData(ctx, a.speculatorSeries, asOf, 365)
	})
	bundle.SpeculatorHistory = seriesOf(specPoints)
	if v, ok := lastOf(specPoints); ok {
		bundle.SpeculatorValue = v
	}

	return bundle
}

func (a *FXAgent) computeFeatures(bundle interface{}, asOf domain.Date) map[string]interface{} {
	return features.ComputeFX(bundle.(features.FXBundle))
}

func (a *FXAgent) runModels(f map[string]interface{}, asOf domain.Date) []domain.Signal {
	beerFrame, _ := f["_beer_ols_data"].(models.BEERFrame)
	beerSignal := models.RunBEER("fx_beer", a.AgentID(), asOf, beerFrame, 180)

	carryHistory, _ := f["_carry_ratio_history"].([]float64)
	domesticRate, _ := f["domestic_short_rate"].(float64)
	foreignRate, _ := f["foreign_risk_free_rate"].(float64)
	realizedVol, _ := f["realized_vol_30d"].(float64)
	carrySignal := models.RunCarryToRisk("fx_carry", a.AgentID(), asOf, domesticRate, foreignRate, realizedVol, carryHistory, 90)

	flowCombined, _ := f["_flow_combined"].(map[string]interface{})
	fxFlowValue, _ := flowCombined["fx_flow_value"].(float64)
	fxFlowHistory, _ := flowCombined["fx_flow_history"].([]float64)
	specValue, _ := flowCombined["speculator_value"].(float64)
	specHistory, _ := flowCombined["speculator_history"].([]float64)
	flowSignal := models.RunFlow("fx_flow", a.AgentID(), asOf, fxFlowValue, fxFlowHistory, specValue, specHistory, 30)

	var cipSignal domain.Signal
	if math.IsNaN(domesticRate) || math.IsNaN(foreignRate) {
		cipSignal = domain.NewNoSignal("fx_cip", a.AgentID(), asOf, "insufficient_data", 30)
	} else {
		expectedDepreciation, _ := f["expected_depreciation"].(*float64)
		cipSignal = models.RunCIPBasis("fx_cip", a.AgentID(), asOf, domesticRate, foreignRate, expectedDepreciation, 30)
	}

	signals := []domain.Signal{beerSignal, carrySignal, flowSignal, cipSignal}
	composite := models.BuildComposite("fx_COMPOSITE", a.AgentID(), asOf, signals, FXCompositeWeights, 90)
	return append(signals, composite)
}

func (a *FXAgent) generateNarrative(signals []domain.Signal, f map[string]interface{}) string {
	if len(signals) == 0 {
		return ""
	}
	composite := signals[len(signals)-1]
	return narrative.Default.Narrate("FX", "BEER, carry-to-risk, flow, and CIP-basis", composite)
}

func seriesOf(points []pit.Point) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Value != nil {
			out = append(out, *p.Value)
		}
	}
	return out
}

func lastOf(points []pit.Point) (float64, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Value != nil {
			return *points[i].Value, true
		}
	}
	return 0, false
}
