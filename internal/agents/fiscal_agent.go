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

// FiscalAgentID is the locked agent identifier.
const FiscalAgentID = "fiscal"

// FiscalCompositeWeights are the locked equal-thirds weights across the
// DSA, impulse, and dominance-risk models.
var FiscalCompositeWeights = map[string]float64{
	"fiscal_dsa":       1.0 / 3,
	"fiscal_impulse":   1.0 / 3,
	"fiscal_dominance": 1.0 / 3,
}

// FiscalAgent runs the debt-sustainability projection, the fiscal-
// impulse z-score, and the dominance-risk composite, then blends them in
// equal thirds.
type FiscalAgent struct {
	BaseAgent
	pbSeries            string
	debtSeries          string
	cbCredibilitySeries string
	interestCurveID     string
	interestTenorDays   int
	growthSeries        string
	lookbackDays        int
}

// NewFiscalAgent builds the fiscal agent. The DSA's r/g baseline comes
// from the BR sovereign curve's 5-year tenor (the effective cost of
// rolling the debt stock) and the nominal GDP growth series, both
// sourced through the PIT loader rather than fixed at construction time.
func NewFiscalAgent(loader *pit.Loader, repo persistence.AgentReportsRepo, logger zerolog.Logger) *FiscalAgent {
	a := &FiscalAgent{
		pbSeries:            "PRIMARY_BALANCE_GDP",
		debtSeries:          "GROSS_DEBT_GDP",
		cbCredibilitySeries: "CB_CREDIBILITY_SCORE",
		interestCurveID:     "BR_SOVEREIGN_CURVE",
		interestTenorDays:   1825,
		growthSeries:        "BR_NOMINAL_GDP_GROWTH_YOY",
		lookbackDays:        365 * 4,
	}
	a.BaseAgent = newBaseAgent(FiscalAgentID, loader, repo, logger, a)
	return a
}

func (a *FiscalAgent) loadData(ctx context.Context, asOf domain.Date, report *domain.Report) interface{} {
	bundle := features.FiscalBundle{}
	bundle.PrimaryBalanceToGDP = safeLoad(&a.BaseAgent, report, "primary_balance_gdp", func() ([]pit.Point, error) {
		return a.loader.GetFiscalData(ctx, a.pbSeries, asOf, a.lookbackDays)
	})
	bundle.GrossDebtToGDP = safeLoad(&a.BaseAgent, report, "gross_debt_gdp", func() ([]pit.Point, error) {
		return a.loader.GetFiscalData(ctx, a.debtSeries, asOf, a.lookbackDays)
	})
	cbPoints := safeLoad(&a.BaseAgent, report, "cb_credibility", func() ([]pit.Point, error) {
		return a.loader.GetFiscalData(ctx, a.cbCredibilitySeries, asOf, 90)
	})
	if len(cbPoints) > 0 && cbPoints[len(cbPoints)-1].Value != nil {
		bundle.CBCredibilityScore = cbPoints[len(cbPoints)-1].Value
	}

	bundle.InterestRateHistory = safeLoad(&a.BaseAgent, report, "nominal_interest_rate_curve", func() ([]pit.CurveHistoryPoint, error) {
		return a.loader.GetCurveHistory(ctx, a.interestCurveID, a.interestTenorDays, asOf, a.lookbackDays)
	})
	bundle.GrowthRateHistory = safeLoad(&a.BaseAgent, report, "nominal_growth_rate", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.growthSeries, asOf, a.lookbackDays)
	})

	return bundle
}

func (a *FiscalAgent) computeFeatures(bundle interface{}, asOf domain.Date) map[string]interface{} {
	return features.ComputeFiscal(bundle.(features.FiscalBundle))
}

func (a *FiscalAgent) runModels(f map[string]interface{}, asOf domain.Date) []domain.Signal {
	var dsaSignal domain.Signal
	if inputs, ok := f["_dsa_raw_data"].(models.DSAInputs); ok && !math.IsNaN(inputs.CurrentDebtToGDP) && !math.IsNaN(inputs.BaselineR) && !math.IsNaN(inputs.BaselineG) {
		dsaSignal = models.RunDSA("fiscal_dsa", a.AgentID(), asOf, inputs, 365)
	} else {
		dsaSignal = domain.NewNoSignal("fiscal_dsa", a.AgentID(), asOf, "insufficient_data", 365)
	}

	var impulseSignal domain.Signal
	change, _ := f["pb_gdp_12m_change"].(float64)
	history, _ := f["_pb_gdp_change_history"].([]float64)
	if math.IsNaN(change) {
		impulseSignal = domain.NewNoSignal("fiscal_impulse", a.AgentID(), asOf, "insufficient_data", 365)
	} else {
		impulseSignal = models.RunFiscalImpulse("fiscal_impulse", a.AgentID(), asOf, change, history, 365)
	}

	dominanceInputs := models.DominanceInputs{
		CBCredibilityScore: f["cb_credibility_score"].(*float64),
	}
	if debt, ok := f["gross_debt_gdp"].(float64); ok && !math.IsNaN(debt) {
		dominanceInputs.DebtToGDP = &debt
	}
	if change, ok := f["pb_gdp_12m_change"].(float64); ok && !math.IsNaN(change) {
		dominanceInputs.PBTrendPctOfGDP = &change
	}
	dominanceSignal := models.RunDominanceRisk("fiscal_dominance", a.AgentID(), asOf, dominanceInputs, 365)

	signals := []domain.Signal{dsaSignal, impulseSignal, dominanceSignal}
	composite := models.BuildComposite("fiscal_COMPOSITE", a.AgentID(), asOf, signals, FiscalCompositeWeights, 365)
	return append(signals, composite)
}

func (a *FiscalAgent) generateNarrative(signals []domain.Signal, f map[string]interface{}) string {
	if len(signals) == 0 {
		return ""
	}
	composite := signals[len(signals)-1]
	return narrative.Default.Narrate("Fiscal", "DSA, impulse, and dominance-risk models", composite)
}
