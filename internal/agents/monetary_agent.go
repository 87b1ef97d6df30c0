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

// MonetaryAgentID is the locked agent identifier.
const MonetaryAgentID = "monetary"

// MonetaryCompositeWeights are the locked base weights for the monetary
// agent's composite.
var MonetaryCompositeWeights = map[string]float64{
	"monetary_taylor": 1.0,
}

// MonetaryAgent compares the policy rate to a Taylor-rule target built on
// a Kalman-filtered neutral real rate.
type MonetaryAgent struct {
	BaseAgent
	policyRateSeries   string
	inflationGapSeries string
	outputGapSeries    string
	realRateSeries     string
	inflationTarget    float64
	lookbackDays       int
}

// NewMonetaryAgent builds the monetary agent.
func NewMonetaryAgent(loader *pit.Loader, repo persistence.AgentReportsRepo, logger zerolog.Logger, inflationTarget float64) *MonetaryAgent {
	a := &MonetaryAgent{
		policyRateSeries:   "SELIC_TARGET",
		inflationGapSeries: "INFLATION_GAP",
		outputGapSeries:    "OUTPUT_GAP",
		realRateSeries:     "EX_ANTE_REAL_RATE",
		inflationTarget:    inflationTarget,
		lookbackDays:       365 * 3,
	}
	a.BaseAgent = newBaseAgent(MonetaryAgentID, loader, repo, logger, a)
	return a
}

func (a *MonetaryAgent) loadData(ctx context.Context, asOf domain.Date, report *domain.Report) interface{} {
	bundle := features.MonetaryBundle{InflationTarget: a.inflationTarget}
	bundle.PolicyRate = safeLoad(&a.BaseAgent, report, "policy_rate", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.policyRateSeries, asOf, a.lookbackDays)
	})
	bundle.InflationGap = safeLoad(&a.BaseAgent, report, "inflation_gap", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.inflationGapSeries, asOf, a.lookbackDays)
	})
	bundle.OutputGap = safeLoad(&a.BaseAgent, report, "output_gap", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.outputGapSeries, asOf, a.lookbackDays)
	})
	bundle.RealRateHistory = safeLoad(&a.BaseAgent, report, "real_rate_history", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.realRateSeries, asOf, a.lookbackDays)
	})
	return bundle
}

func (a *MonetaryAgent) computeFeatures(bundle interface{}, asOf domain.Date) map[string]interface{} {
	return features.ComputeMonetary(bundle.(features.MonetaryBundle))
}

func (a *MonetaryAgent) runModels(f map[string]interface{}, asOf domain.Date) []domain.Signal {
	policyRate, _ := f["policy_rate"].(float64)
	neutralRate, _ := f["neutral_rate_estimate"].(float64)
	inflationTarget, _ := f["inflation_target"].(float64)
	inflationGap, _ := f["inflation_gap"].(float64)
	outputGap, _ := f["output_gap"].(float64)

	var signal domain.Signal
	if math.IsNaN(policyRate) || math.IsNaN(neutralRate) {
		signal = domain.NewNoSignal("monetary_taylor", a.AgentID(), asOf, "insufficient_data", 90)
	} else {
		signal = models.RunTaylorRule("monetary_taylor", a.AgentID(), asOf, policyRate, neutralRate, inflationTarget, inflationGap, outputGap, 90)
	}

	signals := []domain.Signal{signal}
	composite := models.BuildComposite("monetary_COMPOSITE", a.AgentID(), asOf, signals, MonetaryCompositeWeights, 90)
	return append(signals, composite)
}

func (a *MonetaryAgent) generateNarrative(signals []domain.Signal, f map[string]interface{}) string {
	if len(signals) == 0 {
		return ""
	}
	composite := signals[len(signals)-1]
	return narrative.Default.Narrate("Monetary", "Taylor-rule gap", composite)
}
