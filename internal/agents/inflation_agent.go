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

// InflationAgentID is the locked agent identifier.
const InflationAgentID = "inflation"

// InflationCompositeWeights are the locked base weights for the
// inflation agent's composite; a single model today (the fiscal-impulse-
// style expectations z-score), kept as a map for symmetry with the other
// agents and to make adding a second inflation model a pure config change.
var InflationCompositeWeights = map[string]float64{
	"inflation_expectations_z": 1.0,
}

// InflationAgent derives an inflation-surprise signal from the gap
// between survey-implied inflation expectations and the central bank's
// target, z-scored against its own rolling history.
type InflationAgent struct {
	BaseAgent
	ipcaSeries           string
	ipcaCoreSeries       string
	expectationsGapSeries string
	lookbackDays         int
}

// NewInflationAgent builds the inflation agent.
func NewInflationAgent(loader *pit.Loader, repo persistence.AgentReportsRepo, logger zerolog.Logger) *InflationAgent {
	a := &InflationAgent{
		ipcaSeries:            "IPCA_MONTHLY",
		ipcaCoreSeries:        "IPCA_CORE_MONTHLY",
		expectationsGapSeries: "FOCUS_EXPECTATIONS_GAP",
		lookbackDays:          365 * 4,
	}
	a.BaseAgent = newBaseAgent(InflationAgentID, loader, repo, logger, a)
	return a
}

func (a *InflationAgent) loadData(ctx context.Context, asOf domain.Date, report *domain.Report) interface{} {
	bundle := features.InflationBundle{}
	bundle.IPCAMonthly = safeLoad(&a.BaseAgent, report, "ipca_monthly", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.ipcaSeries, asOf, a.lookbackDays)
	})
	bundle.IPCACore = safeLoad(&a.BaseAgent, report, "ipca_core", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.ipcaCoreSeries, asOf, a.lookbackDays)
	})
	bundle.ExpectationsGap = safeLoad(&a.BaseAgent, report, "expectations_gap", func() ([]pit.Point, error) {
		return a.loader.GetMacroSeries(ctx, a.expectationsGapSeries, asOf, a.lookbackDays)
	})
	return bundle
}

func (a *InflationAgent) computeFeatures(bundle interface{}, asOf domain.Date) map[string]interface{} {
	return features.ComputeInflation(bundle.(features.InflationBundle))
}

func (a *InflationAgent) runModels(f map[string]interface{}, asOf domain.Date) []domain.Signal {
	gapHistory, _ := f["_expectations_gap_history"].([]float64)
	gap, _ := f["expectations_gap"].(float64)

	var signal domain.Signal
	if len(gapHistory) < models.FiscalImpulseMinObs {
		signal = domain.NewNoSignal("inflation_expectations_z", a.AgentID(), asOf, "insufficient_data", 90)
	} else {
		z := models.ZScore(gap, gapHistory)
		signal = zScoreSignal("inflation_expectations_z", a.AgentID(), asOf, z, gap, 90)
	}

	signals := []domain.Signal{signal}
	composite := models.BuildComposite("inflation_COMPOSITE", a.AgentID(), asOf, signals, InflationCompositeWeights, 90)
	return append(signals, composite)
}

func (a *InflationAgent) generateNarrative(signals []domain.Signal, f map[string]interface{}) string {
	if len(signals) == 0 {
		return ""
	}
	composite := signals[len(signals)-1]
	return narrative.Default.Narrate("Inflation", "expectations-gap z-score", composite)
}

// zScoreSignal is the shared NO_SIGNAL/fire boundary for single-model
// z-score agents outside the models package's own locked-threshold models
// (inflation's expectations gap has no spec-locked firing threshold, so
// it fires at any nonzero z, matching the flow model's convention).
func zScoreSignal(signalID, agentID string, asOf domain.Date, z, rawValue float64, horizonDays int) domain.Signal {
	if math.IsNaN(z) {
		return domain.NewNoSignal(signalID, agentID, asOf, "numerical_failure", horizonDays)
	}
	if z == 0 {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}
	direction := domain.DirectionLong
	if z > 0 {
		direction = domain.DirectionShort
	}
	confidence := z
	if confidence < 0 {
		confidence = -confidence
	}
	if confidence > 3 {
		confidence = 3
	}
	confidence = confidence / 3.0
	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, rawValue, horizonDays, map[string]interface{}{
		"z_score": z,
	})
}
