package agents

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/features"
	"github.com/mcauduro0/macro-signal-pipeline/internal/models"
	"github.com/mcauduro0/macro-signal-pipeline/internal/narrative"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

// CrossAssetAgentID is the locked agent identifier.
const CrossAssetAgentID = "cross_asset"

// CrossAssetCompositeWeights equal-weights the four upstream agents'
// composites into the cross-asset regime signal.
var CrossAssetCompositeWeights = map[string]float64{
	InflationAgentID + "_COMPOSITE": 0.25,
	MonetaryAgentID + "_COMPOSITE":  0.25,
	FiscalAgentID + "_COMPOSITE":    0.25,
	FXAgentID + "_COMPOSITE":        0.25,
}

// CrossAssetAgent consumes the other four agents' composite signals and
// classifies the macro regime (goldilocks/reflation/stagflation/
// deflation), folding the four composites into one equal-weighted signal
// via the same locked-weight composite builder the other agents use. The
// regime does not change the weights; it is recorded alongside the signal.
type CrossAssetAgent struct {
	BaseAgent
	reports       persistence.AgentReportsRepo
	volTicker     string
	creditTicker  string
}

// NewCrossAssetAgent builds the cross-asset agent. It reads the other four
// agents' persisted reports rather than raw series, so it takes the
// reports repo directly in addition to the shared loader for market data.
func NewCrossAssetAgent(loader *pit.Loader, repo persistence.AgentReportsRepo, logger zerolog.Logger) *CrossAssetAgent {
	a := &CrossAssetAgent{
		reports:      repo,
		volTicker:    "BR_EQUITY_REALIZED_VOL_30D",
		creditTicker: "BR_SOVEREIGN_CDS_5Y",
	}
	a.BaseAgent = newBaseAgent(CrossAssetAgentID, loader, repo, logger, a)
	return a
}

func (a *CrossAssetAgent) loadData(ctx context.Context, asOf domain.Date, report *domain.Report) interface{} {
	bundle := features.CrossAssetBundle{
		InflationComposite: compositeOrNeutral(safeLoadReport(&a.BaseAgent, report, InflationAgentID, func() (*domain.Report, error) {
			return a.reports.GetAgentReport(ctx, InflationAgentID, asOf)
		}), InflationAgentID),
		MonetaryComposite: compositeOrNeutral(safeLoadReport(&a.BaseAgent, report, MonetaryAgentID, func() (*domain.Report, error) {
			return a.reports.GetAgentReport(ctx, MonetaryAgentID, asOf)
		}), MonetaryAgentID),
		FiscalComposite: compositeOrNeutral(safeLoadReport(&a.BaseAgent, report, FiscalAgentID, func() (*domain.Report, error) {
			return a.reports.GetAgentReport(ctx, FiscalAgentID, asOf)
		}), FiscalAgentID),
		FXComposite: compositeOrNeutral(safeLoadReport(&a.BaseAgent, report, FXAgentID, func() (*domain.Report, error) {
			return a.reports.GetAgentReport(ctx, FXAgentID, asOf)
		}), FXAgentID),
	}

	volFrame := safeLoad(&a.BaseAgent, report, "realized_vol_regime", func() (pit.MarketFrame, error) {
		return a.loader.GetMarketData(ctx, a.volTicker, asOf, 5)
	})
	if v, ok := lastOf(pointsFromColumn(volFrame.Dates, volFrame.Close)); ok {
		bundle.RealizedVolRegime = v
	}

	creditFrame := safeLoad(&a.BaseAgent, report, "credit_spread_regime", func() (pit.MarketFrame, error) {
		return a.loader.GetMarketData(ctx, a.creditTicker, asOf, 5)
	})
	if v, ok := lastOf(pointsFromColumn(creditFrame.Dates, creditFrame.Close)); ok {
		bundle.CreditSpreadRegime = v
	}

	return bundle
}

func (a *CrossAssetAgent) computeFeatures(bundle interface{}, asOf domain.Date) map[string]interface{} {
	return features.ComputeCrossAsset(bundle.(features.CrossAssetBundle))
}

func (a *CrossAssetAgent) runModels(f map[string]interface{}, asOf domain.Date) []domain.Signal {
	upstream, _ := f["_upstream_composites"].(map[string]domain.Signal)
	var signals []domain.Signal
	for _, id := range []string{InflationAgentID, MonetaryAgentID, FiscalAgentID, FXAgentID} {
		if s, ok := upstream[id]; ok {
			signals = append(signals, s)
		}
	}

	composite := models.BuildComposite("cross_asset_COMPOSITE", a.AgentID(), asOf, signals, CrossAssetCompositeWeights, 90)
	composite.Metadata["regime"] = f["regime"]
	composite.Metadata["regime_confidence"] = f["regime_confidence"]
	return append(signals, composite)
}

func (a *CrossAssetAgent) generateNarrative(signals []domain.Signal, f map[string]interface{}) string {
	regime, _ := f["regime"].(string)
	if len(signals) == 0 {
		return narrative.Default.NarrateRegime(regime, domain.NewNoSignal("cross_asset_COMPOSITE", a.AgentID(), domain.Date{}, "no_upstream_composites", 90))
	}
	composite := signals[len(signals)-1]
	return narrative.Default.NarrateRegime(regime, composite)
}

// safeLoadReport mirrors safeLoad for the *domain.Report return shape,
// recording a data-quality flag when an upstream agent's report is
// missing or failed to load rather than aborting the whole run.
func safeLoadReport(b *BaseAgent, report *domain.Report, key string, fn func() (*domain.Report, error)) *domain.Report {
	value, err := fn()
	if err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("load_data: upstream report unavailable")
		report.AddDataQualityFlag(key + "_report_unavailable")
		return nil
	}
	return value
}

func compositeOrNeutral(r *domain.Report, agentID string) domain.Signal {
	if r == nil {
		return domain.NewNoSignal(agentID+"_COMPOSITE", agentID, domain.Date{}, "upstream_unavailable", 90)
	}
	composite, ok := r.Composite()
	if !ok {
		return domain.NewNoSignal(agentID+"_COMPOSITE", agentID, r.AsOfDate, "upstream_no_composite", 90)
	}
	return composite
}
