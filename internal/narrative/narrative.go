// Package narrative implements the pluggable narration capability each
// agent's generate_narrative step calls into. The only implementation
// shipped here is template-only, per spec §9's note that an LLM backend is
// out of scope for this pipeline's single-process batch guarantee; the
// Narrator interface exists so a richer backend could be substituted later
// without touching agent code.
package narrative

import (
	"fmt"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// Narrator turns a composite signal and a human-readable model list into
// free text summarizing the agent's conclusion.
type Narrator interface {
	Narrate(agentLabel, modelList string, composite domain.Signal) string
	NarrateRegime(regime string, composite domain.Signal) string
}

// TemplateNarrator is the default, deterministic implementation: fixed
// sentence templates keyed only on whether the composite fired.
type TemplateNarrator struct{}

// Narrate describes a composite signal in terms of the models that fed it.
func (TemplateNarrator) Narrate(agentLabel, modelList string, composite domain.Signal) string {
	if composite.IsNoSignal() {
		return fmt.Sprintf("%s shows no net directional case across %s.", agentLabel, modelList)
	}
	return fmt.Sprintf("%s composite %s at confidence %.2f across %s.", agentLabel, composite.Direction, composite.Confidence, modelList)
}

// NarrateRegime describes the cross-asset agent's regime call alongside its
// composite direction.
func (TemplateNarrator) NarrateRegime(regime string, composite domain.Signal) string {
	if composite.IsNoSignal() {
		return fmt.Sprintf("Regime classified as %s; upstream composites show no net directional case.", regime)
	}
	return fmt.Sprintf("Regime %s; cross-asset composite %s at confidence %.2f.", regime, composite.Direction, composite.Confidence)
}

// Default is the narrator every concrete agent calls into.
var Default Narrator = TemplateNarrator{}
