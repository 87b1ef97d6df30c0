package models

import (
	"fmt"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// ConflictDampening is the locked confidence multiplier applied when at
// least one child signal disagrees with the composite's plurality
// direction (spec-locked value, never tuned at runtime).
const ConflictDampening = 0.70

// BuildComposite folds a set of child signals into a single composite
// signal using locked base weights keyed by signal_id. Every step below
// corresponds one-to-one to the composite builder contract:
//  1. start from baseWeights (must sum to ~1.0; callers validate at
//     startup, not here — a mis-specified table is a fatal error, not a
//     per-run condition this function silently tolerates).
//  2. drop children with strength == NO_SIGNAL or direction == NEUTRAL.
//  3. if none remain, the composite is NO_SIGNAL.
//  4. renormalize remaining weights.
//  5. plurality direction by summed weight; ties go LONG.
//  6. base confidence = weighted sum of child confidences.
//  7. any child disagreeing with the plurality applies ConflictDampening.
func BuildComposite(compositeSignalID, agentID string, asOf domain.Date, children []domain.Signal, baseWeights map[string]float64, horizonDays int) domain.Signal {
	type weighted struct {
		signal domain.Signal
		weight float64
	}

	var active []weighted
	for _, s := range children {
		w, ok := baseWeights[s.SignalID]
		if !ok || w <= 0 {
			continue
		}
		if s.Strength == domain.StrengthNoSignal || s.Direction == domain.DirectionNeutral {
			continue
		}
		active = append(active, weighted{signal: s, weight: w})
	}

	if len(active) == 0 {
		return domain.NewNoSignal(compositeSignalID, agentID, asOf, "no_active_children", horizonDays)
	}

	totalWeight := 0.0
	for _, a := range active {
		totalWeight += a.weight
	}

	longWeight, shortWeight := 0.0, 0.0
	baseConfidence := 0.0
	childMeta := make([]map[string]interface{}, 0, len(active))
	for _, a := range active {
		renorm := a.weight / totalWeight
		switch a.signal.Direction {
		case domain.DirectionLong:
			longWeight += renorm
		case domain.DirectionShort:
			shortWeight += renorm
		}
		baseConfidence += renorm * a.signal.Confidence
		childMeta = append(childMeta, map[string]interface{}{
			"signal_id":  a.signal.SignalID,
			"direction":  a.signal.Direction,
			"weight":     renorm,
			"confidence": a.signal.Confidence,
		})
	}

	plurality := domain.DirectionLong
	if shortWeight > longWeight {
		plurality = domain.DirectionShort
	}

	dampened := false
	for _, a := range active {
		if a.signal.Direction != plurality {
			dampened = true
			break
		}
	}
	confidence := baseConfidence
	if dampened {
		confidence = clip01(baseConfidence * ConflictDampening)
	}

	composite := domain.NewSignal(compositeSignalID, agentID, asOf, plurality, confidence, confidence, horizonDays, map[string]interface{}{
		"children":  childMeta,
		"dampened":  dampened,
		"long_weight":  longWeight,
		"short_weight": shortWeight,
	})
	return composite
}

// ValidateWeights checks the invariant that a locked weight table sums to
// 1.0 within floating-point tolerance. Callers treat a violation as fatal
// (spec §7: "composite weights do not sum to 1.0" aborts the pipeline).
func ValidateWeights(weights map[string]float64) error {
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative weight in composite table: %v", weights)
		}
		total += w
	}
	if total < 0.999 || total > 1.001 {
		return fmt.Errorf("composite weights sum to %.6f, want 1.0: %v", total, weights)
	}
	return nil
}
