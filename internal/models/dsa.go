package models

import "github.com/mcauduro0/macro-signal-pipeline/internal/domain"

// DSAProjectionYears is the locked forward horizon for the debt path.
const DSAProjectionYears = 5

// DSAStabilizationThreshold is the locked swing (percentage points) in
// terminal debt/GDP that counts as "destabilizing" versus "stabilizing".
const DSAStabilizationThreshold = 5.0

// DSAScenario is one locked debt-sustainability scenario: interest-rate,
// growth-rate and primary-balance adjustments, as decimal fractions
// (0.02 = +200bps), applied on top of the baseline path's own r, g, pb.
type DSAScenario struct {
	Name  string
	RAdj  float64
	GAdj  float64
	PBAdj float64
}

// DefaultDSAScenarios returns the four locked scenarios: baseline, stress,
// adjustment, tailwind.
func DefaultDSAScenarios() []DSAScenario {
	return []DSAScenario{
		{Name: "baseline", RAdj: 0, GAdj: 0, PBAdj: 0},
		{Name: "stress", RAdj: 0.02, GAdj: -0.01, PBAdj: -0.005},
		{Name: "adjustment", RAdj: 0, GAdj: 0, PBAdj: 0.015},
		{Name: "tailwind", RAdj: -0.01, GAdj: 0.01, PBAdj: 0},
	}
}

// DSAInputs are the baseline macro assumptions the four scenarios perturb.
type DSAInputs struct {
	CurrentDebtToGDP float64 // fraction, e.g. 0.78 for 78%
	BaselineR        float64 // nominal effective interest rate on debt
	BaselineG        float64 // nominal GDP growth rate
	BaselinePB       float64 // primary balance to GDP (positive = surplus)
}

// ProjectDebtPath iterates d_{t+1} = d_t * (1+r) / (1+g) - pb for
// DSAProjectionYears using scenario-adjusted r, g, pb, returning the
// terminal debt/GDP ratio.
func ProjectDebtPath(inputs DSAInputs, scenario DSAScenario) float64 {
	r := inputs.BaselineR + scenario.RAdj
	g := inputs.BaselineG + scenario.GAdj
	pb := inputs.BaselinePB + scenario.PBAdj

	d := inputs.CurrentDebtToGDP
	for y := 0; y < DSAProjectionYears; y++ {
		d = d*(1+r)/(1+g) - pb
	}
	return d
}

// RunDSA projects all four locked scenarios and derives direction from the
// baseline path's terminal debt/GDP versus current, with confidence driven
// by how many of the four scenarios show debt stabilization (terminal <=
// current).
func RunDSA(signalID, agentID string, asOf domain.Date, inputs DSAInputs, horizonDays int) domain.Signal {
	scenarios := DefaultDSAScenarios()
	terminals := make(map[string]float64, len(scenarios))
	stabilizing := 0
	var baselineTerminal float64

	for _, sc := range scenarios {
		terminal := ProjectDebtPath(inputs, sc)
		terminals[sc.Name] = terminal
		if terminal <= inputs.CurrentDebtToGDP {
			stabilizing++
		}
		if sc.Name == "baseline" {
			baselineTerminal = terminal
		}
	}

	deltaPct := (baselineTerminal - inputs.CurrentDebtToGDP) * 100

	direction := domain.DirectionNeutral
	switch {
	case deltaPct >= DSAStabilizationThreshold:
		direction = domain.DirectionLong
	case deltaPct <= -DSAStabilizationThreshold:
		direction = domain.DirectionShort
	}

	confidence := confidenceForStabilizingCount(stabilizing)
	if direction == domain.DirectionNeutral {
		return domain.NewNoSignal(signalID, agentID, asOf, "below_threshold", horizonDays)
	}

	return domain.NewSignal(signalID, agentID, asOf, direction, confidence, deltaPct, horizonDays, map[string]interface{}{
		"baseline_terminal_debt_to_gdp": baselineTerminal,
		"scenario_terminals":            terminals,
		"scenarios_stabilizing":         stabilizing,
	})
}

func confidenceForStabilizingCount(count int) float64 {
	switch count {
	case 4:
		return 1.0
	case 3:
		return 0.70
	case 2:
		return 0.40
	case 1:
		return 0.20
	default:
		return 0.05
	}
}
