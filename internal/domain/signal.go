package domain

import "time"

// Signal is a single directional statement produced by one model within one
// agent. NO_SIGNAL is encoded as Confidence == 0 && Direction == NEUTRAL;
// callers must not construct a Signal that violates that pairing — use
// NewNoSignal for the degenerate case.
type Signal struct {
	SignalID    string                 `json:"signal_id"`
	AgentID     string                 `json:"agent_id"`
	AsOfDate    Date                   `json:"as_of_date"`
	Timestamp   time.Time              `json:"timestamp"`
	Direction   SignalDirection        `json:"direction"`
	Strength    SignalStrength         `json:"strength"`
	Confidence  float64                `json:"confidence"`
	Value       float64                `json:"value"`
	HorizonDays int                    `json:"horizon_days"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// NewSignal builds a well-formed Signal, deriving Strength from Confidence so
// callers can never desynchronize the two (invariant 2 in spec §8).
func NewSignal(signalID, agentID string, asOf Date, direction SignalDirection, confidence float64, value float64, horizonDays int, metadata map[string]interface{}) Signal {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return Signal{
		SignalID:    signalID,
		AgentID:     agentID,
		AsOfDate:    asOf,
		Timestamp:   time.Now().UTC(),
		Direction:   direction,
		Strength:    ClassifyStrength(confidence),
		Confidence:  confidence,
		Value:       value,
		HorizonDays: horizonDays,
		Metadata:    metadata,
	}
}

// NewNoSignal builds the canonical NO_SIGNAL signal with a reason recorded in
// metadata, per the model library's contract in spec §4.4/§7.
func NewNoSignal(signalID, agentID string, asOf Date, reason string, horizonDays int) Signal {
	return NewSignal(signalID, agentID, asOf, DirectionNeutral, 0.0, 0.0, horizonDays, map[string]interface{}{
		"reason": reason,
	})
}

// IsNoSignal reports whether s satisfies the NO_SIGNAL invariant.
func (s Signal) IsNoSignal() bool {
	return s.Strength == StrengthNoSignal
}

// Valid checks invariant 3: NO_SIGNAL iff confidence==0 and direction==NEUTRAL.
func (s Signal) Valid() bool {
	isNoSignalState := s.Confidence == 0.0 && s.Direction == DirectionNeutral
	return s.Strength == StrengthNoSignal == isNoSignalState && s.Strength == ClassifyStrength(s.Confidence)
}
