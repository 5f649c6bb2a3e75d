// Package trace provides decision-trace recording for beam planning analysis.
// This package has no dependencies on plan/; it stores pure data types.
package trace

// Outcome is what the engine decided for one (satellite, user) candidate.
type Outcome string

const (
	OutcomeAssigned          Outcome = "assigned"
	OutcomeInterference      Outcome = "interference"
	OutcomeNotVisible        Outcome = "not_visible"
	OutcomeSelfInterference  Outcome = "self_interference"
	OutcomeCapacityExhausted Outcome = "capacity_exhausted"
)

// DecisionRecord captures a single candidate evaluation on one satellite.
type DecisionRecord struct {
	SatID          string  `yaml:"sat"`
	UserID         string  `yaml:"user,omitempty"` // empty for OutcomeCapacityExhausted
	Beam           int     `yaml:"beam"`           // candidate beam index at the time of the decision
	Outcome        Outcome `yaml:"outcome"`
	Color          string  `yaml:"color,omitempty"`           // granted color; empty unless assigned
	ColorRotations int     `yaml:"color_rotations,omitempty"` // colors skipped because of self-interference
	ElevationDeg   float64 `yaml:"elevation_deg,omitempty"`   // set for OutcomeNotVisible
}
