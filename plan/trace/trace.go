package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every candidate decision of the engine.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// PlanningTrace collects decision records during a planning run.
type PlanningTrace struct {
	Config    TraceConfig
	Decisions []DecisionRecord
}

// NewPlanningTrace creates a PlanningTrace ready for recording.
func NewPlanningTrace(config TraceConfig) *PlanningTrace {
	return &PlanningTrace{
		Config:    config,
		Decisions: make([]DecisionRecord, 0),
	}
}

// Enabled reports whether records are kept. Safe on a nil trace.
func (pt *PlanningTrace) Enabled() bool {
	return pt != nil && pt.Config.Level == TraceLevelDecisions
}

// Record appends a decision record. No-op unless Enabled.
func (pt *PlanningTrace) Record(record DecisionRecord) {
	if !pt.Enabled() {
		return
	}
	pt.Decisions = append(pt.Decisions, record)
}
