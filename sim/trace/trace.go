package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every accepted and rejected strategy decision.
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

// Enabled reports whether records should be collected at this level.
func (l TraceLevel) Enabled() bool {
	return l == TraceLevelDecisions
}

// DecisionTrace collects decision records during a run.
type DecisionTrace struct {
	Level     TraceLevel
	Decisions []DecisionRecord
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
func NewDecisionTrace(level TraceLevel) *DecisionTrace {
	return &DecisionTrace{
		Level:     level,
		Decisions: make([]DecisionRecord, 0),
	}
}

// Record appends a decision record.
func (dt *DecisionTrace) Record(record DecisionRecord) {
	dt.Decisions = append(dt.Decisions, record)
}
