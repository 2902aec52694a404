// Package trace provides decision-trace recording for the Decision
// Engine's candidate evaluation. This package has no dependency on the
// sched package — it stores pure data types, so sched can import it
// without creating a cycle.
package trace

// Level controls the verbosity of decision tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelDecisions captures every push decision's chosen candidate.
	LevelDecisions Level = "decisions"
	// LevelCandidates additionally captures every evaluated candidate,
	// not just the chosen one — useful for debugging fitness weighting.
	LevelCandidates Level = "candidates"
)

var validLevels = map[Level]bool{
	LevelNone:       true,
	LevelDecisions:  true,
	LevelCandidates: true,
	"":              true, // empty defaults to none
}

// IsValidLevel returns true if level is a recognized trace level string.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls trace collection behavior.
type Config struct {
	Level Level
}

// Decisions collects decision records during a run.
type Decisions struct {
	Config  Config
	Records []DecisionRecord
}

// New creates a Decisions collector ready for recording.
func New(config Config) *Decisions {
	return &Decisions{Config: config, Records: make([]DecisionRecord, 0)}
}

// Record appends a decision record. Callers at LevelNone are expected to
// skip calling Record entirely for zero overhead.
func (d *Decisions) Record(r DecisionRecord) {
	d.Records = append(d.Records, r)
}
