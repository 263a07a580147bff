package noema

import (
	"time"

	"github.com/google/uuid"
)

// Approach labels how a solution was produced.
const (
	ApproachAnalogy      = "analogy"
	ApproachMemory       = "memory"
	ApproachHeuristic    = "heuristic"
	ApproachSynthesis    = "synthesis"
	ApproachDeliberation = "deliberation"
	ApproachDecision     = "decision"
)

// Process is the payload flowing through the conductor's pipeline. Each
// stage reads what earlier stages wrote and adds its own results. Content
// values are treated as immutable once attached.
type Process struct {
	ID      string
	Problem Content
	Context map[string]Content

	// Stage results, in pipeline order.
	Attended   []Allocation
	WorkingID  string
	Episodes   []ScoredEpisode
	Concepts   []ActivatedConcept
	Complexity float64
	System     int
	Solution   Content
	Confidence float64
	Approach   string
	Trace      []string

	StartedAt time.Time
}

// NewProcess wraps a problem for the pipeline. The context map is copied.
func NewProcess(problem Content, pctx map[string]Content, started time.Time) *Process {
	copied := make(map[string]Content, len(pctx))
	for k, v := range pctx {
		copied[k] = v
	}
	return &Process{
		ID:        uuid.New().String(),
		Problem:   problem,
		Context:   copied,
		StartedAt: started,
	}
}

// Clone returns an independent copy for parallel connectors. Content values
// are shared (immutable); maps and slices are copied.
func (p *Process) Clone() *Process {
	clone := *p

	clone.Context = make(map[string]Content, len(p.Context))
	for k, v := range p.Context {
		clone.Context[k] = v
	}
	clone.Attended = append([]Allocation(nil), p.Attended...)
	clone.Episodes = append([]ScoredEpisode(nil), p.Episodes...)
	clone.Concepts = append([]ActivatedConcept(nil), p.Concepts...)
	clone.Trace = append([]string(nil), p.Trace...)

	return &clone
}

// Note appends a trace line describing a stage's contribution.
func (p *Process) Note(line string) {
	p.Trace = append(p.Trace, line)
}
