package noema

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Mode is the conductor's lifecycle phase.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeProcessing Mode = "processing"
)

// ConductorConfig aggregates the component configurations plus the routing
// threshold between the fast and slow systems.
type ConductorConfig struct {
	// System2Threshold is the complexity above which a problem is routed
	// to deliberate processing.
	System2Threshold float64
	// MaxSubProblems caps System 2 decomposition.
	MaxSubProblems int

	WorkingMemory WorkingMemoryConfig
	LongTerm      LongTermConfig
	Attention     AttentionConfig
	Decision      DecisionConfig
	Meta          MetaConfig
	HRM           HRMConfig
}

// DefaultConductorConfig returns the standard parameters.
func DefaultConductorConfig() ConductorConfig {
	return ConductorConfig{
		System2Threshold: 0.6,
		MaxSubProblems:   8,
		WorkingMemory:    DefaultWorkingMemoryConfig(),
		LongTerm:         DefaultLongTermConfig(),
		Attention:        DefaultAttentionConfig(),
		Decision:         DefaultDecisionConfig(),
		Meta:             DefaultMetaConfig(),
		HRM:              DefaultHRMConfig(),
	}
}

// CognitiveState is the conductor's observable state.
type CognitiveState struct {
	Mode            Mode     `json:"mode"`
	ActiveProblems  int      `json:"active_problems"`
	CognitiveLoad   float64  `json:"cognitive_load"`
	Confidence      float64  `json:"confidence"`
	RecentDecisions []string `json:"recent_decisions"`
}

// Stats accumulates processing counters across the conductor's lifetime.
type Stats struct {
	TotalProcessed     int     `json:"total_processed"`
	System1Activations int     `json:"system1_activations"`
	System2Activations int     `json:"system2_activations"`
	MeanConfidence     float64 `json:"mean_confidence"`
}

// Outcome is the total result of one Run call. Run never returns an error;
// failures degrade to a heuristic answer inside the outcome.
type Outcome struct {
	ProcessID  string
	Solution   Content
	Confidence float64
	System     int
	Approach   string
	Complexity float64
	Duration   time.Duration
	Actions    []RegulatoryAction
	Trace      []string
}

// Conductor is the top-level entry point. It owns one instance of every
// cognitive component and a pipz pipeline that carries a Process through
// attention, memory, routing, decision, monitoring, and learning.
//
// A Conductor is single-writer: concurrent Run calls against the same
// instance require external mutual exclusion. Independent instances share
// no state and may run fully in parallel.
type Conductor struct {
	id    string
	cfg   ConductorConfig
	clock clock.Clock
	rng   *rand.Rand
	embed EmbedFunc

	working   *WorkingMemory
	longterm  *LongTermMemory
	attention *Attention
	decider   *DecisionMaker
	meta      *MetaCognition
	hrm       *HRM

	analogy  AnalogyProvider
	reasoner ReasoningProvider

	pipeline *pipz.Sequence[*Process]

	state         CognitiveState
	stats         Stats
	confidenceSum float64
}

// Option configures a Conductor at construction.
type Option func(*Conductor)

// WithConfig replaces the full configuration.
func WithConfig(cfg ConductorConfig) Option {
	return func(c *Conductor) { c.cfg = cfg }
}

// WithClock injects the time source. A mock clock makes every decay and
// blink computation deterministic.
func WithClock(clk clock.Clock) Option {
	return func(c *Conductor) { c.clock = clk }
}

// WithRand injects the randomness source used by satisficing shuffles and
// strategy exploration.
func WithRand(rng *rand.Rand) Option {
	return func(c *Conductor) { c.rng = rng }
}

// WithAnalogyProvider wires the fast-path pattern matcher.
func WithAnalogyProvider(p AnalogyProvider) Option {
	return func(c *Conductor) { c.analogy = p }
}

// WithReasoningProvider wires the deliberate-path supplement.
func WithReasoningProvider(p ReasoningProvider) Option {
	return func(c *Conductor) { c.reasoner = p }
}

// WithEmbedding replaces the HRM input mapping.
func WithEmbedding(embed EmbedFunc) Option {
	return func(c *Conductor) { c.embed = embed }
}

// NewConductor assembles the components and the pipeline.
func NewConductor(opts ...Option) *Conductor {
	c := &Conductor{
		id:    uuid.New().String(),
		cfg:   DefaultConductorConfig(),
		clock: clock.New(),
		state: CognitiveState{Mode: ModeIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(c.clock.Now().UnixNano()))
	}

	c.working = NewWorkingMemory(c.cfg.WorkingMemory, c.clock)
	c.longterm = NewLongTermMemory(c.cfg.LongTerm, c.clock)
	c.attention = NewAttention(c.cfg.Attention, c.clock)
	c.decider = NewDecisionMaker(c.cfg.Decision, c.clock, c.rng)
	c.meta = NewMetaCognition(c.cfg.Meta, c.clock, c.rng)
	c.hrm = NewHRM(c.cfg.HRM, c.embed)
	c.pipeline = c.buildPipeline()
	return c
}

func (c *Conductor) buildPipeline() *pipz.Sequence[*Process] {
	route := Switch("route-system", func(ctx context.Context, p *Process) int {
		return p.System
	})
	route.AddRoute(1, Transform("system1", c.stageSystem1))
	route.AddRoute(2, Transform("system2", c.stageSystem2))

	return Sequence("cognitive-pipeline",
		Transform("attend", c.stageAttend),
		Transform("store-working", c.stageStoreWorking),
		Transform("retrieve-longterm", c.stageRetrieve),
		Transform("assess-complexity", c.stageAssess),
		route,
		Transform("decide", c.stageDecide),
		Transform("monitor", c.stageMonitor),
		Transform("learn", c.stageLearn),
	)
}

// Run carries a problem through the full cognitive pipeline and returns a
// total outcome. Degenerate input yields an empty solution; a pipeline
// failure degrades to the heuristic responder instead of surfacing an error.
func (c *Conductor) Run(ctx context.Context, problem Content, pctx map[string]Content) *Outcome {
	started := c.clock.Now()
	if problem.IsEmpty() {
		return &Outcome{Solution: Empty()}
	}

	p := NewProcess(problem, pctx, started)
	c.state.Mode = ModeProcessing
	c.state.ActiveProblems++

	capitan.Emit(ctx, ProcessStarted,
		FieldProcessID.Field(p.ID),
	)

	result, err := c.pipeline.Process(ctx, p)
	if err != nil {
		capitan.Error(ctx, ProcessFailed,
			FieldProcessID.Field(p.ID),
			FieldError.Field(err),
		)
		result = p
		result.Solution = heuristicResponse(problem)
		result.Confidence = 0.2
		result.Approach = ApproachHeuristic
		if result.System == 0 {
			result.System = 1
		}
	}

	actions := c.meta.Regulate(ctx)
	c.applyRegulation(ctx, actions)

	c.stats.TotalProcessed++
	if result.System == 2 {
		c.stats.System2Activations++
	} else {
		c.stats.System1Activations++
	}
	c.confidenceSum += result.Confidence
	c.stats.MeanConfidence = c.confidenceSum / float64(c.stats.TotalProcessed)

	c.state.Confidence = result.Confidence
	c.state.CognitiveLoad = c.working.Load()
	c.state.ActiveProblems--
	if c.state.ActiveProblems == 0 {
		c.state.Mode = ModeIdle
	}

	duration := c.clock.Now().Sub(started)
	capitan.Emit(ctx, ProcessCompleted,
		FieldProcessID.Field(p.ID),
		FieldSystem.Field(result.System),
		FieldConfidence.Field(float32(result.Confidence)),
		FieldDuration.Field(duration),
	)

	return &Outcome{
		ProcessID:  result.ID,
		Solution:   result.Solution,
		Confidence: result.Confidence,
		System:     result.System,
		Approach:   result.Approach,
		Complexity: result.Complexity,
		Duration:   duration,
		Actions:    actions,
		Trace:      result.Trace,
	}
}

// stageAttend scores the problem (and any extra stimuli from context)
// against context goals and records the focus.
func (c *Conductor) stageAttend(ctx context.Context, p *Process) *Process {
	stimuli := []Stimulus{c.problemStimulus(p)}
	for key, v := range p.Context {
		if !strings.HasPrefix(key, "stimulus:") || v.IsEmpty() {
			continue
		}
		stimuli = append(stimuli, Stimulus{
			ID:        strings.TrimPrefix(key, "stimulus:"),
			Intensity: clamp01(float64(Size(v)) / 256),
			Novelty:   0.5,
			Features:  v.Fields(),
		})
	}
	sort.Slice(stimuli[1:], func(i, j int) bool {
		return stimuli[i+1].ID < stimuli[j+1].ID
	})

	p.Attended = c.attention.Attend(ctx, stimuli, goalsFromContext(p.Context))
	return p
}

func (c *Conductor) problemStimulus(p *Process) Stimulus {
	// Novelty is how unlike anything currently held the problem is.
	novelty := 1.0
	for _, it := range c.working.Items() {
		if sim := Similarity(p.Problem, it.Content); 1-sim < novelty {
			novelty = 1 - sim
		}
	}
	s := Stimulus{
		ID:        "problem",
		Intensity: clamp01(float64(Size(p.Problem)) / 256),
		Novelty:   novelty,
	}
	if p.Problem.Kind() == KindStructured {
		s.Features = p.Problem.Fields()
	}
	if cat, ok := p.Context["category"]; ok {
		s.Category = cat.Text()
	}
	if loc, ok := p.Context["location"]; ok {
		s.Location = loc.Text()
	}
	return s
}

func goalsFromContext(pctx map[string]Content) []Goal {
	var goals []Goal
	if g, ok := pctx["goal"]; ok && g.Kind() == KindText {
		goals = append(goals, Goal{Name: g.Text(), Priority: 1.0})
	}
	if gs, ok := pctx["goals"]; ok && gs.Kind() == KindList {
		for _, item := range gs.Items() {
			switch item.Kind() {
			case KindText:
				goals = append(goals, Goal{Name: item.Text(), Priority: 1.0})
			case KindStructured:
				g := Goal{Priority: 1.0}
				if name, ok := item.Field("name"); ok {
					g.Name = name.Text()
				}
				if prio, ok := item.Field("priority"); ok {
					g.Priority = clamp01(prio.Scalar())
				}
				if cat, ok := item.Field("category"); ok {
					g.Category = cat.Text()
				}
				if loc, ok := item.Field("location"); ok {
					g.Location = loc.Text()
				}
				if feats, ok := item.Field("features"); ok {
					g.Features = feats.Fields()
				}
				goals = append(goals, g)
			}
		}
	}
	return goals
}

// stageStoreWorking suppresses similar held items, then stores the problem.
func (c *Conductor) stageStoreWorking(ctx context.Context, p *Process) *Process {
	c.working.ApplyInterference(ctx, p.Problem)
	p.WorkingID = c.working.Store(ctx, p.Problem, p.Context)
	return p
}

// stageRetrieve probes both long-term stores with the problem.
func (c *Conductor) stageRetrieve(ctx context.Context, p *Process) *Process {
	p.Episodes = c.longterm.RetrieveEpisodic(ctx, EpisodicCues{Content: p.Problem})
	if concept := conceptLabel(p.Problem); concept != "" {
		p.Concepts = c.longterm.RetrieveSemantic(ctx, concept, 2)
	}
	return p
}

// stageAssess scores complexity from input size, nesting depth, and the
// absence of any direct analogy, then routes to System 1 or 2. An explicit
// "complexity" scalar in context overrides the computed score.
func (c *Conductor) stageAssess(ctx context.Context, p *Process) *Process {
	size := Size(p.Problem)
	var sizeScore float64
	switch {
	case size < 64:
		sizeScore = 0
	case size < 256:
		sizeScore = 0.1
	case size < 1024:
		sizeScore = 0.2
	default:
		sizeScore = 0.3
	}
	depthScore := math.Min(0.1*float64(Depth(p.Problem)-1), 0.3)

	analogyScore := 0.2
	if resolveAnalogy(ctx, c.analogy) != nil {
		analogyScore = 0
	} else if len(p.Episodes) > 0 && p.Episodes[0].Score >= 0.7 {
		analogyScore = 0
	}

	p.Complexity = clamp01(sizeScore + depthScore + analogyScore)
	if override, ok := p.Context["complexity"]; ok && override.Kind() == KindScalar {
		p.Complexity = clamp01(override.Scalar())
	}

	p.System = 1
	if p.Complexity > c.cfg.System2Threshold {
		p.System = 2
	}
	capitan.Emit(ctx, SystemEngaged,
		FieldProcessID.Field(p.ID),
		FieldSystem.Field(p.System),
		FieldComplexity.Field(float32(p.Complexity)),
	)
	return p
}

// stageSystem1 is the fast path: analogy provider, then memory completion,
// then the last-resort heuristic. Provider failures read as "unavailable"
// and the chain continues.
func (c *Conductor) stageSystem1(ctx context.Context, p *Process) *Process {
	solution, confidence, approach := c.solveFast(ctx, p.Problem, p.Episodes)
	p.Solution = solution
	p.Confidence = confidence
	p.Approach = approach
	p.Note(fmt.Sprintf("system1 solved via %s", approach))
	return p
}

func (c *Conductor) solveFast(ctx context.Context, problem Content, episodes []ScoredEpisode) (Content, float64, string) {
	if provider := resolveAnalogy(ctx, c.analogy); provider != nil {
		if a, err := provider.Reason(ctx, problem); err == nil && a.Confidence > 0.7 {
			return a.Solution, clamp01(a.Confidence), ApproachAnalogy
		}
	}
	if len(episodes) > 0 && episodes[0].Score > 0.7 {
		return episodes[0].Entry.Content, clamp01(episodes[0].Score), ApproachMemory
	}
	if item, ok := c.working.Retrieve(ctx, problem, RetrieveFuzzy); ok && !item.Content.Equal(problem) {
		return item.Content, clamp01(item.Activation * 0.8), ApproachMemory
	}
	return heuristicResponse(problem), 0.3, ApproachHeuristic
}

// stageSystem2 is the slow path: decompose, solve sub-problems fast, run
// the hierarchical module over the aggregate, synthesize, and validate.
// A wired reasoning provider can displace the synthesis when it is more
// confident.
func (c *Conductor) stageSystem2(ctx context.Context, p *Process) *Process {
	subs := decompose(p.Problem, c.cfg.MaxSubProblems)

	solutions := make([]Content, len(subs))
	confidences := make([]float64, len(subs))
	for i, sub := range subs {
		solutions[i], confidences[i], _ = c.solveFast(ctx, sub, nil)
	}

	result := c.hrm.Process(append(append([]Content{}, solutions...), p.Problem)...)

	solution := synthesize(p.Problem, solutions, confidences)
	meanConf := 0.0
	for _, conf := range confidences {
		meanConf += conf
	}
	if len(confidences) > 0 {
		meanConf /= float64(len(confidences))
	}
	confidence := clamp01(meanConf * (0.7 + 0.3*result.Energy))
	approach := ApproachSynthesis

	if reasoner := resolveReasoning(ctx, c.reasoner); reasoner != nil {
		if d, err := reasoner.Deliberate(ctx, p.Problem); err == nil && d.Confidence > confidence {
			solution = d.Solution
			confidence = clamp01(d.Confidence)
			approach = ApproachDeliberation
			p.Trace = append(p.Trace, d.Trace...)
		}
	}

	if !validSolution(p.Problem, solution) {
		solution, confidence = bestOf(solutions, confidences)
		if solution.IsEmpty() {
			solution, confidence = heuristicResponse(p.Problem), 0.3
		}
		approach = ApproachHeuristic
	}

	p.Solution = solution
	p.Confidence = confidence
	p.Approach = approach
	p.Note(fmt.Sprintf("system2 decomposed into %d sub-problems, solved via %s", len(subs), approach))
	return p
}

// stageDecide runs only when the context carries explicit options and
// criteria; the chosen alternative becomes the answer.
func (c *Conductor) stageDecide(ctx context.Context, p *Process) *Process {
	alternatives := alternativesFromContext(p.Context)
	criteria := criteriaFromContext(p.Context)
	if len(alternatives) == 0 || len(criteria) == 0 {
		return p
	}

	d, ok := c.decider.Decide(ctx, alternatives, criteria, StrategyAdaptive)
	if !ok {
		return p
	}
	p.Solution = Structured(map[string]Content{
		"selected": Text(d.SelectedID),
		"utility":  Scalar(d.Utility),
	})
	p.Confidence = clamp01((p.Confidence + d.Confidence) / 2)
	p.Approach = ApproachDecision
	p.Note(fmt.Sprintf("decided %s via %s", d.SelectedID, d.Strategy))

	c.state.RecentDecisions = append(c.state.RecentDecisions, d.SelectedID)
	if len(c.state.RecentDecisions) > 10 {
		c.state.RecentDecisions = c.state.RecentDecisions[len(c.state.RecentDecisions)-10:]
	}
	return p
}

// stageMonitor estimates confidence metacognitively and blends it with the
// solver's own estimate.
func (c *Conductor) stageMonitor(ctx context.Context, p *Process) *Process {
	c.meta.SetCognitiveLoad(c.working.Load())
	m := c.meta.MonitorPerformance(ctx, p.Problem.Kind().String(), p.Solution, nil)
	p.Confidence = clamp01(0.5*p.Confidence + 0.5*m.Confidence)
	return p
}

// stageLearn consolidates confident solutions into long-term memory and
// runs a decay cycle.
func (c *Conductor) stageLearn(ctx context.Context, p *Process) *Process {
	if p.Confidence > 0.6 && p.WorkingID != "" {
		if item, ok := c.working.Get(p.WorkingID); ok {
			c.longterm.Consolidate(ctx, item, true)
		}
	}
	c.longterm.ApplyDecay(ctx)
	return p
}

// applyRegulation acts on the advisory actions the conductor can honor
// itself: load relief chunks the weakest held items together.
func (c *Conductor) applyRegulation(ctx context.Context, actions []RegulatoryAction) {
	for _, a := range actions {
		if a.Action != ActionReduceLoad {
			continue
		}
		items := c.working.Items()
		if len(items) < 3 {
			continue
		}
		sort.Slice(items, func(i, j int) bool {
			return items[i].Activation < items[j].Activation
		})
		ids := []string{items[0].ID, items[1].ID, items[2].ID}
		c.working.CreateChunk(ctx, ids, "load-relief")
	}
}

// heuristicResponse is the last-resort responder: surface the most salient
// part of the problem itself.
func heuristicResponse(problem Content) Content {
	switch problem.Kind() {
	case KindList:
		items := problem.Items()
		if len(items) > 0 {
			return items[0]
		}
		return Empty()
	case KindStructured:
		return Text(Render(problem))
	default:
		return problem
	}
}

// decompose splits a problem for System 2: lists into elements, text into
// sentences, structured values into their fields. Anything else stays whole.
func decompose(problem Content, max int) []Content {
	var subs []Content
	switch problem.Kind() {
	case KindList:
		subs = problem.Items()
	case KindText:
		for _, sentence := range strings.FieldsFunc(problem.Text(), func(r rune) bool {
			return r == '.' || r == '!' || r == '?'
		}) {
			if trimmed := strings.TrimSpace(sentence); trimmed != "" {
				subs = append(subs, Text(trimmed))
			}
		}
	case KindStructured:
		fields := problem.Fields()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			subs = append(subs, fields[k])
		}
	}
	if len(subs) == 0 {
		subs = []Content{problem}
	}
	if max > 0 && len(subs) > max {
		subs = subs[:max]
	}
	return subs
}

// synthesize combines sub-solutions: texts concatenate, lists merge,
// anything else resolves to the highest-confidence pick.
func synthesize(problem Content, solutions []Content, confidences []float64) Content {
	if len(solutions) == 0 {
		return Empty()
	}

	allText, allList := true, true
	for _, s := range solutions {
		if s.Kind() != KindText {
			allText = false
		}
		if s.Kind() != KindList {
			allList = false
		}
	}

	switch {
	case allText:
		parts := make([]string, 0, len(solutions))
		for _, s := range solutions {
			if s.Text() != "" {
				parts = append(parts, s.Text())
			}
		}
		return Text(strings.Join(parts, " "))
	case allList:
		var merged []Content
		for _, s := range solutions {
			merged = append(merged, s.Items()...)
		}
		return List(merged...)
	default:
		best, _ := bestOf(solutions, confidences)
		return best
	}
}

func bestOf(solutions []Content, confidences []float64) (Content, float64) {
	best, bestConf := Empty(), -1.0
	for i, s := range solutions {
		if s.IsEmpty() {
			continue
		}
		if confidences[i] > bestConf {
			best, bestConf = s, confidences[i]
		}
	}
	if bestConf < 0 {
		bestConf = 0
	}
	return best, bestConf
}

// validSolution checks non-emptiness and type consistency with the problem:
// text problems want text answers, list problems want list answers.
func validSolution(problem, solution Content) bool {
	if solution.IsEmpty() {
		return false
	}
	switch problem.Kind() {
	case KindText:
		return solution.Kind() == KindText
	case KindList:
		return solution.Kind() == KindList
	default:
		return true
	}
}

// alternativesFromContext reads a decision's option set from context. Each
// item of the "options" list is either a bare text ID or a structured value
// with an "id" plus scalar criterion fields and the optional markers
// "probability", "delay", and "recognized".
func alternativesFromContext(pctx map[string]Content) []Alternative {
	options, ok := pctx["options"]
	if !ok || options.Kind() != KindList {
		return nil
	}

	var alternatives []Alternative
	for i, item := range options.Items() {
		switch item.Kind() {
		case KindText:
			alternatives = append(alternatives, Alternative{
				ID:     item.Text(),
				Values: map[string]float64{},
			})
		case KindStructured:
			alt := Alternative{
				ID:     fmt.Sprintf("option-%d", i),
				Values: make(map[string]float64),
			}
			for name, v := range item.Fields() {
				switch name {
				case "id":
					alt.ID = v.Text()
				case "probability":
					prob := clamp01(v.Scalar())
					alt.Probability = &prob
				case "delay":
					alt.Delay = v.Scalar()
				case "recognized":
					alt.Recognized = v.Scalar() != 0
				default:
					if v.Kind() == KindScalar {
						alt.Values[name] = v.Scalar()
					}
				}
			}
			alternatives = append(alternatives, alt)
		}
	}
	return alternatives
}

// criteriaFromContext reads criterion weights from the "criteria" field.
func criteriaFromContext(pctx map[string]Content) []Criterion {
	spec, ok := pctx["criteria"]
	if !ok || spec.Kind() != KindStructured {
		return nil
	}
	fields := spec.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var criteria []Criterion
	for _, name := range names {
		if fields[name].Kind() == KindScalar {
			criteria = append(criteria, Criterion{Name: name, Weight: fields[name].Scalar()})
		}
	}
	return criteria
}

// State returns a copy of the observable cognitive state.
func (c *Conductor) State() CognitiveState {
	out := c.state
	out.RecentDecisions = append([]string(nil), c.state.RecentDecisions...)
	return out
}

// Statistics returns the lifetime counters.
func (c *Conductor) Statistics() Stats {
	return c.stats
}

// ID returns the conductor's stable identity, used to key snapshots.
func (c *Conductor) ID() string {
	return c.id
}

// Working exposes the owned short-term store.
func (c *Conductor) Working() *WorkingMemory {
	return c.working
}

// LongTerm exposes the owned long-term store.
func (c *Conductor) LongTerm() *LongTermMemory {
	return c.longterm
}

// AttentionMechanism exposes the owned attention component.
func (c *Conductor) AttentionMechanism() *Attention {
	return c.attention
}

// Decider exposes the owned decision maker.
func (c *Conductor) Decider() *DecisionMaker {
	return c.decider
}

// Meta exposes the owned metacognitive monitor.
func (c *Conductor) Meta() *MetaCognition {
	return c.meta
}
