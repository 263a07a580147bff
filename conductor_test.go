package noema

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/benbjohnson/clock"
)

type stubAnalogy struct {
	solution   Content
	confidence float64
	err        error
	calls      int
}

func (s *stubAnalogy) Reason(_ context.Context, _ Content) (Analogy, error) {
	s.calls++
	if s.err != nil {
		return Analogy{}, s.err
	}
	return Analogy{Solution: s.solution, Confidence: s.confidence}, nil
}

type stubReasoner struct {
	solution   Content
	confidence float64
	trace      []string
	err        error
	calls      int
}

func (s *stubReasoner) Deliberate(_ context.Context, _ Content) (Deliberation, error) {
	s.calls++
	if s.err != nil {
		return Deliberation{}, s.err
	}
	return Deliberation{Solution: s.solution, Confidence: s.confidence, Trace: s.trace}, nil
}

func newTestConductor(opts ...Option) *Conductor {
	base := []Option{
		WithClock(clock.NewMock()),
		WithRand(rand.New(rand.NewSource(1))),
	}
	return NewConductor(append(base, opts...)...)
}

func TestRunEmptyProblem(t *testing.T) {
	c := newTestConductor()

	out := c.Run(context.Background(), Empty(), nil)
	if !out.Solution.IsEmpty() {
		t.Error("expected empty solution for empty problem")
	}
	if c.Statistics().TotalProcessed != 0 {
		t.Error("expected degenerate input to leave counters untouched")
	}
}

func TestRunSimpleProblemUsesSystem1(t *testing.T) {
	c := newTestConductor()

	out := c.Run(context.Background(), Text("short question"), nil)
	if out.System != 1 {
		t.Errorf("expected System 1 for a simple problem, got %d", out.System)
	}
	if out.Solution.IsEmpty() {
		t.Error("expected a solution")
	}
	if out.Approach != ApproachHeuristic {
		t.Errorf("expected heuristic approach with no memory or provider, got %q", out.Approach)
	}

	stats := c.Statistics()
	if stats.TotalProcessed != 1 || stats.System1Activations != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestRunComplexityOverrideEngagesSystem2(t *testing.T) {
	c := newTestConductor()

	out := c.Run(context.Background(),
		Text("first clause. second clause. third clause."),
		map[string]Content{"complexity": Scalar(0.9)})

	if out.System != 2 {
		t.Errorf("expected System 2 under complexity override, got %d", out.System)
	}
	if out.Complexity != 0.9 {
		t.Errorf("expected overridden complexity 0.9, got %v", out.Complexity)
	}
	if out.Solution.IsEmpty() {
		t.Error("expected a synthesized solution")
	}
	if c.Statistics().System2Activations != 1 {
		t.Errorf("expected one System 2 activation, got %d", c.Statistics().System2Activations)
	}
}

func TestRunAnalogyProvider(t *testing.T) {
	provider := &stubAnalogy{solution: Text("seen this before"), confidence: 0.9}
	c := newTestConductor(WithAnalogyProvider(provider))

	out := c.Run(context.Background(), Text("a familiar shape of problem"), nil)
	if out.Approach != ApproachAnalogy {
		t.Errorf("expected analogy approach, got %q", out.Approach)
	}
	if out.Solution.Text() != "seen this before" {
		t.Errorf("expected provider solution, got %q", out.Solution.Text())
	}
	if provider.calls == 0 {
		t.Error("expected the provider to be consulted")
	}
}

func TestRunAnalogyProviderFailsClosed(t *testing.T) {
	provider := &stubAnalogy{err: errors.New("upstream down")}
	c := newTestConductor(WithAnalogyProvider(provider))

	out := c.Run(context.Background(), Text("a problem"), nil)
	if out.Solution.IsEmpty() {
		t.Error("expected a fallback solution despite provider failure")
	}
	if out.Approach == ApproachAnalogy {
		t.Error("expected the failed provider's answer to be discarded")
	}
}

func TestRunLowConfidenceAnalogyRejected(t *testing.T) {
	provider := &stubAnalogy{solution: Text("weak guess"), confidence: 0.4}
	c := newTestConductor(WithAnalogyProvider(provider))

	out := c.Run(context.Background(), Text("a problem"), nil)
	if out.Approach == ApproachAnalogy {
		t.Error("expected low-confidence analogy rejected")
	}
}

func TestRunReasoningProviderDisplacesSynthesis(t *testing.T) {
	reasoner := &stubReasoner{
		solution:   Text("carefully reasoned answer"),
		confidence: 0.95,
		trace:      []string{"considered the alternatives"},
	}
	c := newTestConductor(WithReasoningProvider(reasoner))

	out := c.Run(context.Background(),
		Text("hard part one. hard part two."),
		map[string]Content{"complexity": Scalar(0.9)})

	if out.Approach != ApproachDeliberation {
		t.Errorf("expected deliberation approach, got %q", out.Approach)
	}
	if out.Solution.Text() != "carefully reasoned answer" {
		t.Errorf("expected reasoner solution, got %q", out.Solution.Text())
	}
	found := false
	for _, line := range out.Trace {
		if line == "considered the alternatives" {
			found = true
		}
	}
	if !found {
		t.Error("expected reasoner trace carried into the outcome")
	}
}

func TestRunDecisionContext(t *testing.T) {
	c := newTestConductor()

	pctx := map[string]Content{
		"options": List(
			Structured(map[string]Content{"id": Text("alpha"), "score": Scalar(1.0)}),
			Structured(map[string]Content{"id": Text("beta"), "score": Scalar(0.0)}),
		),
		"criteria": Structured(map[string]Content{"score": Scalar(1.0)}),
	}

	out := c.Run(context.Background(), Text("which option"), pctx)
	if out.Approach != ApproachDecision {
		t.Errorf("expected decision approach, got %q", out.Approach)
	}
	selected, ok := out.Solution.Field("selected")
	if !ok || selected.Text() != "alpha" {
		t.Errorf("expected alpha selected, got %v", out.Solution)
	}

	state := c.State()
	if len(state.RecentDecisions) != 1 || state.RecentDecisions[0] != "alpha" {
		t.Errorf("expected decision recorded in state, got %v", state.RecentDecisions)
	}
}

func TestRunReturnsToIdle(t *testing.T) {
	c := newTestConductor()

	c.Run(context.Background(), Text("a passing thought"), nil)

	state := c.State()
	if state.Mode != ModeIdle {
		t.Errorf("expected idle mode after run, got %q", state.Mode)
	}
	if state.ActiveProblems != 0 {
		t.Errorf("expected no active problems, got %d", state.ActiveProblems)
	}
	if state.CognitiveLoad <= 0 {
		t.Error("expected load to reflect the stored problem")
	}
}

func TestRunLearnsConfidentSolutions(t *testing.T) {
	provider := &stubAnalogy{solution: Text("gravity pulls masses together"), confidence: 0.9}
	c := newTestConductor(WithAnalogyProvider(provider))

	c.Run(context.Background(), Text("gravity pulls objects"), nil)

	if _, ok := c.LongTerm().GetSemantic("gravity"); !ok {
		t.Error("expected confident solution consolidated into semantic memory")
	}
}

func TestRunMemoryCompletion(t *testing.T) {
	c := newTestConductor()

	// Prime episodic memory so a similar later problem completes from it.
	c.LongTerm().StoreEpisodic(context.Background(),
		Text("the cat sat on the warm mat"), EpisodeContext{})

	out := c.Run(context.Background(), Text("the cat sat on the mat"), nil)
	if out.Approach != ApproachMemory {
		t.Errorf("expected memory completion, got %q", out.Approach)
	}
	if !strings.Contains(out.Solution.Text(), "warm") {
		t.Errorf("expected the remembered content, got %q", out.Solution.Text())
	}
}

func TestStatisticsAccumulate(t *testing.T) {
	c := newTestConductor()
	ctx := context.Background()

	c.Run(ctx, Text("one"), nil)
	c.Run(ctx, Text("two"), nil)
	c.Run(ctx, Text("big. multi. part."), map[string]Content{"complexity": Scalar(0.9)})

	stats := c.Statistics()
	if stats.TotalProcessed != 3 {
		t.Errorf("expected 3 processed, got %d", stats.TotalProcessed)
	}
	if stats.System1Activations != 2 || stats.System2Activations != 1 {
		t.Errorf("unexpected system split %+v", stats)
	}
	if stats.MeanConfidence <= 0 || stats.MeanConfidence > 1 {
		t.Errorf("expected mean confidence in (0,1], got %v", stats.MeanConfidence)
	}
}

func TestConductorIdentityStable(t *testing.T) {
	c := newTestConductor()
	if c.ID() == "" {
		t.Fatal("expected a conductor ID")
	}
	if c.ID() != c.ID() {
		t.Error("expected a stable ID")
	}
	if newTestConductor().ID() == c.ID() {
		t.Error("expected distinct IDs across instances")
	}
}

func TestDecompose(t *testing.T) {
	subs := decompose(Text("one. two! three? four."), 8)
	if len(subs) != 4 {
		t.Fatalf("expected 4 sentences, got %d", len(subs))
	}
	if subs[0].Text() != "one" {
		t.Errorf("expected trimmed sentence, got %q", subs[0].Text())
	}

	subs = decompose(List(Scalar(1), Scalar(2), Scalar(3)), 2)
	if len(subs) != 2 {
		t.Errorf("expected decomposition capped at 2, got %d", len(subs))
	}

	subs = decompose(Scalar(42), 8)
	if len(subs) != 1 || subs[0].Scalar() != 42 {
		t.Errorf("expected indivisible problem kept whole, got %v", subs)
	}
}

func TestSynthesize(t *testing.T) {
	texts := []Content{Text("first"), Text("second")}
	if got := synthesize(Text("p"), texts, []float64{0.5, 0.5}); got.Text() != "first second" {
		t.Errorf("expected concatenation, got %q", got.Text())
	}

	lists := []Content{List(Scalar(1)), List(Scalar(2))}
	if got := synthesize(List(), lists, []float64{0.5, 0.5}); len(got.Items()) != 2 {
		t.Errorf("expected merged list, got %v", got)
	}

	mixed := []Content{Text("weak"), Scalar(7)}
	if got := synthesize(Text("p"), mixed, []float64{0.2, 0.9}); got.Scalar() != 7 {
		t.Errorf("expected highest-confidence pick, got %v", got)
	}
}

func TestHeuristicResponse(t *testing.T) {
	if got := heuristicResponse(List(Text("head"), Text("tail"))); got.Text() != "head" {
		t.Errorf("expected first element, got %q", got.Text())
	}
	if got := heuristicResponse(Text("echo")); got.Text() != "echo" {
		t.Errorf("expected the problem itself, got %q", got.Text())
	}
	structured := heuristicResponse(Structured(map[string]Content{"k": Text("v")}))
	if structured.Kind() != KindText {
		t.Errorf("expected rendered text for structured problems, got %v", structured.Kind())
	}
}
