package noema

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/benbjohnson/clock"
)

func newTestMeta(epsilon float64) *MetaCognition {
	cfg := MetaConfig{HistoryLimit: 100, Epsilon: epsilon}
	return NewMetaCognition(cfg, clock.NewMock(), rand.New(rand.NewSource(1)))
}

func TestMonitorPerformanceBaseline(t *testing.T) {
	ctx := context.Background()
	mc := newTestMeta(0.1)

	m := mc.MonitorPerformance(ctx, "classify", Text("a plausible answer"), nil)

	// No history: 0.5 x neutral 0.5 + 0.5 x text plausibility 0.7.
	if math.Abs(m.Confidence-0.6) > 1e-9 {
		t.Errorf("expected confidence 0.6, got %v", m.Confidence)
	}
	if math.Abs(m.FeelingOfKnowing-(1-math.Exp(-0.5))) > 1e-9 {
		t.Errorf("expected first-exposure FOK, got %v", m.FeelingOfKnowing)
	}
	if m.Accuracy != nil {
		t.Error("expected no accuracy without expected output")
	}
}

func TestFeelingOfKnowingGrows(t *testing.T) {
	ctx := context.Background()
	mc := newTestMeta(0.1)

	prev := -1.0
	for i := 0; i < 5; i++ {
		m := mc.MonitorPerformance(ctx, "recall", Text("answer"), nil)
		if m.FeelingOfKnowing <= prev {
			t.Errorf("expected FOK to grow with exposure, got %v after %v", m.FeelingOfKnowing, prev)
		}
		prev = m.FeelingOfKnowing
	}
}

func TestConfidenceSuppressedUnderLoad(t *testing.T) {
	ctx := context.Background()
	mc := newTestMeta(0.1)

	unloaded := mc.MonitorPerformance(ctx, "a", Text("same answer"), nil)

	mc.SetCognitiveLoad(1.0)
	loaded := mc.MonitorPerformance(ctx, "b", Text("same answer"), nil)

	if loaded.Confidence >= unloaded.Confidence {
		t.Errorf("expected load to suppress confidence, got %v vs %v",
			loaded.Confidence, unloaded.Confidence)
	}
	if math.Abs(loaded.Confidence-unloaded.Confidence*0.7) > 1e-9 {
		t.Errorf("expected 30%% suppression at full load, got %v", loaded.Confidence)
	}
}

func TestAssessAccuracy(t *testing.T) {
	ctx := context.Background()
	mc := newTestMeta(0.1)

	exact := Text("identical")
	m := mc.MonitorPerformance(ctx, "t", Text("identical"), &exact)
	if m.Accuracy == nil || *m.Accuracy != 1 {
		t.Errorf("expected perfect accuracy for identity, got %v", m.Accuracy)
	}

	wantScalar := Scalar(1.0)
	m = mc.MonitorPerformance(ctx, "t", Scalar(0.5), &wantScalar)
	if m.Accuracy == nil || math.Abs(*m.Accuracy-0.5) > 1e-9 {
		t.Errorf("expected relative-error accuracy 0.5, got %v", m.Accuracy)
	}

	wantText := Text("bat")
	m = mc.MonitorPerformance(ctx, "t", Text("cat"), &wantText)
	if m.Accuracy == nil || math.Abs(*m.Accuracy-2.0/3.0) > 1e-9 {
		t.Errorf("expected edit-distance accuracy 2/3, got %v", m.Accuracy)
	}
}

func TestRegulateRecalibrates(t *testing.T) {
	ctx := context.Background()
	mc := newTestMeta(0.1)

	// Confidently wrong, over and over: scalar outputs far from expected.
	expected := Scalar(10.0)
	for i := 0; i < 10; i++ {
		mc.MonitorPerformance(ctx, "estimate", Scalar(0.0), &expected)
	}

	if mc.CalibrationError() <= 0.2 {
		t.Fatalf("expected systematic overconfidence, got %v", mc.CalibrationError())
	}

	before := mc.MonitorPerformance(ctx, "estimate", Scalar(0.0), &expected).Confidence

	actions := mc.Regulate(ctx)
	found := map[string]bool{}
	for _, a := range actions {
		found[a.Action] = true
	}
	if !found[ActionRecalibrate] {
		t.Error("expected recalibration action")
	}
	if !found[ActionSwitchStrategy] {
		t.Error("expected strategy switch on a losing streak")
	}

	after := mc.MonitorPerformance(ctx, "estimate", Scalar(0.0), &expected).Confidence
	if after >= before {
		t.Errorf("expected bias shift to lower confidence, got %v vs %v", after, before)
	}
}

func TestRegulateLoadAndConfidence(t *testing.T) {
	ctx := context.Background()
	mc := newTestMeta(0.1)

	mc.SetCognitiveLoad(1.0)
	m := mc.MonitorPerformance(ctx, "t", Empty(), nil)
	if m.Confidence >= 0.3 {
		t.Fatalf("expected low confidence for empty output under load, got %v", m.Confidence)
	}

	actions := mc.Regulate(ctx)
	found := map[string]bool{}
	for _, a := range actions {
		found[a.Action] = true
	}
	if !found[ActionDeepenDeliberation] {
		t.Error("expected deepen deliberation after low confidence")
	}
	if !found[ActionReduceLoad] {
		t.Error("expected load shedding near capacity")
	}
}

func TestSelectStrategy(t *testing.T) {
	mc := newTestMeta(0) // never explore

	mc.RecordStrategyOutcome("reliable", 0.9, 0.1)
	mc.RecordStrategyOutcome("reliable", 0.8, 0.1)
	mc.RecordStrategyOutcome("sloppy", 0.2, 0.5)

	got := mc.SelectStrategy([]string{"sloppy", "reliable", "untried"})
	if got != "reliable" {
		t.Errorf("expected best observed strategy, got %q", got)
	}

	// Unseen candidates carry the optimistic default and beat known losers.
	got = mc.SelectStrategy([]string{"sloppy", "untried"})
	if got != "untried" {
		t.Errorf("expected optimistic default to win, got %q", got)
	}

	if got := mc.SelectStrategy(nil); got != "" {
		t.Errorf("expected empty result for no candidates, got %q", got)
	}
}

func TestDetectErrors(t *testing.T) {
	mc := newTestMeta(0.1)

	scalarKind := KindScalar
	min, max := 0.0, 1.0
	constraints := []Constraint{
		{Field: "answer", Required: true},
		{Field: "score", Kind: &scalarKind, Min: &min, Max: &max},
	}

	output := Structured(map[string]Content{
		"score": Scalar(1.5),
	})
	errs := mc.DetectErrors(output, constraints)

	types := map[string]bool{}
	for _, e := range errs {
		types[e.Type] = true
	}
	if !types["missing_field"] {
		t.Error("expected missing required field detected")
	}
	if !types["out_of_range"] {
		t.Error("expected out-of-range scalar detected")
	}
}

func TestDetectErrorsNumericSanity(t *testing.T) {
	mc := newTestMeta(0.1)

	output := Structured(map[string]Content{
		"values": List(Scalar(1.0), Scalar(math.NaN())),
	})
	errs := mc.DetectErrors(output, nil)

	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Type != "invalid_number" || errs[0].Severity != 1.0 {
		t.Errorf("unexpected error %+v", errs[0])
	}
}

func TestDetectErrorsClean(t *testing.T) {
	mc := newTestMeta(0.1)

	output := Structured(map[string]Content{
		"answer": Text("all good"),
		"score":  Scalar(0.5),
	})
	scalarKind := KindScalar
	constraints := []Constraint{
		{Field: "answer", Required: true},
		{Field: "score", Kind: &scalarKind},
	}

	if errs := mc.DetectErrors(output, constraints); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}
