package noema

import (
	"context"
	"testing"
)

func TestAnalogyContextRoundTrip(t *testing.T) {
	provider := &stubAnalogy{solution: Text("override"), confidence: 0.9}

	ctx := WithAnalogyCtx(context.Background(), provider)
	got, ok := AnalogyFromContext(ctx)
	if !ok {
		t.Fatal("expected provider from context")
	}
	if got != AnalogyProvider(provider) {
		t.Error("expected the same provider back")
	}

	if _, ok := AnalogyFromContext(context.Background()); ok {
		t.Error("expected no provider on a bare context")
	}
}

func TestReasoningContextRoundTrip(t *testing.T) {
	provider := &stubReasoner{solution: Text("override"), confidence: 0.9}

	ctx := WithReasoningCtx(context.Background(), provider)
	got, ok := ReasoningFromContext(ctx)
	if !ok {
		t.Fatal("expected provider from context")
	}
	if got != ReasoningProvider(provider) {
		t.Error("expected the same provider back")
	}
}

func TestContextProviderOverridesOwn(t *testing.T) {
	own := &stubAnalogy{solution: Text("own answer"), confidence: 0.9}
	override := &stubAnalogy{solution: Text("override answer"), confidence: 0.9}

	c := newTestConductor(WithAnalogyProvider(own))
	ctx := WithAnalogyCtx(context.Background(), override)

	out := c.Run(ctx, Text("a problem"), nil)
	if out.Solution.Text() != "override answer" {
		t.Errorf("expected the per-call override to win, got %q", out.Solution.Text())
	}
	if own.calls != 0 {
		t.Error("expected the conductor's own provider to be bypassed")
	}
}

func TestConductorOwnProviderIsFallback(t *testing.T) {
	own := &stubAnalogy{solution: Text("own answer"), confidence: 0.9}
	c := newTestConductor(WithAnalogyProvider(own))

	out := c.Run(context.Background(), Text("a problem"), nil)
	if out.Solution.Text() != "own answer" {
		t.Errorf("expected the conductor's provider, got %q", out.Solution.Text())
	}
}

func TestContextReasonerOverride(t *testing.T) {
	override := &stubReasoner{solution: Text("per-call reasoning"), confidence: 0.95}

	c := newTestConductor()
	ctx := WithReasoningCtx(context.Background(), override)

	out := c.Run(ctx, Text("part one. part two."),
		map[string]Content{"complexity": Scalar(0.9)})
	if out.Approach != ApproachDeliberation {
		t.Errorf("expected deliberation via override, got %q", out.Approach)
	}
	if override.calls == 0 {
		t.Error("expected the override reasoner consulted")
	}
}
