package noema

import (
	"context"
	"fmt"

	"github.com/zoobzio/zyn"
)

// Provider defines the interface for LLM providers.
// This matches zyn.Provider interface for compatibility.
type Provider interface {
	Call(ctx context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error)
	Name() string
}

// ZynReasoner adapts an LLM behind zyn synapses into a ReasoningProvider.
// Deliberation runs in two phases: a Transform synapse drafts a solution,
// then a Binary synapse judges whether the draft actually addresses the
// problem. A rejected draft is still returned, at a fraction of the judged
// confidence, so the conductor can weigh it against its native heuristics.
type ZynReasoner struct {
	session *zyn.Session
	draft   *zyn.TransformSynapse
	judge   *zyn.BinarySynapse
}

// NewZynReasoner builds the two synapses over the given provider.
func NewZynReasoner(provider Provider) (*ZynReasoner, error) {
	draft, err := zyn.Transform(
		"Produce a direct, self-contained solution to the stated problem",
		provider,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform synapse: %w", err)
	}

	judge, err := zyn.Binary("Does the proposed solution address the problem?", provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create binary synapse: %w", err)
	}

	return &ZynReasoner{
		session: zyn.NewSession(),
		draft:   draft,
		judge:   judge,
	}, nil
}

// Deliberate drafts and judges a solution for the problem.
func (r *ZynReasoner) Deliberate(ctx context.Context, problem Content) (Deliberation, error) {
	rendered := Render(problem)

	solution, err := r.draft.FireWithInput(ctx, r.session, zyn.TransformInput{
		Text:        rendered,
		Style:       "Answer plainly. State the solution first, then any essential caveats.",
		Temperature: zyn.DefaultTemperatureDeterministic,
	})
	if err != nil {
		return Deliberation{}, fmt.Errorf("transform synapse execution failed: %w", err)
	}

	verdict, err := r.judge.FireWithInput(ctx, r.session, zyn.BinaryInput{
		Subject:     solution,
		Context:     rendered,
		Temperature: zyn.DefaultTemperatureDeterministic,
	})
	if err != nil {
		return Deliberation{}, fmt.Errorf("binary synapse execution failed: %w", err)
	}

	confidence := float64(verdict.Confidence)
	if !verdict.Decision {
		confidence *= 0.25
	}
	return Deliberation{
		Solution:   Text(solution),
		Confidence: confidence,
		Trace:      verdict.Reasoning,
	}, nil
}
