package noema

import "context"

// Analogy is a pattern-matched prior solution offered by an external
// provider, the fast path of System 1.
type Analogy struct {
	Solution   Content
	Confidence float64
	Matches    []string
}

// AnalogyProvider supplies analogical answers. A missing provider is not an
// error; the conductor treats absence as "no analogy available" and moves on
// to its native heuristics.
type AnalogyProvider interface {
	Reason(ctx context.Context, problem Content) (Analogy, error)
}

// Deliberation is a slow, reasoned answer with its trace.
type Deliberation struct {
	Solution   Content
	Confidence float64
	Trace      []string
}

// ReasoningProvider supplements System 2 deliberation. Same availability
// contract as AnalogyProvider.
type ReasoningProvider interface {
	Deliberate(ctx context.Context, problem Content) (Deliberation, error)
}

// Context keys for per-call provider overrides. There is deliberately no
// process-wide fallback: each conductor owns its providers explicitly.
type analogyKeyType struct{}
type reasoningKeyType struct{}

var (
	analogyKey   = analogyKeyType{}
	reasoningKey = reasoningKeyType{}
)

// WithAnalogyCtx overrides the analogy provider for a single call tree.
func WithAnalogyCtx(ctx context.Context, p AnalogyProvider) context.Context {
	return context.WithValue(ctx, analogyKey, p)
}

// AnalogyFromContext retrieves a per-call analogy provider, if present.
func AnalogyFromContext(ctx context.Context) (AnalogyProvider, bool) {
	p, ok := ctx.Value(analogyKey).(AnalogyProvider)
	return p, ok
}

// WithReasoningCtx overrides the reasoning provider for a single call tree.
func WithReasoningCtx(ctx context.Context, p ReasoningProvider) context.Context {
	return context.WithValue(ctx, reasoningKey, p)
}

// ReasoningFromContext retrieves a per-call reasoning provider, if present.
func ReasoningFromContext(ctx context.Context) (ReasoningProvider, bool) {
	p, ok := ctx.Value(reasoningKey).(ReasoningProvider)
	return p, ok
}

// resolveAnalogy prefers the per-call override over the conductor's own.
func resolveAnalogy(ctx context.Context, own AnalogyProvider) AnalogyProvider {
	if p, ok := AnalogyFromContext(ctx); ok {
		return p
	}
	return own
}

// resolveReasoning prefers the per-call override over the conductor's own.
func resolveReasoning(ctx context.Context, own ReasoningProvider) ReasoningProvider {
	if p, ok := ReasoningFromContext(ctx); ok {
		return p
	}
	return own
}
