package noema

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/zoobzio/capitan"
)

// Stimulus is a candidate for attention.
type Stimulus struct {
	ID        string
	Intensity float64
	Novelty   float64
	Motion    float64
	Features  map[string]Content
	Category  string
	Location  string
}

// Goal biases attention top-down. Features is an open map by design: goal
// feature sets are genuinely free-form.
type Goal struct {
	Name     string
	Priority float64
	Features map[string]Content
	Category string
	Location string
}

// Allocation is one entry of the current focus.
type Allocation struct {
	StimulusID string
	Weight     float64
	Score      float64
	Partial    bool
}

// AttentionTask describes one concurrent demand for DivideAttention.
type AttentionTask struct {
	ID         string
	Difficulty float64
	Priority   float64
}

// AttentionConfig tunes the attention mechanism.
type AttentionConfig struct {
	// Capacity bounds the total weight of the current focus.
	Capacity float64
	// BlinkDuration is the refractory window re-armed by attention switches.
	BlinkDuration time.Duration
	// VigilanceDecayRate is the multiplicative per-attend vigilance loss.
	VigilanceDecayRate float64
	// SwitchCost scales the vigilance cost of disengaging from the current
	// target, discounted by target similarity.
	SwitchCost float64
	// PartialMinimum is the smallest remaining capacity worth a partial
	// allocation.
	PartialMinimum float64
}

// DefaultAttentionConfig returns the standard parameters.
func DefaultAttentionConfig() AttentionConfig {
	return AttentionConfig{
		Capacity:           1.0,
		BlinkDuration:      500 * time.Millisecond,
		VigilanceDecayRate: 0.05,
		SwitchCost:         0.2,
		PartialMinimum:     0.1,
	}
}

// vigilanceFloor is the lowest sustained-attention level; vigilance decays
// toward it and never below.
const vigilanceFloor = 0.3

// Attention computes bottom-up saliency and top-down goal relevance over
// candidate stimuli and allocates a bounded focus. Single-writer like the
// rest of the core.
type Attention struct {
	cfg        AttentionConfig
	clock      clock.Clock
	vigilance  float64
	blinkUntil time.Time
	target     *Stimulus

	saliency  map[string]float64
	relevance map[string]float64
	focus     []Allocation
}

// NewAttention creates a mechanism with full vigilance.
func NewAttention(cfg AttentionConfig, clk clock.Clock) *Attention {
	if cfg.Capacity <= 0 {
		cfg = DefaultAttentionConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Attention{
		cfg:       cfg,
		clock:     clk,
		vigilance: 1.0,
		saliency:  make(map[string]float64),
		relevance: make(map[string]float64),
	}
}

// Attend scores the stimuli and greedily allocates focus by descending
// combined score until capacity is exhausted, allowing one final partial
// allocation when meaningful capacity remains. Inside an attentional blink
// window it returns nil immediately. Each call decays vigilance.
func (a *Attention) Attend(ctx context.Context, stimuli []Stimulus, goals []Goal) []Allocation {
	if len(stimuli) == 0 {
		return nil
	}
	now := a.clock.Now()
	if now.Before(a.blinkUntil) {
		capitan.Emit(ctx, AttentionBlinked,
			FieldItemCount.Field(len(stimuli)),
		)
		return nil
	}

	a.saliency = a.computeSaliency(stimuli)
	a.relevance = computeRelevance(stimuli, goals)

	bottomUp, topDown := 0.7, 0.3
	if len(goals) > 0 {
		bottomUp, topDown = 0.3, 0.7
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(stimuli))
	for i, s := range stimuli {
		combined := bottomUp*a.saliency[s.ID] + topDown*a.relevance[s.ID]
		ranked[i] = scored{index: i, score: combined * a.vigilance}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	a.focus = a.focus[:0]
	remaining := a.cfg.Capacity
	for _, r := range ranked {
		if r.score <= 0 || remaining <= 0 {
			break
		}
		weight := r.score
		partial := false
		if weight > remaining {
			if remaining <= a.cfg.PartialMinimum {
				break
			}
			weight = remaining
			partial = true
		}
		a.focus = append(a.focus, Allocation{
			StimulusID: stimuli[r.index].ID,
			Weight:     weight,
			Score:      r.score,
			Partial:    partial,
		})
		remaining -= weight
		if partial {
			break
		}
	}

	a.vigilance = math.Max(vigilanceFloor, a.vigilance*(1-a.cfg.VigilanceDecayRate))

	capitan.Emit(ctx, AttentionAllocated,
		FieldFocusCount.Field(len(a.focus)),
		FieldVigilance.Field(float32(a.vigilance)),
	)

	out := make([]Allocation, len(a.focus))
	copy(out, a.focus)
	return out
}

// computeSaliency blends intensity deviation from the field mean, novelty,
// motion, and pairwise intensity contrast, capped at 1.0.
func (a *Attention) computeSaliency(stimuli []Stimulus) map[string]float64 {
	mean := 0.0
	for _, s := range stimuli {
		mean += s.Intensity
	}
	mean /= float64(len(stimuli))

	out := make(map[string]float64, len(stimuli))
	for i, s := range stimuli {
		contrast := 0.0
		if len(stimuli) > 1 {
			for j, other := range stimuli {
				if j == i {
					continue
				}
				contrast += math.Abs(s.Intensity - other.Intensity)
			}
			contrast /= float64(len(stimuli) - 1)
		}
		deviation := math.Abs(s.Intensity - mean)
		out[s.ID] = math.Min(1.0,
			0.3*deviation+0.25*clamp01(s.Novelty)+0.25*clamp01(s.Motion)+0.2*contrast)
	}
	return out
}

// computeRelevance scores each stimulus as the best goal match, weighted by
// goal priority.
func computeRelevance(stimuli []Stimulus, goals []Goal) map[string]float64 {
	out := make(map[string]float64, len(stimuli))
	for _, s := range stimuli {
		best := 0.0
		for _, g := range goals {
			match := 0.0
			if len(s.Features) > 0 && len(g.Features) > 0 {
				match = 0.5 * Similarity(Structured(s.Features), Structured(g.Features))
			}
			if g.Category != "" && g.Category == s.Category {
				match += 0.3
			}
			if g.Location != "" && g.Location == s.Location {
				match += 0.2
			}
			if score := match * clamp01(g.Priority); score > best {
				best = score
			}
		}
		out[s.ID] = clamp01(best)
	}
	return out
}

// SwitchAttention moves focus to a new target. The vigilance cost shrinks
// with target similarity, and the attentional blink window re-arms.
// Returns the cost applied.
func (a *Attention) SwitchAttention(ctx context.Context, target Stimulus) float64 {
	cost := 0.0
	if a.target != nil {
		cost = a.cfg.SwitchCost * (1 - stimulusSimilarity(*a.target, target))
	}
	a.vigilance = math.Max(vigilanceFloor, a.vigilance-cost)
	a.blinkUntil = a.clock.Now().Add(a.cfg.BlinkDuration)
	copied := target
	a.target = &copied

	capitan.Emit(ctx, AttentionSwitched,
		FieldItemID.Field(target.ID),
		FieldVigilance.Field(float32(a.vigilance)),
	)
	return cost
}

func stimulusSimilarity(a, b Stimulus) float64 {
	sim := 0.0
	if len(a.Features) > 0 && len(b.Features) > 0 {
		sim += 0.5 * Similarity(Structured(a.Features), Structured(b.Features))
	}
	if a.Category != "" && a.Category == b.Category {
		sim += 0.25
	}
	if a.Location != "" && a.Location == b.Location {
		sim += 0.25
	}
	return clamp01(sim)
}

// DivideAttention splits capacity across concurrent tasks in proportion to
// demand (difficulty-weighted over priority), then applies a division
// penalty that deepens with task count.
func (a *Attention) DivideAttention(ctx context.Context, tasks []AttentionTask) map[string]float64 {
	if len(tasks) == 0 {
		return nil
	}
	total := 0.0
	for _, t := range tasks {
		total += t.Difficulty*0.6 + t.Priority*0.4
	}

	penalty := math.Max(0.4, 1-0.15*float64(len(tasks)-1))
	out := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		share := a.cfg.Capacity / float64(len(tasks))
		if total > 0 {
			share = a.cfg.Capacity * (t.Difficulty*0.6 + t.Priority*0.4) / total
		}
		out[t.ID] = share * penalty
	}

	capitan.Emit(ctx, AttentionDivided,
		FieldItemCount.Field(len(tasks)),
	)
	return out
}

// RestoreVigilance replenishes sustained attention, capped at 1.0.
func (a *Attention) RestoreVigilance(amount float64) {
	a.vigilance = math.Min(1.0, a.vigilance+amount)
}

// Vigilance returns the current sustained-attention level.
func (a *Attention) Vigilance() float64 {
	return a.vigilance
}

// CurrentFocus returns a copy of the last computed focus.
func (a *Attention) CurrentFocus() []Allocation {
	out := make([]Allocation, len(a.focus))
	copy(out, a.focus)
	return out
}

// InBlink reports whether the mechanism is inside its refractory window.
func (a *Attention) InBlink() bool {
	return a.clock.Now().Before(a.blinkUntil)
}
