package noema

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/zoobzio/capitan"
)

// Strategy names a decision procedure.
type Strategy string

const (
	// StrategyOptimal evaluates every alternative exhaustively and selects
	// the maximum-utility one.
	StrategyOptimal Strategy = "optimal"
	// StrategySatisficing accepts the first alternative clearing the
	// aspiration threshold, falling back to the best seen when none does.
	StrategySatisficing Strategy = "satisficing"
	// StrategyHeuristic applies recognition and take-the-best shortcuts.
	StrategyHeuristic Strategy = "heuristic"
	// StrategyAdaptive routes to one of the above by problem size and
	// deliberation cost.
	StrategyAdaptive Strategy = "adaptive"
)

// Alternative is one option under consideration. Values maps criterion names
// to raw scores. Probability, when set, is the chance the alternative pays
// off; Delay is how far away its payoff sits, in abstract time units.
type Alternative struct {
	ID          string
	Values      map[string]float64
	Probability *float64
	Delay       float64
	Recognized  bool
}

// Criterion weights one dimension of comparison. AspirationLevel, when set,
// is the reference point for framing gains and losses (defaults to the
// normalized midpoint).
type Criterion struct {
	Name            string
	Weight          float64
	AspirationLevel *float64
}

// Objective names a dimension for Pareto filtering.
type Objective struct {
	Name     string
	Maximize bool
}

// Decision is the outcome of a Decide call.
type Decision struct {
	SelectedID       string
	Utility          float64
	Confidence       float64
	Strategy         Strategy
	AllUtilities     map[string]float64
	DeliberationTime time.Duration
}

// DecisionConfig tunes the decision maker.
type DecisionConfig struct {
	// SatisficingThreshold is the utility an alternative must clear to be
	// accepted without further search.
	SatisficingThreshold float64
	// DiscountRate controls hyperbolic discounting of delayed payoffs.
	DiscountRate float64
	// LearningRate steps risk tolerance after outcome evaluations.
	LearningRate float64
	// DeliberationBudget caps the adaptive strategy's tolerated evaluation
	// cost before it downgrades to satisficing.
	DeliberationBudget float64
}

// DefaultDecisionConfig returns the standard parameters.
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		SatisficingThreshold: 0.7,
		DiscountRate:         1.0,
		LearningRate:         0.1,
		DeliberationBudget:   1.0,
	}
}

// Prospect theory constants (Tversky & Kahneman 1992).
const (
	prospectExponent = 0.88
	lossAversion     = 2.25
	probabilityGamma = 0.61
	neutralReference = 0.5
)

type decisionRecord struct {
	decision  Decision
	utilities map[string]float64
	evaluated bool
}

// DecisionMaker selects among alternatives under bounded rationality.
// Utilities follow prospect theory value and probability weighting, with
// hyperbolic discounting of delay and a risk adjustment driven by adaptive
// risk tolerance. Not safe for concurrent use.
type DecisionMaker struct {
	cfg           DecisionConfig
	clock         clock.Clock
	rng           *rand.Rand
	riskTolerance float64
	history       []decisionRecord
}

// NewDecisionMaker creates a decision maker with neutral risk tolerance.
// A nil rng seeds one from the clock.
func NewDecisionMaker(cfg DecisionConfig, clk clock.Clock, rng *rand.Rand) *DecisionMaker {
	if cfg.SatisficingThreshold <= 0 {
		cfg = DefaultDecisionConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(clk.Now().UnixNano()))
	}
	return &DecisionMaker{
		cfg:           cfg,
		clock:         clk,
		rng:           rng,
		riskTolerance: 0.5,
	}
}

// RiskTolerance returns the current appetite for variance, in [0,1].
func (dm *DecisionMaker) RiskTolerance() float64 {
	return dm.riskTolerance
}

// Decide selects an alternative under the given strategy. Returns false on
// degenerate input (no alternatives or no criteria); it never errors, the
// caller always gets an answer or an explicit refusal.
func (dm *DecisionMaker) Decide(ctx context.Context, alternatives []Alternative, criteria []Criterion, strategy Strategy) (Decision, bool) {
	if len(alternatives) == 0 || len(criteria) == 0 {
		return Decision{}, false
	}
	start := dm.clock.Now()

	if strategy == StrategyAdaptive {
		strategy = dm.routeAdaptive(len(alternatives), len(criteria))
	}

	var d Decision
	switch strategy {
	case StrategyHeuristic:
		d = dm.decideHeuristic(alternatives, criteria)
	case StrategySatisficing:
		d = dm.decideSatisficing(alternatives, criteria)
	default:
		d = dm.decideOptimal(alternatives, criteria)
	}
	d.DeliberationTime = dm.clock.Now().Sub(start)

	dm.history = append(dm.history, decisionRecord{
		decision:  d,
		utilities: d.AllUtilities,
	})

	capitan.Emit(ctx, DecisionMade,
		FieldSelected.Field(d.SelectedID),
		FieldStrategy.Field(string(d.Strategy)),
		FieldUtility.Field(float32(d.Utility)),
		FieldConfidence.Field(float32(d.Confidence)),
	)
	return d, true
}

// routeAdaptive picks a concrete strategy by problem size: tiny problems go
// to heuristics, moderate ones satisfice, and the rest weigh full evaluation
// cost against the deliberation budget.
func (dm *DecisionMaker) routeAdaptive(alternatives, criteria int) Strategy {
	switch {
	case alternatives <= 3 && criteria <= 2:
		return StrategyHeuristic
	case alternatives <= 10 && criteria <= 5:
		return StrategySatisficing
	default:
		cost := float64(alternatives) * float64(criteria) * 0.01
		if cost > dm.cfg.DeliberationBudget {
			return StrategySatisficing
		}
		return StrategyOptimal
	}
}

func (dm *DecisionMaker) decideOptimal(alternatives []Alternative, criteria []Criterion) Decision {
	utilities := dm.computeUtilities(alternatives, criteria)

	bestID := ""
	best, second := math.Inf(-1), math.Inf(-1)
	for _, alt := range alternatives {
		u := utilities[alt.ID]
		if u > best {
			second = best
			best, bestID = u, alt.ID
		} else if u > second {
			second = u
		}
	}
	confidence := best
	if !math.IsInf(second, -1) {
		confidence = clamp01(0.5 + (best - second))
	}
	return Decision{
		SelectedID:   bestID,
		Utility:      best,
		Confidence:   confidence,
		Strategy:     StrategyOptimal,
		AllUtilities: utilities,
	}
}

// decideSatisficing scans alternatives in random order and accepts the
// first one clearing the threshold. When nothing satisfices it falls back
// to the exhaustive choice.
func (dm *DecisionMaker) decideSatisficing(alternatives []Alternative, criteria []Criterion) Decision {
	utilities := dm.computeUtilities(alternatives, criteria)

	for _, i := range dm.rng.Perm(len(alternatives)) {
		alt := alternatives[i]
		u := utilities[alt.ID]
		if u >= dm.cfg.SatisficingThreshold {
			return Decision{
				SelectedID:   alt.ID,
				Utility:      u,
				Confidence:   u,
				Strategy:     StrategySatisficing,
				AllUtilities: utilities,
			}
		}
	}
	d := dm.decideOptimal(alternatives, criteria)
	d.Strategy = StrategySatisficing
	return d
}

// decideHeuristic applies the recognition heuristic first (pick the sole
// recognized alternative if exactly one is), then take-the-best: walk
// criteria by descending weight, stop at the first one whose values
// discriminate, and select its leader. A random pick is the last resort.
func (dm *DecisionMaker) decideHeuristic(alternatives []Alternative, criteria []Criterion) Decision {
	utilities := dm.computeUtilities(alternatives, criteria)

	if id, ok := soleRecognized(alternatives); ok {
		return Decision{
			SelectedID:   id,
			Utility:      utilities[id],
			Confidence:   0.8,
			Strategy:     StrategyHeuristic,
			AllUtilities: utilities,
		}
	}

	ordered := make([]Criterion, len(criteria))
	copy(ordered, criteria)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})

	for _, c := range ordered {
		if !discriminates(alternatives, c.Name) {
			continue
		}
		bestID, best := "", math.Inf(-1)
		for _, alt := range alternatives {
			if v := alt.Values[c.Name]; v > best {
				best, bestID = v, alt.ID
			}
		}
		return Decision{
			SelectedID:   bestID,
			Utility:      utilities[bestID],
			Confidence:   0.75,
			Strategy:     StrategyHeuristic,
			AllUtilities: utilities,
		}
	}

	selected := alternatives[dm.rng.Intn(len(alternatives))].ID
	return Decision{
		SelectedID:   selected,
		Utility:      utilities[selected],
		Confidence:   0.5,
		Strategy:     StrategyHeuristic,
		AllUtilities: utilities,
	}
}

// discriminates reports whether a criterion's values differ across the set.
func discriminates(alternatives []Alternative, criterion string) bool {
	first := alternatives[0].Values[criterion]
	for _, alt := range alternatives[1:] {
		if alt.Values[criterion] != first {
			return true
		}
	}
	return false
}

func soleRecognized(alternatives []Alternative) (string, bool) {
	id, count := "", 0
	for _, alt := range alternatives {
		if alt.Recognized {
			id = alt.ID
			count++
		}
	}
	return id, count == 1
}

// computeUtilities evaluates every alternative: criterion values are
// min-max normalized across the choice set, framed through the prospect
// value function around each criterion's reference point, weight-averaged,
// then adjusted for probability weighting, delay discounting, and risk.
func (dm *DecisionMaker) computeUtilities(alternatives []Alternative, criteria []Criterion) map[string]float64 {
	normalized := normalizeValues(alternatives, criteria)

	out := make(map[string]float64, len(alternatives))
	for _, alt := range alternatives {
		norms := normalized[alt.ID]

		sum, totalWeight := 0.0, 0.0
		for _, c := range criteria {
			ref := neutralReference
			if c.AspirationLevel != nil {
				ref = clamp01(*c.AspirationLevel)
			}
			sum += prospectValue(norms[c.Name], ref) * c.Weight
			totalWeight += c.Weight
		}
		u := neutralReference
		if totalWeight > 0 {
			u = sum / totalWeight
		}

		if alt.Probability != nil {
			u *= weightProbability(clamp01(*alt.Probability))
		}
		if alt.Delay > 0 {
			u /= 1 + dm.cfg.DiscountRate*alt.Delay
		}

		risk := stddev(norms)
		u *= 1 - risk*(1-dm.riskTolerance)

		out[alt.ID] = clamp01(u)
	}
	return out
}

// normalizeValues min-max scales each criterion across the choice set. A
// criterion with no spread maps to the neutral midpoint.
func normalizeValues(alternatives []Alternative, criteria []Criterion) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(alternatives))
	for _, alt := range alternatives {
		out[alt.ID] = make(map[string]float64, len(criteria))
	}
	for _, c := range criteria {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, alt := range alternatives {
			v := alt.Values[c.Name]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		for _, alt := range alternatives {
			if hi == lo {
				out[alt.ID][c.Name] = neutralReference
				continue
			}
			out[alt.ID][c.Name] = (alt.Values[c.Name] - lo) / (hi - lo)
		}
	}
	return out
}

// prospectValue frames a normalized score as a gain or loss relative to the
// reference point, applies the asymmetric value function, and maps the
// result back into [0,1].
func prospectValue(normalized, reference float64) float64 {
	d := normalized - reference
	var v float64
	if d >= 0 {
		v = math.Pow(d, prospectExponent)
	} else {
		v = -lossAversion * math.Pow(-d, prospectExponent)
	}
	return clamp01(reference + v)
}

// weightProbability applies the inverse-S probability weighting curve:
// small chances are overweighted, large ones underweighted.
func weightProbability(p float64) float64 {
	if p == 0 || p == 1 {
		return p
	}
	num := math.Pow(p, probabilityGamma)
	den := math.Pow(num+math.Pow(1-p, probabilityGamma), 1/probabilityGamma)
	return num / den
}

func stddev(values map[string]float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// FindParetoOptimal returns the alternatives not dominated on the given
// objectives: no other alternative is at least as good on all objectives
// and strictly better on one.
func FindParetoOptimal(alternatives []Alternative, objectives []Objective) []Alternative {
	if len(objectives) == 0 {
		return nil
	}
	frontier := make([]Alternative, 0, len(alternatives))
	for i, a := range alternatives {
		dominated := false
		for j, b := range alternatives {
			if i == j {
				continue
			}
			if dominates(b, a, objectives) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, a)
		}
	}
	return frontier
}

func dominates(a, b Alternative, objectives []Objective) bool {
	strictlyBetter := false
	for _, o := range objectives {
		av, bv := a.Values[o.Name], b.Values[o.Name]
		if !o.Maximize {
			av, bv = -av, -bv
		}
		if av < bv {
			return false
		}
		if av > bv {
			strictlyBetter = true
		}
	}
	return strictlyBetter
}

// EvaluateDecision feeds back the realized outcome of the most recent
// unevaluated decision. Regret is the best foregone utility over the
// outcome; risk tolerance steps down after disappointments and creeps up
// after successes. Returns the regret, or false when there is nothing to
// evaluate.
func (dm *DecisionMaker) EvaluateDecision(ctx context.Context, outcome, expected float64) (float64, bool) {
	var rec *decisionRecord
	for i := len(dm.history) - 1; i >= 0; i-- {
		if !dm.history[i].evaluated {
			rec = &dm.history[i]
			break
		}
	}
	if rec == nil {
		return 0, false
	}
	rec.evaluated = true

	bestForegone := 0.0
	for id, u := range rec.utilities {
		if id != rec.decision.SelectedID && u > bestForegone {
			bestForegone = u
		}
	}
	regret := math.Max(0, bestForegone-outcome)

	if outcome < expected {
		dm.riskTolerance -= dm.cfg.LearningRate
	} else {
		dm.riskTolerance += dm.cfg.LearningRate * 0.5
	}
	dm.riskTolerance = clamp01(dm.riskTolerance)

	capitan.Emit(ctx, DecisionEvaluated,
		FieldSelected.Field(rec.decision.SelectedID),
		FieldUtility.Field(float32(outcome)),
		FieldConfidence.Field(float32(dm.riskTolerance)),
	)
	return regret, true
}

// History returns copies of past decisions, oldest first.
func (dm *DecisionMaker) History() []Decision {
	out := make([]Decision, len(dm.history))
	for i, rec := range dm.history {
		out[i] = rec.decision
	}
	return out
}
