package noema

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/zoobzio/capitan"
)

// Monitoring is the result of observing one cognitive output.
type Monitoring struct {
	TaskType         string
	Confidence       float64
	FeelingOfKnowing float64
	// Accuracy is set only when an expected output was supplied.
	Accuracy  *float64
	Timestamp time.Time
}

// RegulatoryAction recommends one adjustment to ongoing processing.
type RegulatoryAction struct {
	Action    string
	Reason    string
	Magnitude float64
}

// Regulatory action names issued by Regulate.
const (
	ActionDeepenDeliberation = "deepen_deliberation"
	ActionReduceLoad         = "reduce_load"
	ActionSwitchStrategy     = "switch_strategy"
	ActionRecalibrate        = "recalibrate"
)

// Constraint describes one validity requirement for DetectErrors. Field
// selects a structured field ("" means the output itself). Kind, Min, and
// Max are checked only when set.
type Constraint struct {
	Field    string
	Required bool
	Kind     *ContentKind
	Min      *float64
	Max      *float64
}

// DetectedError is one constraint violation found in an output.
type DetectedError struct {
	Type     string
	Severity float64
	Message  string
}

// MetaConfig tunes the metacognitive monitor.
type MetaConfig struct {
	// HistoryLimit bounds the monitoring record ring.
	HistoryLimit int
	// Epsilon is the exploration rate of strategy selection.
	Epsilon float64
}

// DefaultMetaConfig returns the standard parameters.
func DefaultMetaConfig() MetaConfig {
	return MetaConfig{
		HistoryLimit: 100,
		Epsilon:      0.1,
	}
}

type strategyStats struct {
	uses     int
	accuracy float64
	cost     float64
}

// MetaCognition monitors cognitive performance, estimates confidence and
// feeling-of-knowing, tracks calibration, and issues regulatory actions.
// Not safe for concurrent use.
type MetaCognition struct {
	cfg   MetaConfig
	clock clock.Clock
	rng   *rand.Rand

	records     []Monitoring
	encounters  map[string]int
	calibration []float64
	strategies  map[string]*strategyStats
	load        float64
	bias        float64
}

// NewMetaCognition creates a monitor. A nil rng seeds one from the clock.
func NewMetaCognition(cfg MetaConfig, clk clock.Clock, rng *rand.Rand) *MetaCognition {
	if cfg.HistoryLimit <= 0 {
		cfg = DefaultMetaConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(clk.Now().UnixNano()))
	}
	return &MetaCognition{
		cfg:        cfg,
		clock:      clk,
		rng:        rng,
		encounters: make(map[string]int),
		strategies: make(map[string]*strategyStats),
	}
}

// SetCognitiveLoad updates the current load estimate, clamped to [0,1].
// High load suppresses confidence.
func (mc *MetaCognition) SetCognitiveLoad(load float64) {
	mc.load = clamp01(load)
}

// CognitiveLoad returns the current load estimate.
func (mc *MetaCognition) CognitiveLoad() float64 {
	return mc.load
}

// MonitorPerformance estimates confidence and feeling-of-knowing for an
// output. Confidence blends historical accuracy on the task type with output
// plausibility and the calibration bias, suppressed under load. When an
// expected output is supplied, accuracy is assessed and the residual feeds
// calibration tracking.
func (mc *MetaCognition) MonitorPerformance(ctx context.Context, taskType string, output Content, expected *Content) Monitoring {
	mc.encounters[taskType]++

	hist := mc.historicalAccuracy(taskType, 0)
	confidence := clamp01((0.5*hist + 0.5*plausibility(output) + mc.bias) * (1 - 0.3*mc.load))

	// Feeling-of-knowing saturates with exposure and gets a recency boost
	// from the last few assessed outcomes on this task.
	fok := 1 - math.Exp(-0.5*float64(mc.encounters[taskType]))
	fok = clamp01(fok + 0.2*(mc.historicalAccuracy(taskType, 5)-0.5))

	m := Monitoring{
		TaskType:         taskType,
		Confidence:       confidence,
		FeelingOfKnowing: fok,
		Timestamp:        mc.clock.Now(),
	}
	if expected != nil {
		acc := assessAccuracy(output, *expected)
		m.Accuracy = &acc
		mc.calibration = append(mc.calibration, confidence-acc)
	}

	mc.records = append(mc.records, m)
	if len(mc.records) > mc.cfg.HistoryLimit {
		mc.records = mc.records[len(mc.records)-mc.cfg.HistoryLimit:]
	}

	capitan.Emit(ctx, PerformanceMonitored,
		FieldTaskType.Field(taskType),
		FieldConfidence.Field(float32(confidence)),
		FieldLoad.Field(float32(mc.load)),
	)
	return m
}

// historicalAccuracy averages assessed accuracy for a task type over the
// most recent n records (0 means all). Returns the neutral 0.5 when no
// assessed record exists.
func (mc *MetaCognition) historicalAccuracy(taskType string, n int) float64 {
	sum, count := 0.0, 0
	for i := len(mc.records) - 1; i >= 0; i-- {
		r := mc.records[i]
		if r.TaskType != taskType || r.Accuracy == nil {
			continue
		}
		sum += *r.Accuracy
		count++
		if n > 0 && count == n {
			break
		}
	}
	if count == 0 {
		return 0.5
	}
	return sum / float64(count)
}

// plausibility is a cheap structural sanity score for an output.
func plausibility(c Content) float64 {
	switch c.Kind() {
	case KindEmpty:
		return 0.1
	case KindScalar:
		v := c.Scalar()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return 0.8
	case KindText:
		if len(Tokens(c.Text())) == 0 {
			return 0.2
		}
		return 0.7
	default:
		return clamp01(0.5 + 0.05*float64(Size(c)))
	}
}

// assessAccuracy compares an output against the expected content: identity
// is perfect, scalars compare by relative error, text by edit distance,
// and everything else falls back to structural similarity.
func assessAccuracy(output, expected Content) float64 {
	if output.Equal(expected) {
		return 1
	}
	switch {
	case output.Kind() == KindScalar && expected.Kind() == KindScalar:
		denom := math.Max(math.Abs(expected.Scalar()), 1)
		return clamp01(1 - math.Abs(output.Scalar()-expected.Scalar())/denom)
	case output.Kind() == KindText && expected.Kind() == KindText:
		maxLen := len(output.Text())
		if len(expected.Text()) > maxLen {
			maxLen = len(expected.Text())
		}
		if maxLen == 0 {
			return 1
		}
		return clamp01(1 - float64(editDistance(output.Text(), expected.Text()))/float64(maxLen))
	default:
		return Similarity(output, expected)
	}
}

// editDistance is the Levenshtein distance, two-row rolling.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// RecordStrategyOutcome feeds back one use of a named strategy.
func (mc *MetaCognition) RecordStrategyOutcome(name string, accuracy, cost float64) {
	s, ok := mc.strategies[name]
	if !ok {
		s = &strategyStats{}
		mc.strategies[name] = s
	}
	s.uses++
	s.accuracy += accuracy
	s.cost += cost
}

// SelectStrategy picks among candidates epsilon-greedily: usually the one
// with the best observed accuracy-minus-cost value, occasionally a random
// exploration. Unseen candidates carry an optimistic default.
func (mc *MetaCognition) SelectStrategy(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if mc.rng.Float64() < mc.cfg.Epsilon {
		return candidates[mc.rng.Intn(len(candidates))]
	}
	best, bestValue := candidates[0], math.Inf(-1)
	for _, name := range candidates {
		value := 0.5
		if s, ok := mc.strategies[name]; ok && s.uses > 0 {
			value = s.accuracy/float64(s.uses) - 0.2*s.cost/float64(s.uses)
		}
		if value > bestValue {
			best, bestValue = name, value
		}
	}
	return best
}

// Regulate inspects recent monitoring and returns recommended adjustments:
// deepen deliberation after low confidence, shed load when near capacity,
// switch strategy on a losing streak, and recalibrate on systematic
// over- or under-confidence. Recalibration also shifts the internal bias
// toward zero residual.
func (mc *MetaCognition) Regulate(ctx context.Context) []RegulatoryAction {
	var actions []RegulatoryAction

	if n := len(mc.records); n > 0 && mc.records[n-1].Confidence < 0.3 {
		actions = append(actions, RegulatoryAction{
			Action:    ActionDeepenDeliberation,
			Reason:    "confidence below engagement floor",
			Magnitude: 0.3 - mc.records[n-1].Confidence,
		})
	}
	if mc.load > 0.8 {
		actions = append(actions, RegulatoryAction{
			Action:    ActionReduceLoad,
			Reason:    "cognitive load near capacity",
			Magnitude: mc.load - 0.8,
		})
	}
	if acc, ok := mc.trailingAccuracy(10); ok && acc < 0.5 {
		actions = append(actions, RegulatoryAction{
			Action:    ActionSwitchStrategy,
			Reason:    "trailing accuracy below chance",
			Magnitude: 0.5 - acc,
		})
	}
	if residual := mc.CalibrationError(); math.Abs(residual) > 0.2 {
		mc.bias -= residual * 0.5
		if mc.bias < -0.2 {
			mc.bias = -0.2
		}
		if mc.bias > 0.3 {
			mc.bias = 0.3
		}
		actions = append(actions, RegulatoryAction{
			Action:    ActionRecalibrate,
			Reason:    "systematic confidence miscalibration",
			Magnitude: math.Abs(residual),
		})
	}

	capitan.Emit(ctx, RegulationIssued,
		FieldActionCount.Field(len(actions)),
		FieldLoad.Field(float32(mc.load)),
	)
	return actions
}

func (mc *MetaCognition) trailingAccuracy(n int) (float64, bool) {
	sum, count := 0.0, 0
	for i := len(mc.records) - 1; i >= 0 && count < n; i-- {
		if mc.records[i].Accuracy == nil {
			continue
		}
		sum += *mc.records[i].Accuracy
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// CalibrationError returns the mean signed residual between predicted
// confidence and assessed accuracy. Positive means overconfidence.
func (mc *MetaCognition) CalibrationError() float64 {
	if len(mc.calibration) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range mc.calibration {
		sum += r
	}
	return sum / float64(len(mc.calibration))
}

// DetectErrors checks an output against explicit constraints plus the
// standing numeric-sanity rule (no NaN or infinite scalars anywhere).
func (mc *MetaCognition) DetectErrors(output Content, constraints []Constraint) []DetectedError {
	var errs []DetectedError

	for _, c := range constraints {
		target := output
		if c.Field != "" {
			field, ok := output.Field(c.Field)
			if !ok {
				if c.Required {
					errs = append(errs, DetectedError{
						Type:     "missing_field",
						Severity: 0.9,
						Message:  fmt.Sprintf("required field %q absent", c.Field),
					})
				}
				continue
			}
			target = field
		}
		if c.Required && target.IsEmpty() {
			errs = append(errs, DetectedError{
				Type:     "empty_value",
				Severity: 0.8,
				Message:  fmt.Sprintf("required value %q is empty", c.Field),
			})
			continue
		}
		if c.Kind != nil && target.Kind() != *c.Kind {
			errs = append(errs, DetectedError{
				Type:     "type_mismatch",
				Severity: 0.7,
				Message:  fmt.Sprintf("field %q is %s, want %s", c.Field, target.Kind(), *c.Kind),
			})
			continue
		}
		if target.Kind() == KindScalar {
			v := target.Scalar()
			if c.Min != nil && v < *c.Min {
				errs = append(errs, DetectedError{
					Type:     "out_of_range",
					Severity: 0.6,
					Message:  fmt.Sprintf("field %q value %v below minimum %v", c.Field, v, *c.Min),
				})
			}
			if c.Max != nil && v > *c.Max {
				errs = append(errs, DetectedError{
					Type:     "out_of_range",
					Severity: 0.6,
					Message:  fmt.Sprintf("field %q value %v above maximum %v", c.Field, v, *c.Max),
				})
			}
		}
	}

	errs = append(errs, scanNumericSanity(output, "")...)
	return errs
}

// scanNumericSanity walks the content tree for NaN and infinite scalars.
func scanNumericSanity(c Content, path string) []DetectedError {
	var errs []DetectedError
	switch c.Kind() {
	case KindScalar:
		if v := c.Scalar(); math.IsNaN(v) || math.IsInf(v, 0) {
			where := path
			if where == "" {
				where = "output"
			}
			errs = append(errs, DetectedError{
				Type:     "invalid_number",
				Severity: 1.0,
				Message:  fmt.Sprintf("%s holds a non-finite value", where),
			})
		}
	case KindStructured:
		for name, field := range c.Fields() {
			errs = append(errs, scanNumericSanity(field, path+"."+name)...)
		}
	case KindList:
		for i, item := range c.Items() {
			errs = append(errs, scanNumericSanity(item, fmt.Sprintf("%s[%d]", path, i))...)
		}
	}
	return errs
}
