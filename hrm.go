package noema

import (
	"hash/fnv"
	"math"
)

// hrmDim is the fixed width of both recurrent states.
const hrmDim = 16

// EmbedFunc maps content into the module's state space. Values should stay
// roughly within [-1,1]; tanh keeps the recurrence bounded regardless.
type EmbedFunc func(Content) []float64

// HRMConfig sets the iteration budget of the hierarchical reasoner.
type HRMConfig struct {
	// Cycles is the number of high-level update rounds.
	Cycles int
	// Timesteps is the number of low-level updates per cycle.
	Timesteps int
}

// DefaultHRMConfig returns the standard iteration budget.
func DefaultHRMConfig() HRMConfig {
	return HRMConfig{Cycles: 4, Timesteps: 8}
}

// HRMResult carries the converged high-level state and its reading.
type HRMResult struct {
	// State is the final high-level vector.
	State []float64
	// Energy is the mean absolute activation of the final state, in [0,1].
	// Higher energy reads as stronger convergence on the input.
	Energy float64
	// Artifact is the state rendered as structured content.
	Artifact Content
}

// HRM is a two-timescale iterative state machine standing in for deliberate
// reasoning: a fast low-level state integrates the input repeatedly while a
// slow high-level state integrates the low-level result once per cycle.
// There is no trained network; the dynamics alone model multi-timescale
// deliberation. Deterministic for a given embedding function.
type HRM struct {
	cfg   HRMConfig
	embed EmbedFunc
}

// NewHRM creates a module. A nil embed falls back to the deterministic
// hash-derived embedding.
func NewHRM(cfg HRMConfig, embed EmbedFunc) *HRM {
	if cfg.Cycles <= 0 || cfg.Timesteps <= 0 {
		cfg = DefaultHRMConfig()
	}
	if embed == nil {
		embed = HashEmbed
	}
	return &HRM{cfg: cfg, embed: embed}
}

// Process runs the two-timescale recurrence over the inputs. The input
// vector is the mean of the individual embeddings; empty input yields a
// zero vector and a quiescent result.
func (h *HRM) Process(inputs ...Content) HRMResult {
	x := make([]float64, hrmDim)
	if len(inputs) > 0 {
		for _, in := range inputs {
			e := h.embed(in)
			for i := 0; i < hrmDim && i < len(e); i++ {
				x[i] += e[i]
			}
		}
		for i := range x {
			x[i] /= float64(len(inputs))
		}
	}

	zl := make([]float64, hrmDim)
	zh := make([]float64, hrmDim)
	for cycle := 0; cycle < h.cfg.Cycles; cycle++ {
		for t := 0; t < h.cfg.Timesteps; t++ {
			for i := range zl {
				zl[i] = math.Tanh(0.5*zl[i] + 0.3*zh[i] + 0.2*x[i])
			}
		}
		for i := range zh {
			zh[i] = math.Tanh(0.6*zh[i] + 0.4*zl[i])
		}
	}

	energy := 0.0
	for _, v := range zh {
		energy += math.Abs(v)
	}
	energy /= hrmDim

	items := make([]Content, hrmDim)
	for i, v := range zh {
		items[i] = Scalar(v)
	}
	return HRMResult{
		State:  zh,
		Energy: energy,
		Artifact: Structured(map[string]Content{
			"state":  List(items...),
			"energy": Scalar(energy),
		}),
	}
}

// HashEmbed derives a deterministic embedding from the rendered content:
// one FNV-1a hash per dimension, salted by the dimension index and mapped
// into [-1,1].
func HashEmbed(c Content) []float64 {
	rendered := Render(c)
	out := make([]float64, hrmDim)
	for i := range out {
		h := fnv.New64a()
		h.Write([]byte{byte(i)})
		h.Write([]byte(rendered))
		out[i] = float64(h.Sum64()%2001)/1000 - 1
	}
	return out
}
