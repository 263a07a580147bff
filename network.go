package noema

// SemanticNetwork is a weighted concept graph. Every edge is bidirectional:
// inserting a→b also inserts the mirror b→a. Edge strengths live in [0,1]
// and edges decayed below 0.05 are pruned.
type SemanticNetwork struct {
	nodes map[string]map[string]float64
}

// NewSemanticNetwork creates an empty graph.
func NewSemanticNetwork() *SemanticNetwork {
	return &SemanticNetwork{nodes: make(map[string]map[string]float64)}
}

// AddEdge links two concepts with the given strength, clamped to [0,1].
// Self-links and empty concepts are ignored. Re-adding an edge keeps the
// stronger of the existing and the new strength.
func (n *SemanticNetwork) AddEdge(a, b string, strength float64) {
	if a == "" || b == "" || a == b {
		return
	}
	strength = clamp01(strength)
	n.link(a, b, strength)
	n.link(b, a, strength)
}

func (n *SemanticNetwork) link(from, to string, strength float64) {
	edges, ok := n.nodes[from]
	if !ok {
		edges = make(map[string]float64)
		n.nodes[from] = edges
	}
	if strength > edges[to] {
		edges[to] = strength
	}
}

// EdgeStrength returns the strength of the edge between two concepts.
func (n *SemanticNetwork) EdgeStrength(a, b string) (float64, bool) {
	s, ok := n.nodes[a][b]
	return s, ok
}

// Neighbors returns a copy of a concept's outgoing edges.
func (n *SemanticNetwork) Neighbors(concept string) map[string]float64 {
	out := make(map[string]float64, len(n.nodes[concept]))
	for k, v := range n.nodes[concept] {
		out[k] = v
	}
	return out
}

// spreadAttenuation is the fixed per-hop damping applied on top of edge
// strength during spreading activation.
const spreadAttenuation = 0.8

// spreadFloor stops a branch once its activation falls below this level.
const spreadFloor = 0.1

// Spread performs breadth-first spreading activation from the seed concept
// with activation 1.0. Each hop multiplies activation by the traversed
// edge's strength and the fixed attenuation. A branch stops when its
// activation drops under the floor or the hop budget is spent; each node is
// visited at most once. The result maps every activated concept (seed
// included) to its activation.
func (n *SemanticNetwork) Spread(seed string, maxHops int) map[string]float64 {
	activated := map[string]float64{seed: 1.0}
	if _, ok := n.nodes[seed]; !ok {
		return activated
	}

	frontier := map[string]float64{seed: 1.0}
	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		next := make(map[string]float64)
		for concept, act := range frontier {
			for neighbor, strength := range n.nodes[concept] {
				if _, seen := activated[neighbor]; seen {
					continue
				}
				a := act * strength * spreadAttenuation
				if a < spreadFloor {
					continue
				}
				if a > next[neighbor] {
					next[neighbor] = a
				}
			}
		}
		for concept, a := range next {
			activated[concept] = a
		}
		frontier = next
	}
	return activated
}

// Decay multiplies every edge strength by the given factor and prunes edges
// falling under 0.05. Returns the number of pruned edges (mirrors counted
// once).
func (n *SemanticNetwork) Decay(factor float64) int {
	pruned := 0
	for from, edges := range n.nodes {
		for to, s := range edges {
			s *= factor
			if s < 0.05 {
				delete(edges, to)
				if from < to {
					pruned++
				}
				continue
			}
			edges[to] = s
		}
		if len(edges) == 0 {
			delete(n.nodes, from)
		}
	}
	return pruned
}

// EdgeCount returns the number of distinct undirected edges.
func (n *SemanticNetwork) EdgeCount() int {
	total := 0
	for _, edges := range n.nodes {
		total += len(edges)
	}
	return total / 2
}

// Concepts returns the number of concepts holding at least one edge.
func (n *SemanticNetwork) Concepts() int {
	return len(n.nodes)
}
