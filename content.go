package noema

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ContentKind discriminates the variants of a Content value.
type ContentKind int

const (
	KindEmpty ContentKind = iota
	KindScalar
	KindText
	KindStructured
	KindList
)

// String returns the kind's name.
func (k ContentKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	case KindList:
		return "list"
	default:
		return "empty"
	}
}

// Content is the tagged-union value that flows through every component.
// A Content is exactly one of: empty, scalar, text, structured (named
// fields), or list (ordered elements). All similarity and type dispatch in
// the package matches exhaustively over the variant, so components never
// guess at a dynamic payload shape.
type Content struct {
	kind   ContentKind
	scalar float64
	text   string
	fields map[string]Content
	items  []Content
}

// Empty returns the zero Content.
func Empty() Content {
	return Content{kind: KindEmpty}
}

// Scalar wraps a float64.
func Scalar(v float64) Content {
	return Content{kind: KindScalar, scalar: v}
}

// Text wraps a string.
func Text(s string) Content {
	return Content{kind: KindText, text: s}
}

// Structured wraps a map of named fields. The map is copied.
func Structured(fields map[string]Content) Content {
	copied := make(map[string]Content, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Content{kind: KindStructured, fields: copied}
}

// List wraps an ordered sequence of elements.
func List(items ...Content) Content {
	copied := make([]Content, len(items))
	copy(copied, items)
	return Content{kind: KindList, items: copied}
}

// Kind returns the variant tag.
func (c Content) Kind() ContentKind {
	return c.kind
}

// IsEmpty reports whether the value carries no information: the empty
// variant, zero-length text, or a structured/list value with no members.
func (c Content) IsEmpty() bool {
	switch c.kind {
	case KindEmpty:
		return true
	case KindText:
		return c.text == ""
	case KindStructured:
		return len(c.fields) == 0
	case KindList:
		return len(c.items) == 0
	default:
		return false
	}
}

// Scalar returns the numeric payload, or 0 for non-scalar variants.
func (c Content) Scalar() float64 {
	return c.scalar
}

// Text returns the string payload, or "" for non-text variants.
func (c Content) Text() string {
	return c.text
}

// Fields returns a copy of the structured payload.
func (c Content) Fields() map[string]Content {
	out := make(map[string]Content, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// Field returns a named member of a structured value.
func (c Content) Field(name string) (Content, bool) {
	v, ok := c.fields[name]
	return v, ok
}

// Items returns a copy of the list payload.
func (c Content) Items() []Content {
	out := make([]Content, len(c.items))
	copy(out, c.items)
	return out
}

// Equal reports deep equality. Traversal is iterative over an explicit
// work stack so untrusted nesting depth cannot exhaust the call stack.
func (c Content) Equal(other Content) bool {
	type pair struct{ a, b Content }
	stack := []pair{{c, other}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.a.kind != p.b.kind {
			return false
		}
		switch p.a.kind {
		case KindScalar:
			if p.a.scalar != p.b.scalar {
				return false
			}
		case KindText:
			if p.a.text != p.b.text {
				return false
			}
		case KindStructured:
			if len(p.a.fields) != len(p.b.fields) {
				return false
			}
			for k, av := range p.a.fields {
				bv, ok := p.b.fields[k]
				if !ok {
					return false
				}
				stack = append(stack, pair{av, bv})
			}
		case KindList:
			if len(p.a.items) != len(p.b.items) {
				return false
			}
			for i := range p.a.items {
				stack = append(stack, pair{p.a.items[i], p.b.items[i]})
			}
		}
	}
	return true
}

// Depth returns the structural nesting depth: 1 for leaves, 1 + max child
// depth for containers. Computed iteratively over an explicit stack.
func Depth(c Content) int {
	type frame struct {
		content Content
		depth   int
	}
	stack := []frame{{c, 1}}
	max := 0

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > max {
			max = f.depth
		}
		switch f.content.kind {
		case KindStructured:
			for _, v := range f.content.fields {
				stack = append(stack, frame{v, f.depth + 1})
			}
		case KindList:
			for _, v := range f.content.items {
				stack = append(stack, frame{v, f.depth + 1})
			}
		}
	}
	return max
}

// Size estimates the serialized byte size of a value, used by the
// conductor's complexity assessment. Computed iteratively.
func Size(c Content) int {
	stack := []Content{c}
	total := 0

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch cur.kind {
		case KindScalar:
			total += 8
		case KindText:
			total += len(cur.text)
		case KindStructured:
			for k, v := range cur.fields {
				total += len(k)
				stack = append(stack, v)
			}
		case KindList:
			stack = append(stack, cur.items...)
		}
	}
	return total
}

const maxRenderDepth = 32

// Render flattens a value into a deterministic human-readable string.
// Nested containers render depth-first with sorted keys; rendering stops
// at a fixed depth bound.
func Render(c Content) string {
	return renderAt(c, 0)
}

func renderAt(c Content, depth int) string {
	if depth >= maxRenderDepth {
		return "..."
	}
	switch c.kind {
	case KindScalar:
		return strconv.FormatFloat(c.scalar, 'g', -1, 64)
	case KindText:
		return c.text
	case KindStructured:
		keys := make([]string, 0, len(c.fields))
		for k := range c.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + renderAt(c.fields[k], depth+1)
		}
		return strings.Join(parts, "; ")
	case KindList:
		parts := make([]string, len(c.items))
		for i, v := range c.items {
			parts[i] = renderAt(v, depth+1)
		}
		return strings.Join(parts, " | ")
	default:
		return ""
	}
}

// Similarity scores two values in [0,1], dispatching exhaustively on the
// variant pair. Mismatched variants score 0; degenerate (empty) values
// score 0 rather than propagating NaN.
func Similarity(a, b Content) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}
	if a.kind != b.kind {
		return 0
	}

	switch a.kind {
	case KindScalar:
		denom := math.Max(math.Max(math.Abs(a.scalar), math.Abs(b.scalar)), 1)
		return clamp01(1 - math.Abs(a.scalar-b.scalar)/denom)
	case KindText:
		return tokenOverlap(Tokens(a.text), Tokens(b.text))
	case KindStructured:
		return structuredSimilarity(a, b)
	case KindList:
		return listSimilarity(a, b)
	default:
		return 0
	}
}

func structuredSimilarity(a, b Content) float64 {
	shared := 0
	sum := 0.0
	for k, av := range a.fields {
		if bv, ok := b.fields[k]; ok {
			shared++
			sum += Similarity(av, bv)
		}
	}
	if shared == 0 {
		return 0
	}
	union := len(a.fields) + len(b.fields) - shared
	overlap := float64(shared) / float64(union)
	return overlap * (sum / float64(shared))
}

func listSimilarity(a, b Content) float64 {
	n := len(a.items)
	if len(b.items) < n {
		n = len(b.items)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += Similarity(a.items[i], b.items[i])
	}
	longer := len(a.items)
	if len(b.items) > longer {
		longer = len(b.items)
	}
	return (sum / float64(n)) * (float64(n) / float64(longer))
}

// Tokens lowercases and splits text on non-alphanumeric runes.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	shared := 0
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			shared++
		}
	}
	union := len(set) + len(seen) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
