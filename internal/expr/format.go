package expr

import (
	"fmt"
	"sort"
	"strings"
)

// Format renders n as matching-expression source text. A numeric
// Comparison's operand is rendered as value/mask (e.g. "0x800/0xffff"),
// which the lexer does not accept, so only trees without numeric
// Comparisons (Boolean literals, string comparisons) parse back from
// Format's output. Connective children are
// emitted in their stored order, which is parse order for a freshly parsed
// tree and is preserved through simplify/normalize wherever the transform
// itself does not need to reorder; Format does not re-sort children, so
// two structurally-equivalent trees built with children in different
// orders format differently (the equivalence the testable properties
// require is checked by the caller via a canonical key, not by Format
// itself — see SortKey).
func Format(n Node) string {
	return n.String()
}

// SortKey returns a printable key for n suitable for canonicalizing child
// order when a transform needs a stable, content-addressed ordering (for
// example, to make deduplication of Disjunction clauses order-independent)
// rather than the parse order Format otherwise preserves.
func SortKey(n Node) string {
	return n.String()
}

// SortedChildren returns a copy of children sorted by SortKey, for callers
// that need a canonical (rather than parse-preserving) order.
func SortedChildren(children []Node) []Node {
	out := make([]Node, len(children))
	copy(out, children)
	sort.Slice(out, func(i, j int) bool { return SortKey(out[i]) < SortKey(out[j]) })
	return out
}

// CanonicalKey returns a string that is equal for two nodes iff they are
// structurally equivalent up to connective child ordering (spec.md §8
// property 1/2's "AST equivalence" notion): children of every Conjunction
// and Disjunction are sorted by SortKey before rendering.
func CanonicalKey(n Node) string {
	switch v := n.(type) {
	case *Boolean:
		return v.String()
	case *Comparison:
		return v.String()
	case *Conjunction:
		return "(&& " + joinCanonical(v.Children) + ")"
	case *Disjunction:
		return "(|| " + joinCanonical(v.Children) + ")"
	default:
		return fmt.Sprintf("<unknown %T>", n)
	}
}

func joinCanonical(children []Node) string {
	keys := make([]string, len(children))
	for i, c := range children {
		keys[i] = CanonicalKey(c)
	}
	sort.Strings(keys)
	return strings.Join(keys, " ")
}
