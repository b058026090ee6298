package transform

import (
	"math/big"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
)

var bigOne = big.NewInt(1)

// Simplify lowers every relational Comparison (<, <=, >, >=) to a
// Disjunction of equality Comparisons over the minimal prefix-mask blocks
// covering its range (spec.md §4.4 rule 3), folds Boolean literals out of
// connectives, and drops/short-circuits on duplicate or contradictory
// equality Comparisons against the same symbol. == and != Comparisons are
// left as-is: spec.md §4.4's output invariant only requires that no
// relational (ordering) comparison survive, and expr.IsSimplified accepts
// both REq and RNe as simplified leaves. != is expanded into its own
// equality disjunction later, by the normalizer (see LowerNotEqual below and
// normalize.go), not here.
func Simplify(n expr.Node) expr.Node {
	switch v := n.(type) {
	case *expr.Boolean:
		return v
	case *expr.Comparison:
		if v.IsString || v.Relop == expr.REq || v.Relop == expr.RNe {
			return v
		}
		return lowerOrdinal(v)
	case *expr.Conjunction:
		return foldConjunction(simplifyChildren(v.Children))
	case *expr.Disjunction:
		return foldDisjunction(simplifyChildren(v.Children))
	default:
		return n
	}
}

func simplifyChildren(children []expr.Node) []expr.Node {
	out := make([]expr.Node, len(children))
	for i, c := range children {
		out[i] = Simplify(c)
	}
	return out
}

// lowerOrdinal rewrites a <, <=, >, or >= Comparison as an equivalent
// Disjunction of equality Comparisons, one per minimal prefix-mask block
// covering the comparison's half-open range. A range that covers the whole
// domain collapses to Boolean(true); an empty range (possible for, e.g., "x
// < 0" on an unsigned field) collapses to Boolean(false).
func lowerOrdinal(c *expr.Comparison) expr.Node {
	width := c.Symbol.Width
	lo, hi := ordinalBounds(c.Relop, width, c.Operand.Value.Bits)
	if isFullDomain(width, lo, hi) {
		return &expr.Boolean{Value: true}
	}
	blocks := subvalue.DecomposeRange(width, lo, hi)
	if len(blocks) == 0 {
		return &expr.Boolean{Value: false}
	}
	children := make([]expr.Node, len(blocks))
	for i, b := range blocks {
		children[i] = expr.NewMaskedComparison(c.Symbol, expr.REq, b)
	}
	return combineAll("or", children)
}

// ordinalBounds returns the half-open [lo, hi) range of values that satisfy
// relop v, for one of the four ordering operators.
func ordinalBounds(relop expr.Relop, width int, v *big.Int) (lo, hi *big.Int) {
	zero := big.NewInt(0)
	full := new(big.Int).Lsh(bigOne, uint(width))
	switch relop {
	case expr.RLt:
		return zero, v
	case expr.RLe:
		return zero, new(big.Int).Add(v, bigOne)
	case expr.RGt:
		return new(big.Int).Add(v, bigOne), full
	case expr.RGe:
		return v, full
	default:
		return zero, zero
	}
}

// isFullDomain reports whether [lo, hi) spans a whole width-bit domain,
// the one case DecomposeRange would otherwise cover with a single
// zero-mask (wildcard) block, which the structural invariant in spec.md §3
// forbids on a live Comparison node.
func isFullDomain(width int, lo, hi *big.Int) bool {
	full := new(big.Int).Lsh(bigOne, uint(width))
	return lo.Sign() == 0 && hi.Cmp(full) == 0
}

// LowerNotEqual rewrites a != Comparison as "x < value || x > value",
// itself expanded to the equality disjunction lowerOrdinal produces for
// each half, so a != survives only as a flat Disjunction of == comparisons.
// Left as a standalone function (rather than folded into Simplify's default
// walk) since the !=-lowering point is primarily normalize.go's job; this
// is exercised directly by this package's own tests and called from
// normalize.go's expandNotEqual, the first step of Normalize.
func LowerNotEqual(c *expr.Comparison) expr.Node {
	if c.IsString {
		return c
	}
	width := c.Symbol.Width
	v := c.Operand.Value.Bits
	full := new(big.Int).Lsh(bigOne, uint(width))

	below := subvalue.DecomposeRange(width, big.NewInt(0), v)
	above := subvalue.DecomposeRange(width, new(big.Int).Add(v, bigOne), full)
	blocks := append(below, above...)

	if len(blocks) == 0 {
		return &expr.Boolean{Value: false}
	}
	children := make([]expr.Node, len(blocks))
	for i, b := range blocks {
		children[i] = expr.NewMaskedComparison(c.Symbol, expr.REq, b)
	}
	return combineAll("or", children)
}

// foldConjunction applies AND's identity/annihilation: dropping Boolean
// true children, short-circuiting to Boolean(false) on a Boolean false
// child or on two equality Comparisons against the same symbol whose
// operands conflict (spec.md §4.4 rule 4), and deduplicating children that
// are structurally identical.
func foldConjunction(children []expr.Node) expr.Node {
	kept := make([]expr.Node, 0, len(children))
	for _, c := range children {
		if b, ok := c.(*expr.Boolean); ok {
			if !b.Value {
				return &expr.Boolean{Value: false}
			}
			continue
		}
		kept = append(kept, c)
	}
	kept = flattenChildren(kept, func(n expr.Node) ([]expr.Node, bool) {
		c, ok := n.(*expr.Conjunction)
		if !ok {
			return nil, false
		}
		return c.Children, true
	})

	for i := 0; i < len(kept); i++ {
		ci, ok := kept[i].(*expr.Comparison)
		if !ok || ci.IsString || ci.Relop != expr.REq {
			continue
		}
		for j := i + 1; j < len(kept); j++ {
			cj, ok := kept[j].(*expr.Comparison)
			if !ok || cj.IsString || cj.Relop != expr.REq || cj.Symbol.Name != ci.Symbol.Name {
				continue
			}
			if ci.Operand.Conflicts(cj.Operand) {
				return &expr.Boolean{Value: false}
			}
		}
	}

	kept = dedupNodes(kept)
	switch len(kept) {
	case 0:
		return &expr.Boolean{Value: true}
	case 1:
		return kept[0]
	default:
		return &expr.Conjunction{Children: kept}
	}
}

// foldDisjunction applies OR's identity/annihilation: dropping Boolean
// false children, short-circuiting to Boolean(true) on a Boolean true
// child, and deduplicating structurally identical children.
func foldDisjunction(children []expr.Node) expr.Node {
	kept := make([]expr.Node, 0, len(children))
	for _, c := range children {
		if b, ok := c.(*expr.Boolean); ok {
			if b.Value {
				return &expr.Boolean{Value: true}
			}
			continue
		}
		kept = append(kept, c)
	}
	kept = flattenChildren(kept, func(n expr.Node) ([]expr.Node, bool) {
		d, ok := n.(*expr.Disjunction)
		if !ok {
			return nil, false
		}
		return d.Children, true
	})

	kept = dedupNodes(kept)
	switch len(kept) {
	case 0:
		return &expr.Boolean{Value: false}
	case 1:
		return kept[0]
	default:
		return &expr.Disjunction{Children: kept}
	}
}

// flattenChildren splices any child matched by split into nodes in place of
// itself, the way expr.Combine does pairwise: spec.md §3 invariant 1
// forbids a Conjunction-of-Conjunctions or Disjunction-of-Disjunctions, but
// folding a grandchild connective down to a single survivor (via dedup or
// Boolean short-circuiting) can otherwise leave one as a direct child of a
// same-kind parent.
func flattenChildren(nodes []expr.Node, split func(expr.Node) ([]expr.Node, bool)) []expr.Node {
	out := make([]expr.Node, 0, len(nodes))
	for _, n := range nodes {
		if grandchildren, ok := split(n); ok {
			out = append(out, grandchildren...)
		} else {
			out = append(out, n)
		}
	}
	return out
}

// dedupNodes drops children that are structurally identical to an earlier
// one, comparing by expr.CanonicalKey so connective-child order never
// affects the result.
func dedupNodes(children []expr.Node) []expr.Node {
	seen := make(map[string]bool, len(children))
	out := make([]expr.Node, 0, len(children))
	for _, c := range children {
		key := expr.CanonicalKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
