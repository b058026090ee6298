package transform

import (
	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// Normalize converts a simplified AST into disjunctive normal form (spec.md
// §4.5): a Disjunction of Conjunctions of equality Comparisons, with every
// numeric != expanded via LowerNotEqual, duplicate clauses removed, and any clause
// that is unsatisfiable on its own (spec.md §4.4 rule 4's contradiction
// check, reapplied here since distribution can produce new AND-combinations
// simplify.go never saw) dropped. A != against a string symbol is left as
// it is, so a tree containing one does not satisfy expr.IsNormalized.
func Normalize(n expr.Node) expr.Node {
	n = expandNotEqual(n)
	dnf := toDNF(n)
	return pruneClauses(dnf)
}

// expandNotEqual replaces every numeric != Comparison with the equality
// disjunction LowerNotEqual produces, bottom-up, so after it every remaining
// numeric Comparison carries REq; string != Comparisons are not replaced.
func expandNotEqual(n expr.Node) expr.Node {
	switch v := n.(type) {
	case *expr.Boolean:
		return v
	case *expr.Comparison:
		if !v.IsString && v.Relop == expr.RNe {
			return LowerNotEqual(v)
		}
		return v
	case *expr.Conjunction:
		children := make([]expr.Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = expandNotEqual(c)
		}
		return combineAll("and", children)
	case *expr.Disjunction:
		children := make([]expr.Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = expandNotEqual(c)
		}
		return combineAll("or", children)
	default:
		return n
	}
}

// toDNF distributes AND over OR until every Conjunction's children are
// themselves Comparisons or Boolean literals, i.e. the tree is a Disjunction
// of Conjunctions (or a bare Conjunction/Comparison/Boolean, when the whole
// expression has only one clause).
func toDNF(n expr.Node) expr.Node {
	switch v := n.(type) {
	case *expr.Boolean:
		return v
	case *expr.Comparison:
		return v
	case *expr.Disjunction:
		children := make([]expr.Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = toDNF(c)
		}
		return combineAll("or", children)
	case *expr.Conjunction:
		return distributeConjunction(v.Children)
	default:
		return n
	}
}

// distributeConjunction converts an AND of already-DNF children into a DNF
// tree, by distributing AND over any child that is itself a Disjunction:
// (a || b) && c becomes (a && c) || (b && c), applied pairwise across all
// children via the cross product of their clause sets.
func distributeConjunction(children []expr.Node) expr.Node {
	clauses := [][]expr.Node{{}}
	for _, c := range children {
		dnfChild := toDNF(c)
		alternatives := disjunctionClauses(dnfChild)
		var next [][]expr.Node
		for _, existing := range clauses {
			for _, alt := range alternatives {
				clause := make([]expr.Node, 0, len(existing)+len(alt))
				clause = append(clause, existing...)
				clause = append(clause, alt...)
				next = append(next, clause)
			}
		}
		clauses = next
	}

	clauseNodes := make([]expr.Node, len(clauses))
	for i, clause := range clauses {
		clauseNodes[i] = combineAll("and", clause)
	}
	return combineAll("or", clauseNodes)
}

// disjunctionClauses returns n's top-level alternatives as a list of
// conjunct-lists: a Disjunction's children, each expanded to the conjuncts
// of a Conjunction or else treated as a single-conjunct clause; anything
// else (Comparison, Boolean, bare Conjunction) is its own single alternative.
func disjunctionClauses(n expr.Node) [][]expr.Node {
	switch v := n.(type) {
	case *expr.Disjunction:
		out := make([][]expr.Node, len(v.Children))
		for i, c := range v.Children {
			out[i] = conjunctClauses(c)
		}
		return out
	default:
		return [][]expr.Node{conjunctClauses(n)}
	}
}

// conjunctClauses returns n's conjuncts: a Conjunction's children, or n
// itself as the sole conjunct.
func conjunctClauses(n expr.Node) []expr.Node {
	if c, ok := n.(*expr.Conjunction); ok {
		return c.Children
	}
	return []expr.Node{n}
}

// pruneClauses removes any top-level clause that is internally
// unsatisfiable (two equality Comparisons against the same symbol, or
// against overlapping subfields of the same parent, that disagree) and
// deduplicates the remaining clauses, reusing foldConjunction/foldDisjunction
// so the result keeps simplify.go's identity/annihilation guarantees even
// after distribution introduced new combinations.
func pruneClauses(n expr.Node) expr.Node {
	switch v := n.(type) {
	case *expr.Boolean:
		return v
	case *expr.Comparison:
		return v
	case *expr.Conjunction:
		if clauseUnsat(v.Children) {
			return &expr.Boolean{Value: false}
		}
		return foldConjunction(v.Children)
	case *expr.Disjunction:
		var kept []expr.Node
		for _, c := range v.Children {
			pruned := pruneClauses(c)
			if b, ok := pruned.(*expr.Boolean); ok && !b.Value {
				continue
			}
			kept = append(kept, pruned)
		}
		return foldDisjunction(kept)
	default:
		return n
	}
}

// clauseUnsat reports whether clause children contain a pair of equality
// Comparisons that can never simultaneously hold: same symbol with
// conflicting operands, or a subfield and its parent (or two subfields of
// the same parent) whose masked values disagree on their overlapping bits.
func clauseUnsat(children []expr.Node) bool {
	comparisons := make([]*expr.Comparison, 0, len(children))
	for _, c := range children {
		cmp, ok := c.(*expr.Comparison)
		if !ok || cmp.IsString || cmp.Relop != expr.REq {
			continue
		}
		comparisons = append(comparisons, cmp)
	}
	for i := 0; i < len(comparisons); i++ {
		for j := i + 1; j < len(comparisons); j++ {
			if comparisonsOverlap(comparisons[i], comparisons[j]) && operandsConflict(comparisons[i], comparisons[j]) {
				return true
			}
		}
	}
	return false
}

// operandsConflict reports whether a and b's operands disagree on their
// overlapping bits. A subfield and its parent field (or two subfields of
// the same parent) carry Masked operands of different widths, which
// Masked.Conflicts cannot compare directly (it panics on a width
// mismatch); alignToRoot first translates both into the shared root
// field's bit coordinate system.
func operandsConflict(a, b *expr.Comparison) bool {
	_, alignedA := alignToRoot(a)
	_, alignedB := alignToRoot(b)
	return alignedA.Conflicts(alignedB)
}

// alignToRoot returns the bit width of sym's root field and sym's operand
// shifted into that root's coordinate system: unchanged for a plain field,
// shifted left by Lo bits for a subfield.
func alignToRoot(cmp *expr.Comparison) (int, subvalue.Masked) {
	sym := cmp.Symbol
	if sym.Kind == symbols.SubfieldKind {
		return sym.Parent.Width, cmp.Operand.WidenTo(sym.Parent.Width, sym.Lo)
	}
	return sym.Width, cmp.Operand
}

// comparisonsOverlap reports whether a and b constrain the same underlying
// field: the same symbol, or two subfields (or a subfield and its parent
// field) that share a root field and overlapping bit ranges.
func comparisonsOverlap(a, b *expr.Comparison) bool {
	if a.Symbol.Name == b.Symbol.Name {
		return true
	}
	rootA, loA, hiA := fieldRange(a.Symbol)
	rootB, loB, hiB := fieldRange(b.Symbol)
	if rootA != rootB {
		return false
	}
	return loA <= hiB && loB <= hiA
}

// fieldRange returns the root field name and the inclusive bit range a
// symbol occupies within it: a plain field occupies its own full width, a
// subfield occupies [Lo, Hi] of its Parent (spec.md §4.1).
func fieldRange(sym *symbols.Symbol) (string, int, int) {
	if sym.Kind == symbols.SubfieldKind {
		root, _, _ := fieldRange(sym.Parent)
		return root, sym.Lo, sym.Hi
	}
	return sym.Name, 0, sym.Width - 1
}
