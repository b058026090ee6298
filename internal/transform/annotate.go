// Package transform implements the three passes that sit between parsing
// and match emission (spec.md §4.3-§4.5): annotation (predicate inlining,
// prerequisite conjunction, lazy level resolution), simplification
// (relational lowering to equality/inequality), and normalization
// (disjunctive normal form). The teacher keeps its whole semantic-analysis
// pass as many files under one internal/analyzer package; this mirrors that
// layout with annotate.go, simplify.go, and normalize.go.
package transform

import (
	"fmt"

	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/parser"
	"github.com/ovnmatch/matchexpr/internal/symbols"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// Annotate expands every predicate reference in root to its underlying
// expression, conjoins each symbol's prerequisites ahead of its use, and
// resolves any predicate's level that is still LevelUnknown. The returned
// tree contains no Comparison whose Symbol.Kind is PredicateKind (spec.md
// §4.3's output invariant).
func Annotate(root expr.Node, symtab *symbols.Table) (expr.Node, error) {
	return annotateNode(root, symtab, map[string]bool{})
}

func annotateNode(n expr.Node, symtab *symbols.Table, inProgress map[string]bool) (expr.Node, error) {
	switch v := n.(type) {
	case *expr.Boolean:
		return v, nil
	case *expr.Comparison:
		return annotateComparison(v, symtab, inProgress)
	case *expr.Conjunction:
		children, err := annotateChildren(v.Children, symtab, inProgress)
		if err != nil {
			return nil, err
		}
		return combineAll("and", children), nil
	case *expr.Disjunction:
		children, err := annotateChildren(v.Children, symtab, inProgress)
		if err != nil {
			return nil, err
		}
		return combineAll("or", children), nil
	default:
		return nil, fmt.Errorf("transform: annotate: unknown node type %T", n)
	}
}

func annotateChildren(children []expr.Node, symtab *symbols.Table, inProgress map[string]bool) ([]expr.Node, error) {
	out := make([]expr.Node, len(children))
	for i, c := range children {
		annotated, err := annotateNode(c, symtab, inProgress)
		if err != nil {
			return nil, err
		}
		out[i] = annotated
	}
	return out, nil
}

// annotateComparison expands c if it references a predicate, then conjoins
// the referenced symbol's prerequisites ahead of whatever remains. Both
// steps apply to the symbol that was actually written in the source, before
// any inlining: a predicate's own Prereqs field is always empty (spec.md
// §4.1's AddPredicate takes no prereqs argument), so the ordering of the two
// steps below never actually interacts for a predicate reference, but for a
// field or subfield reference the prereq step is the only one that fires.
func annotateComparison(c *expr.Comparison, symtab *symbols.Table, inProgress map[string]bool) (expr.Node, error) {
	sym := c.Symbol
	var result expr.Node = c

	if sym.Kind == symbols.PredicateKind {
		expansion, err := inlinePredicate(sym, symtab, inProgress)
		if err != nil {
			return nil, err
		}
		if invertsExpansion(c) {
			expansion = expr.Negate(expansion)
		}
		result = expansion
	}

	if sym.Prereqs != "" {
		prereq, err := annotateExpressionText(sym.Prereqs, symtab, inProgress)
		if err != nil {
			return nil, err
		}
		result = expr.Combine("and", prereq, result)
	}

	return result, nil
}

// annotateExpressionText parses text against symtab and annotates the
// result, used for both a predicate's expansion and a symbol's prereqs
// string: both are stored as raw, unparsed text (spec.md §4.1) so this
// package is the only one that ever has to parse them.
func annotateExpressionText(text string, symtab *symbols.Table, inProgress map[string]bool) (expr.Node, error) {
	parsed, err := parser.ParseString(text, symtab)
	if err != nil {
		return nil, err
	}
	return annotateNode(parsed, symtab, inProgress)
}

// inlinePredicate parses and annotates sym's expansion, detecting a
// transitive reference back to sym itself (spec.md §7 ErrC001), and
// resolves sym.Level the first time it is inlined (spec.md §4.1: "level is
// determined on first use").
func inlinePredicate(sym *symbols.Symbol, symtab *symbols.Table, inProgress map[string]bool) (expr.Node, error) {
	if inProgress[sym.Name] {
		return nil, diagnostics.New(diagnostics.ErrC001, token.Token{}, sym.Name)
	}
	inProgress[sym.Name] = true
	defer delete(inProgress, sym.Name)

	expansion, err := annotateExpressionText(sym.Expansion, symtab, inProgress)
	if err != nil {
		return nil, err
	}

	if sym.Level == symbols.LevelUnknown {
		sym.Level = minLevel(expansion)
	}

	return expansion, nil
}

// invertsExpansion reports whether comparison c, written against a
// predicate symbol, asserts the predicate's expansion is false rather than
// true: "p == 0" and "p != 1" both do, since a predicate is a 1-bit field
// whose value is 1 exactly when its expansion holds.
func invertsExpansion(c *expr.Comparison) bool {
	truthy := c.Operand.Value.Uint64() == 1
	switch c.Relop {
	case expr.REq:
		return !truthy
	case expr.RNe:
		return truthy
	default:
		return false
	}
}

// minLevel computes a predicate's measurement level from its (already
// inlined, predicate-free) expansion: Nominal if any referenced symbol is
// Nominal, otherwise Boolean (spec.md §4.1), regardless of how many
// referenced symbols are themselves Ordinal.
func minLevel(n expr.Node) symbols.Level {
	level := symbols.Boolean
	var walk func(expr.Node)
	walk = func(n expr.Node) {
		switch v := n.(type) {
		case *expr.Comparison:
			if v.Symbol.Level == symbols.Nominal {
				level = symbols.Nominal
			}
		case *expr.Conjunction:
			for _, c := range v.Children {
				walk(c)
			}
		case *expr.Disjunction:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return level
}

// combineAll folds children into a single AND/OR node, flattening any
// same-kind nesting a predicate's inlined expansion introduced (spec.md §3
// invariant 1: no same-kind connective nested directly inside its own
// kind). children always has at least two elements, since it was built from
// an already-invariant-honoring Conjunction or Disjunction.
func combineAll(kind string, children []expr.Node) expr.Node {
	result := children[0]
	for _, c := range children[1:] {
		result = expr.Combine(kind, result, c)
	}
	return result
}
