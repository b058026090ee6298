// Package expr implements the matching-expression abstract syntax tree: a
// sum of four variants (Comparison, Conjunction, Disjunction, Boolean) plus
// the structural invariant checks spec.md §3 requires.
//
// The teacher's AST (internal/ast/ast.go) represents every node kind as an
// interface with an Accept(Visitor) method, because a general-purpose
// language has dozens of node kinds and many independent consumers (type
// checker, pretty-printer, evaluator, bytecode compiler). This tree has
// exactly four kinds and every consumer lives in this module, so a sealed
// interface with a type switch in each transformation is the narrower,
// equally idiomatic choice for a closed sum this small (the approach the
// design notes in spec.md §9 call out directly: "a tagged sum" in place of
// the original's untagged union, "an ordered sequence of owned children" in
// place of its intrusive list).
package expr

import (
	"fmt"

	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// Node is the sealed interface implemented by the four AST variants. The
// unexported marker method prevents other packages from adding new
// variants, which matters here: every transformation pass is written as an
// exhaustive type switch and a fifth variant would silently fall through.
type Node interface {
	exprNode()
	fmt.Stringer
}

// Boolean is a literal true/false.
type Boolean struct {
	Value bool
}

func (*Boolean) exprNode() {}
func (b *Boolean) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// Relop is one of the six relational operators.
type Relop int

const (
	REq Relop = iota
	RNe
	RLt
	RLe
	RGt
	RGe
)

var relopStrings = [...]string{"==", "!=", "<", "<=", ">", ">="}

func (r Relop) String() string {
	if r < 0 || int(r) >= len(relopStrings) {
		return "?"
	}
	return relopStrings[r]
}

// Mirror returns the operator obtained by swapping the comparison's
// operands ("a < x" becomes "x > a").
func (r Relop) Mirror() Relop {
	switch r {
	case RLt:
		return RGt
	case RGt:
		return RLt
	case RLe:
		return RGe
	case RGe:
		return RLe
	default:
		return r
	}
}

// Negate returns the logical negation of r.
func (r Relop) Negate() Relop {
	switch r {
	case REq:
		return RNe
	case RNe:
		return REq
	case RLt:
		return RGe
	case RGe:
		return RLt
	case RGt:
		return RLe
	case RLe:
		return RGt
	default:
		return r
	}
}

// IsEqualityOnly reports whether r is == or !=.
func (r Relop) IsEqualityOnly() bool {
	return r == REq || r == RNe
}

// Comparison compares a symbol against a constant operand. The symbol is
// always on the left ("field < constant"), per spec.md §3.
type Comparison struct {
	Symbol *symbols.Symbol
	Relop  Relop

	// Exactly one of the two is populated, gated by Symbol.Width == 0.
	IsString bool
	Str      string
	Operand  subvalue.Masked
}

func (*Comparison) exprNode() {}

func (c *Comparison) String() string {
	if c.IsString {
		return fmt.Sprintf("%s %s %q", c.Symbol.Name, c.Relop, c.Str)
	}
	return fmt.Sprintf("%s %s %s", c.Symbol.Name, c.Relop, c.Operand)
}

// NewStringComparison builds a Comparison against a string literal operand.
func NewStringComparison(sym *symbols.Symbol, relop Relop, s string) *Comparison {
	return &Comparison{Symbol: sym, Relop: relop, IsString: true, Str: s}
}

// NewMaskedComparison builds a Comparison against a (value, mask) operand.
func NewMaskedComparison(sym *symbols.Symbol, relop Relop, operand subvalue.Masked) *Comparison {
	return &Comparison{Symbol: sym, Relop: relop, Operand: operand}
}

// Conjunction is the logical AND of two or more children, none of which is
// itself a Conjunction (spec.md §3 invariant 1).
type Conjunction struct {
	Children []Node
}

func (*Conjunction) exprNode() {}
func (c *Conjunction) String() string { return joinChildren(c.Children, " && ") }

// Disjunction is the logical OR of two or more children, none of which is
// itself a Disjunction.
type Disjunction struct {
	Children []Node
}

func (*Disjunction) exprNode() {}
func (d *Disjunction) String() string { return joinChildren(d.Children, " || ") }

func joinChildren(children []Node, sep string) string {
	s := ""
	for i, c := range children {
		if i > 0 {
			s += sep
		}
		_, isAnd := c.(*Conjunction)
		_, isOr := c.(*Disjunction)
		if isAnd || isOr {
			s += "(" + c.String() + ")"
		} else {
			s += c.String()
		}
	}
	return s
}

// Combine builds an AND or OR node out of a and b, flattening same-type
// children the way expr_combine does in the original: combining two
// Conjunctions (or two Disjunctions) of the same kind yields one node whose
// children are the concatenation, never a nested pair.
func Combine(kind string, a, b Node) Node {
	switch kind {
	case "and":
		return combine(a, b, func(n Node) ([]Node, bool) {
			c, ok := n.(*Conjunction)
			if !ok {
				return nil, false
			}
			return c.Children, true
		}, func(children []Node) Node { return &Conjunction{Children: children} })
	case "or":
		return combine(a, b, func(n Node) ([]Node, bool) {
			d, ok := n.(*Disjunction)
			if !ok {
				return nil, false
			}
			return d.Children, true
		}, func(children []Node) Node { return &Disjunction{Children: children} })
	default:
		panic("expr: Combine: unknown kind " + kind)
	}
}

func combine(a, b Node, split func(Node) ([]Node, bool), build func([]Node) Node) Node {
	var children []Node
	if ac, ok := split(a); ok {
		children = append(children, ac...)
	} else {
		children = append(children, a)
	}
	if bc, ok := split(b); ok {
		children = append(children, bc...)
	} else {
		children = append(children, b)
	}
	return build(children)
}

// Negate pushes a logical NOT through n: De Morgan for connectives, relop
// negation for comparisons, flip for Boolean literals. Used both by the
// parser (desugaring a leading "!") and by the annotator (inlining a
// negated predicate reference).
func Negate(n Node) Node {
	switch v := n.(type) {
	case *Boolean:
		return &Boolean{Value: !v.Value}
	case *Comparison:
		cp := *v
		cp.Relop = v.Relop.Negate()
		return &cp
	case *Conjunction:
		children := make([]Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = Negate(c)
		}
		return foldCombine("or", children)
	case *Disjunction:
		children := make([]Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = Negate(c)
		}
		return foldCombine("and", children)
	default:
		panic(fmt.Sprintf("expr: Negate: unknown node type %T", n))
	}
}

func foldCombine(kind string, children []Node) Node {
	result := children[0]
	for _, c := range children[1:] {
		result = Combine(kind, result, c)
	}
	return result
}

// Clone deep-copies n. Kept as a first-class operation (matching
// expr_clone in the original) even though Go's GC removes the
// memory-management motivation for it: a caller that wants to run the
// transform pipeline while still holding the pre-transform tree needs an
// explicit copy, since every transform in this module consumes its input.
// Only this package's tests call it.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Boolean:
		cp := *v
		return &cp
	case *Comparison:
		cp := *v
		return &cp
	case *Conjunction:
		children := make([]Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = Clone(c)
		}
		return &Conjunction{Children: children}
	case *Disjunction:
		children := make([]Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = Clone(c)
		}
		return &Disjunction{Children: children}
	default:
		panic(fmt.Sprintf("expr: Clone: unknown node type %T", n))
	}
}
