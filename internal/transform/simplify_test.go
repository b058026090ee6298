package transform

import (
	"testing"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/fields"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// TestSimplifyLowersLessThanToPrefixMask exercises spec.md §8 scenario 6:
// tcp.src < 1024 lowers to the single block value=0 mask=0xfc00, since
// 1024 == 0x400 and [0, 0x400) is exactly covered by one 6-bit prefix.
func TestSimplifyLowersLessThanToPrefixMask(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "tcp.src < 1024", tab)
	annotated, err := Annotate(node, tab)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	simplified := Simplify(annotated)

	// annotated is "eth.type == 0x800 && ip.proto == 6 && tcp.src < 1024"
	// after the tcp prereq is inlined; the relational comparison is
	// somewhere inside it.
	var found *expr.Comparison
	var walk func(expr.Node)
	walk = func(n expr.Node) {
		switch v := n.(type) {
		case *expr.Comparison:
			if v.Symbol.Name == "tcp.src" {
				found = v
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
	walk(simplified)
	if found == nil {
		t.Fatalf("expected a surviving tcp.src comparison in %s", simplified)
	}
	if found.Relop != expr.REq {
		t.Fatalf("expected the lowered comparison to be ==, got %s", found.Relop)
	}
	want := subvalue.Masked{Value: subvalue.New(16, 0), Mask: subvalue.New(16, 0xfc00)}
	if !found.Operand.Equal(want) {
		t.Errorf("got operand %s, want %s", found.Operand, want)
	}
}

func TestSimplifyFullDomainRangeCollapsesToTrue(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "tcp.src >= 0", tab)
	annotated, err := Annotate(node, tab)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	simplified := Simplify(annotated)
	conj, ok := simplified.(*expr.Conjunction)
	if !ok {
		t.Fatalf("expected the prereq conjunction to survive, got %T", simplified)
	}
	for _, c := range conj.Children {
		if b, ok := c.(*expr.Boolean); ok && !b.Value {
			t.Errorf("did not expect a false child in %s", simplified)
		}
	}
}

func TestSimplifyConstantFolding(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "true && eth.type == 0x800", tab)
	simplified := Simplify(node)
	cmp, ok := simplified.(*expr.Comparison)
	if !ok || cmp.Symbol.Name != "eth.type" {
		t.Errorf("expected true&&X to collapse to X, got %#v", simplified)
	}
}

func TestSimplifyAnnihilatesContradictoryConjunction(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "eth.type == 0x800 && eth.type == 0x86dd", tab)
	simplified := Simplify(node)
	b, ok := simplified.(*expr.Boolean)
	if !ok || b.Value {
		t.Errorf("expected two conflicting equalities on eth.type to annihilate to false, got %#v", simplified)
	}
}

func TestSimplifyDedupsIdenticalDisjuncts(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "eth.type == 0x800 || eth.type == 0x800", tab)
	simplified := Simplify(node)
	if _, ok := simplified.(*expr.Comparison); !ok {
		t.Errorf("expected duplicate disjuncts to dedup to a single Comparison, got %#v", simplified)
	}
}

// TestSimplifyFlattensConjunctionOfConjunction is spec.md §8 property 1:
// honors_invariants must hold after Simplify alone. "a && ((b && c) || (b
// && c))" dedups the inner Disjunction's two identical alternatives down to
// a single surviving Conjunction[b,c]; without splicing that grandchild's
// children into the outer Conjunction, the result is
// Conjunction[a, Conjunction[b,c]], which violates invariant 1 (no
// Conjunction may have a Conjunction child).
func TestSimplifyFlattensConjunctionOfConjunction(t *testing.T) {
	tab := symbols.NewTable()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := tab.AddField(name, fields.NewIntDescriptor(name, 8, true), "", false); err != nil {
			t.Fatalf("AddField(%s): %v", name, err)
		}
	}
	node := mustParse(t, "a == 1 && ((b == 2 && c == 3) || (b == 2 && c == 3))", tab)
	simplified := Simplify(node)
	if !expr.HonorsInvariants(simplified) {
		t.Fatalf("expected simplified output to honor invariants, got %#v", simplified)
	}
	conj, ok := simplified.(*expr.Conjunction)
	if !ok {
		t.Fatalf("expected a flat Conjunction, got %T (%s)", simplified, simplified)
	}
	if len(conj.Children) != 3 {
		t.Errorf("expected 3 flattened children (a, b, c), got %d: %s", len(conj.Children), simplified)
	}
	for _, c := range conj.Children {
		if _, isConj := c.(*expr.Conjunction); isConj {
			t.Errorf("expected no nested Conjunction child, got %s in %s", c, simplified)
		}
	}
}

// TestSimplifyFlattensDisjunctionOfDisjunction is the Disjunction analogue
// of TestSimplifyFlattensConjunctionOfConjunction: "a || ((b || c) && (b ||
// c))" dedups the inner Conjunction's two identical Disjunction[b,c]
// alternatives down to a single surviving Disjunction, which must be
// spliced into the outer Disjunction rather than left as a nested child.
func TestSimplifyFlattensDisjunctionOfDisjunction(t *testing.T) {
	tab := symbols.NewTable()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := tab.AddField(name, fields.NewIntDescriptor(name, 8, true), "", false); err != nil {
			t.Fatalf("AddField(%s): %v", name, err)
		}
	}
	node := mustParse(t, "a == 1 || ((b == 2 || c == 3) && (b == 2 || c == 3))", tab)
	simplified := Simplify(node)
	if !expr.HonorsInvariants(simplified) {
		t.Fatalf("expected simplified output to honor invariants, got %#v", simplified)
	}
	disj, ok := simplified.(*expr.Disjunction)
	if !ok {
		t.Fatalf("expected a flat Disjunction, got %T (%s)", simplified, simplified)
	}
	if len(disj.Children) != 3 {
		t.Errorf("expected 3 flattened children (a, b, c), got %d: %s", len(disj.Children), simplified)
	}
	for _, c := range disj.Children {
		if _, isDisj := c.(*expr.Disjunction); isDisj {
			t.Errorf("expected no nested Disjunction child, got %s in %s", c, simplified)
		}
	}
}

func TestLowerNotEqualCoversEntireDomainExceptValue(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "ip.proto != 6", tab)
	cmp := node.(*expr.Comparison)
	lowered := LowerNotEqual(cmp)

	width := 8
	for v := 0; v < (1 << uint(width)); v++ {
		want := v != 6
		got := evalDisjunction(t, lowered, "ip.proto", uint64(v))
		if got != want {
			t.Errorf("value %d: got %v, want %v", v, got, want)
		}
	}
}

// evalDisjunction evaluates a Disjunction-of-equality-Comparisons tree
// against a single symbol/value assignment, for exhaustive truth-table
// checks (spec.md §8 property 3/4).
func evalDisjunction(t *testing.T, n expr.Node, symbolName string, value uint64) bool {
	t.Helper()
	switch v := n.(type) {
	case *expr.Boolean:
		return v.Value
	case *expr.Comparison:
		if v.Symbol.Name != symbolName {
			t.Fatalf("unexpected symbol %q in test tree", v.Symbol.Name)
		}
		val := subvalue.New(v.Symbol.Width, value)
		masked := val.And(v.Operand.Mask)
		match := masked.Equal(v.Operand.Value)
		if v.Relop == expr.RNe {
			return !match
		}
		return match
	case *expr.Disjunction:
		for _, c := range v.Children {
			if evalDisjunction(t, c, symbolName, value) {
				return true
			}
		}
		return false
	case *expr.Conjunction:
		for _, c := range v.Children {
			if !evalDisjunction(t, c, symbolName, value) {
				return false
			}
		}
		return true
	default:
		t.Fatalf("unexpected node type %T", n)
		return false
	}
}
