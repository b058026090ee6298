package transform

import (
	"testing"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/fields"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

func TestAnnotateInlinesPredicateRecursively(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "tcp", tab)
	annotated, err := Annotate(node, tab)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	// tcp -> ip4 && ip.proto==6 -> (eth.type==0x800) && ip.proto==6
	conj, ok := annotated.(*expr.Conjunction)
	if !ok || len(conj.Children) != 2 {
		t.Fatalf("expected a 2-way Conjunction, got %#v", annotated)
	}
	names := map[string]bool{}
	for _, c := range conj.Children {
		cmp, ok := c.(*expr.Comparison)
		if !ok {
			t.Fatalf("expected every conjunct to be a Comparison, got %T", c)
		}
		names[cmp.Symbol.Name] = true
	}
	if !names["eth.type"] || !names["ip.proto"] {
		t.Errorf("expected eth.type and ip.proto in the expansion, got %v", names)
	}
	if expr.HonorsInvariants(annotated) != true {
		t.Errorf("annotated tree violates structural invariants")
	}
}

func TestAnnotateConjoinsPrereqAtReference(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "tcp.src == 80", tab)
	annotated, err := Annotate(node, tab)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	conj, ok := annotated.(*expr.Conjunction)
	if !ok {
		t.Fatalf("expected a Conjunction (prereq && comparison), got %T", annotated)
	}
	found := false
	for _, c := range conj.Children {
		if cmp, ok := c.(*expr.Comparison); ok && cmp.Symbol.Name == "tcp.src" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected tcp.src == 80 to survive annotation among %#v", conj.Children)
	}
}

func TestAnnotateDetectsPredicateCycle(t *testing.T) {
	tab := symbols.NewTable()
	if _, err := tab.AddPredicate("a", "b"); err != nil {
		t.Fatalf("AddPredicate(a): %v", err)
	}
	if _, err := tab.AddPredicate("b", "a"); err != nil {
		t.Fatalf("AddPredicate(b): %v", err)
	}
	node := mustParse(t, "a", tab)
	if _, err := Annotate(node, tab); err == nil {
		t.Errorf("expected a predicate cycle error")
	}
}

func TestAnnotateComputesPredicateLevelLazily(t *testing.T) {
	tab := scenarioSymtab(t)
	ip4, _ := tab.Lookup("ip4")
	if ip4.Level != symbols.LevelUnknown {
		t.Fatalf("expected ip4's level to start unknown, got %v", ip4.Level)
	}
	node := mustParse(t, "ip4", tab)
	if _, err := Annotate(node, tab); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	// eth.type is Ordinal (maskable), so per spec.md §4.1 a predicate
	// referencing only non-Nominal symbols resolves to Boolean.
	if ip4.Level != symbols.Boolean {
		t.Errorf("expected ip4's level to resolve to Boolean, got %v", ip4.Level)
	}
}

func TestAnnotateComputesNominalPredicateLevel(t *testing.T) {
	tab := symbols.NewTable()
	if _, err := tab.AddField("vlan.tci", fields.NewIntDescriptor("vlan.tci", 16, false), "", false); err != nil {
		t.Fatalf("AddField: %v", err)
	}
	if _, err := tab.AddPredicate("tagged", "vlan.tci == 1"); err != nil {
		t.Fatalf("AddPredicate: %v", err)
	}
	node := mustParse(t, "tagged", tab)
	if _, err := Annotate(node, tab); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	tagged, _ := tab.Lookup("tagged")
	if tagged.Level != symbols.Nominal {
		t.Errorf("expected tagged's level to resolve to Nominal (vlan.tci is non-maskable), got %v", tagged.Level)
	}
}

func TestAnnotateNegatesInlinedPredicateReference(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "ip4 == 0", tab)
	annotated, err := Annotate(node, tab)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	cmp, ok := annotated.(*expr.Comparison)
	if !ok {
		t.Fatalf("expected a single negated Comparison, got %#v", annotated)
	}
	if cmp.Symbol.Name != "eth.type" || cmp.Relop != expr.RNe {
		t.Errorf("expected eth.type != 0x800, got %s", cmp)
	}
}

func TestAnnotateLeavesNoPredicateSymbolsInResult(t *testing.T) {
	tab := scenarioSymtab(t)
	node := mustParse(t, "tcp.src == {1,2,3}", tab)
	annotated, err := Annotate(node, tab)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	var walk func(expr.Node)
	walk = func(n expr.Node) {
		switch v := n.(type) {
		case *expr.Comparison:
			if v.Symbol.Kind == symbols.PredicateKind {
				t.Errorf("found a surviving predicate reference: %s", v.Symbol.Name)
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
	walk(annotated)
}
