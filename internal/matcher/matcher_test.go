package matcher

import (
	"testing"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/fields"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// testSymtab builds the symbol table spec.md §8's end-to-end scenarios use:
// eth.type (width 16, Ordinal, must_crossproduct), ip.proto (width 8),
// tcp.src/tcp.dst (width 16, Ordinal).
func testSymtab(t *testing.T) *symbols.Table {
	t.Helper()
	tbl := symbols.NewTable()
	mustAddField(t, tbl, "eth.type", 16, true, "", true)
	mustAddField(t, tbl, "ip.proto", 8, false, "", false)
	mustAddField(t, tbl, "tcp.src", 16, true, "", false)
	mustAddField(t, tbl, "tcp.dst", 16, true, "", false)
	return tbl
}

func mustAddField(t *testing.T, tbl *symbols.Table, name string, width int, maskable bool, prereqs string, mustCrossproduct bool) *symbols.Symbol {
	t.Helper()
	sym, err := tbl.AddField(name, fields.NewIntDescriptor(name, width, maskable), prereqs, mustCrossproduct)
	if err != nil {
		t.Fatalf("AddField(%s): %v", name, err)
	}
	return sym
}

func eq(sym *symbols.Symbol, n uint64) *expr.Comparison {
	return expr.NewMaskedComparison(sym, expr.REq, subvalue.Exact(sym.Width, n))
}

func TestToMatchesBooleanTrue(t *testing.T) {
	ms, count, err := ToMatches(&expr.Boolean{Value: true}, nil)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if count != 0 {
		t.Errorf("conjunction count = %d, want 0", count)
	}
	if ms.Len() != 1 || ms.Matches()[0].String() != "*" {
		t.Errorf("expected a single wildcard match, got %v", ms.Matches())
	}
}

func TestToMatchesBooleanFalse(t *testing.T) {
	ms, count, err := ToMatches(&expr.Boolean{Value: false}, nil)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if count != 0 || ms.Len() != 0 {
		t.Errorf("expected zero matches, got %d (conjunction count %d)", ms.Len(), count)
	}
}

func TestToMatchesSingleComparison(t *testing.T) {
	tbl := testSymtab(t)
	ethType, _ := tbl.Lookup("eth.type")

	ms, count, err := ToMatches(eq(ethType, 0x800), nil)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if count != 0 {
		t.Errorf("conjunction count = %d, want 0", count)
	}
	if ms.Len() != 1 {
		t.Fatalf("expected one match, got %d", ms.Len())
	}
	got := ms.Matches()[0]
	if len(got.Fields) != 1 || got.Fields[0].Symbol != "eth.type" || !got.Fields[0].Operand.Equal(subvalue.Exact(16, 0x800)) {
		t.Errorf("got %v", got)
	}
}

func TestToMatchesSingleDimensionNoConjunctionGroup(t *testing.T) {
	tbl := testSymtab(t)
	ethType, _ := tbl.Lookup("eth.type")
	ipProto, _ := tbl.Lookup("ip.proto")
	tcpSrc, _ := tbl.Lookup("tcp.src")

	var clauses []expr.Node
	for _, v := range []uint64{1, 2, 3} {
		clauses = append(clauses, &expr.Conjunction{Children: []expr.Node{
			eq(ethType, 0x800), eq(ipProto, 6), eq(tcpSrc, v),
		}})
	}
	root := &expr.Disjunction{Children: clauses}

	ms, count, err := ToMatches(root, nil)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if count != 0 {
		t.Errorf("conjunction count = %d, want 0 (single varying dimension)", count)
	}
	if ms.Len() != 3 {
		t.Fatalf("expected 3 matches, got %d: %v", ms.Len(), ms.Matches())
	}
	for _, m := range ms.Matches() {
		if len(m.Conjunctions) != 0 {
			t.Errorf("match %v should not carry a conjunction tag", m)
		}
		if len(m.Fields) != 3 {
			t.Errorf("match %v should carry eth.type, ip.proto, and tcp.src", m)
		}
	}
}

func TestToMatchesTwoDimensionsFormConjunctionGroup(t *testing.T) {
	tbl := testSymtab(t)
	ethType, _ := tbl.Lookup("eth.type")
	ipProto, _ := tbl.Lookup("ip.proto")
	tcpSrc, _ := tbl.Lookup("tcp.src")
	tcpDst, _ := tbl.Lookup("tcp.dst")

	var clauses []expr.Node
	for _, src := range []uint64{1, 2, 3} {
		for _, dst := range []uint64{4, 5, 6} {
			clauses = append(clauses, &expr.Conjunction{Children: []expr.Node{
				eq(ethType, 0x800), eq(ipProto, 6), eq(tcpSrc, src), eq(tcpDst, dst),
			}})
		}
	}
	root := &expr.Disjunction{Children: clauses}

	ms, count, err := ToMatches(root, nil)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if count != 1 {
		t.Errorf("conjunction count = %d, want 1", count)
	}
	if ms.Len() != 6 {
		t.Fatalf("expected 6 matches, got %d: %v", ms.Len(), ms.Matches())
	}
	for _, m := range ms.Matches() {
		if len(m.Conjunctions) != 1 || m.Conjunctions[0].Of != 2 {
			t.Errorf("match %v should carry a single conjunction tag with k=2", m)
		}
		if len(m.Fields) != 3 {
			t.Errorf("match %v should carry eth.type, ip.proto, and exactly one of tcp.src/tcp.dst", m)
		}
	}
}

func TestToMatchesUnresolvedPortSilentlyPrunesClause(t *testing.T) {
	tbl := symbols.NewTable()
	inport, err := tbl.AddString("inport", fields.NewStringDescriptor("inport"), "")
	if err != nil {
		t.Fatalf("AddString: %v", err)
	}
	ethType := mustAddField(t, tbl, "eth.type", 16, true, "", false)

	root := &expr.Disjunction{Children: []expr.Node{
		&expr.Conjunction{Children: []expr.Node{
			expr.NewStringComparison(inport, expr.REq, "eth0"),
			eq(ethType, 0x800),
		}},
		eq(ethType, 0x806),
	}}

	resolve := func(symbol, name string) (uint64, int, bool) {
		if symbol == "inport" && name == "eth0" {
			return 1, 32, true
		}
		return 0, 0, false
	}

	ms, _, err := ToMatches(root, resolve)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if ms.Len() != 2 {
		t.Fatalf("expected 2 matches, got %d", ms.Len())
	}

	root2 := &expr.Disjunction{Children: []expr.Node{
		&expr.Conjunction{Children: []expr.Node{
			expr.NewStringComparison(inport, expr.REq, "unknown0"),
			eq(ethType, 0x800),
		}},
		eq(ethType, 0x806),
	}}
	ms2, _, err := ToMatches(root2, resolve)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	if ms2.Len() != 1 {
		t.Fatalf("expected the unresolved-port clause to be pruned, leaving 1 match, got %d", ms2.Len())
	}
}

func TestMaskInvariantOnEveryEmittedMatch(t *testing.T) {
	tbl := testSymtab(t)
	ethType, _ := tbl.Lookup("eth.type")
	ms, _, err := ToMatches(eq(ethType, 0x800), nil)
	if err != nil {
		t.Fatalf("ToMatches: %v", err)
	}
	for _, m := range ms.Matches() {
		for _, f := range m.Fields {
			if !f.Operand.Normalized() {
				t.Errorf("match field %v violates value&~mask==0", f)
			}
		}
	}
}
