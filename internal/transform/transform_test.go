package transform

import (
	"testing"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/fields"
	"github.com/ovnmatch/matchexpr/internal/parser"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// scenarioSymtab builds the symbol table spec.md §8's end-to-end scenarios
// are defined against: eth.type (width 16, Ordinal), the ip4/tcp predicates,
// and tcp.src/tcp.dst (width 16, Ordinal, prereq "tcp").
func scenarioSymtab(t *testing.T) *symbols.Table {
	t.Helper()
	tab := symbols.NewTable()
	if _, err := tab.AddField("eth.type", fields.NewIntDescriptor("eth.type", 16, true), "", true); err != nil {
		t.Fatalf("AddField(eth.type): %v", err)
	}
	if _, err := tab.AddField("ip.proto", fields.NewIntDescriptor("ip.proto", 8, true), "", false); err != nil {
		t.Fatalf("AddField(ip.proto): %v", err)
	}
	if _, err := tab.AddPredicate("ip4", "eth.type == 0x800"); err != nil {
		t.Fatalf("AddPredicate(ip4): %v", err)
	}
	if _, err := tab.AddPredicate("tcp", "ip4 && ip.proto == 6"); err != nil {
		t.Fatalf("AddPredicate(tcp): %v", err)
	}
	if _, err := tab.AddField("tcp.src", fields.NewIntDescriptor("tcp.src", 16, true), "tcp", false); err != nil {
		t.Fatalf("AddField(tcp.src): %v", err)
	}
	if _, err := tab.AddField("tcp.dst", fields.NewIntDescriptor("tcp.dst", 16, true), "tcp", false); err != nil {
		t.Fatalf("AddField(tcp.dst): %v", err)
	}
	return tab
}

func mustParse(t *testing.T, text string, tab *symbols.Table) expr.Node {
	t.Helper()
	node, err := parser.ParseString(text, tab)
	if err != nil {
		t.Fatalf("ParseString(%q): %v", text, err)
	}
	return node
}
