package matcher

import (
	"testing"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
)

func TestProcessorEmitsMatches(t *testing.T) {
	tbl := testSymtab(t)
	ctx := pipeline.NewPipelineContext("", tbl)
	sym, _ := tbl.Lookup("eth.type")
	ctx.AstRoot = eq(sym, 0x800)

	p := &Processor{}
	out := p.Process(ctx)
	if out.Failed() {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
	if out.Matches.Len() != 1 {
		t.Fatalf("expected 1 match, got %d", out.Matches.Len())
	}
}

func TestProcessorNilAstRootFails(t *testing.T) {
	tbl := testSymtab(t)
	ctx := pipeline.NewPipelineContext("", tbl)
	p := &Processor{}
	out := p.Process(ctx)
	if !out.Failed() {
		t.Fatalf("expected a diagnostic for a nil AstRoot")
	}
}

func TestProcessorDropsUnresolvedStringOperand(t *testing.T) {
	tbl := testSymtab(t)
	ctx := pipeline.NewPipelineContext("", tbl)
	sym, _ := tbl.Lookup("eth.type")
	ctx.AstRoot = expr.NewStringComparison(sym, expr.REq, "http")

	p := &Processor{Resolve: func(symbol, name string) (uint64, int, bool) { return 0, 0, false }}
	out := p.Process(ctx)
	if out.Failed() {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
	if out.Matches.Len() != 0 {
		t.Fatalf("expected the unresolved clause to be silently pruned, got %d matches", out.Matches.Len())
	}
}
