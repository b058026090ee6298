package matcher

import (
	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// Processor is the emit pipeline stage: it walks the normalized AST the
// transform stages left on the context and produces the final MatchSet.
type Processor struct {
	// Resolve resolves string-typed operands (port names and the like) to
	// numeric values. A nil Resolve rejects every string-typed comparison,
	// which is correct for callers with no such symbols registered.
	Resolve ResolvePort
}

func (ep *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		ctx.AddError(diagnostics.NewPhase(diagnostics.PhaseEmit, diagnostics.ErrP001, token.Token{}, "a normalized AST", "nil"))
		return ctx
	}

	resolve := ep.Resolve
	if resolve == nil {
		resolve = func(symbol, name string) (uint64, int, bool) { return 0, 0, false }
	}

	matches, count, err := ToMatches(ctx.AstRoot, resolve)
	if err != nil {
		ctx.AddError(diagnostics.NewPhase(diagnostics.PhaseEmit, diagnostics.ErrP001, token.Token{}, "a resolvable clause", err.Error()))
		return ctx
	}
	ctx.Matches = matches
	ctx.ConjunctionCount = count
	return ctx
}
