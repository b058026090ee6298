package parser

import (
	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// Processor is the parser pipeline stage: it consumes the token stream the
// lexer stage left on the context and produces an AST, recording a
// diagnostic and leaving AstRoot nil on failure rather than panicking.
type Processor struct{}

func (pp *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		ctx.AddError(diagnostics.NewPhase(diagnostics.PhaseParser, diagnostics.ErrP001, token.Token{}, "a token stream", "nil"))
		return ctx
	}

	node, err := Parse(ctx.TokenStream, ctx.SymbolTable)
	if err != nil {
		if ce, ok := err.(*diagnostics.CompileError); ok {
			ctx.AddError(ce)
		}
		return ctx
	}
	ctx.AstRoot = node
	return ctx
}
