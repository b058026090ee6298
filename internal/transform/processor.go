package transform

import (
	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// AnnotateProcessor runs the annotation pass over the AST the parser stage
// left on the context.
type AnnotateProcessor struct{}

func (ap *AnnotateProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		ctx.AddError(diagnostics.NewPhase(diagnostics.PhaseAnnotate, diagnostics.ErrP001, token.Token{}, "a parsed AST", "nil"))
		return ctx
	}
	node, err := Annotate(ctx.AstRoot, ctx.SymbolTable)
	if err != nil {
		if ce, ok := err.(*diagnostics.CompileError); ok {
			ctx.AddError(ce)
		}
		return ctx
	}
	ctx.AstRoot = node
	return ctx
}

// SimplifyProcessor runs the simplification pass over the annotated AST.
type SimplifyProcessor struct{}

func (sp *SimplifyProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		ctx.AddError(diagnostics.NewPhase(diagnostics.PhaseSimplify, diagnostics.ErrP001, token.Token{}, "an annotated AST", "nil"))
		return ctx
	}
	ctx.AstRoot = Simplify(ctx.AstRoot)
	return ctx
}

// NormalizeProcessor runs the DNF normalization pass over the simplified AST.
type NormalizeProcessor struct{}

func (np *NormalizeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		ctx.AddError(diagnostics.NewPhase(diagnostics.PhaseNormalize, diagnostics.ErrP001, token.Token{}, "a simplified AST", "nil"))
		return ctx
	}
	ctx.AstRoot = Normalize(ctx.AstRoot)
	return ctx
}
