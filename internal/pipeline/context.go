package pipeline

import (
	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/matcher"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// PipelineContext holds all the data passed between compilation stages:
// lexing, parsing, annotation, simplification, normalization, and match
// emission (spec.md §4).
type PipelineContext struct {
	SourceCode  string
	TokenStream TokenStream
	AstRoot     expr.Node
	SymbolTable *symbols.Table

	// ConjunctionCount is set by the emit stage: the number of conjunction
	// ids the emitter allocated (spec.md §4.6).
	ConjunctionCount uint32

	Matches matcher.MatchSet

	Errors []*diagnostics.CompileError
}

// NewPipelineContext creates a PipelineContext for compiling source against
// the given symbol table.
func NewPipelineContext(source string, symtab *symbols.Table) *PipelineContext {
	return &PipelineContext{
		SourceCode:  source,
		SymbolTable: symtab,
	}
}

// Failed reports whether any stage has recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}

// AddError appends a diagnostic to the context.
func (c *PipelineContext) AddError(err *diagnostics.CompileError) {
	c.Errors = append(c.Errors, err)
}
