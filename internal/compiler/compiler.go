// Package compiler provides the facade that wires the lexer, parser,
// annotation, simplification, normalization, and match-emission stages into
// a single Compile call (spec.md §4's "strictly linear" pipeline).
package compiler

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ovnmatch/matchexpr/internal/lexer"
	"github.com/ovnmatch/matchexpr/internal/matcher"
	"github.com/ovnmatch/matchexpr/internal/parser"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
	"github.com/ovnmatch/matchexpr/internal/symbols"
	"github.com/ovnmatch/matchexpr/internal/transform"
)

// Compiler runs the full matching-expression pipeline against a fixed
// symbol table. It carries no state between calls beyond the table and the
// logger; a Compiler is safe for reuse across many Compile calls as long as
// the symbol table is not being concurrently mutated (symbols.Table itself
// makes no concurrency guarantee, per spec.md §5).
type Compiler struct {
	SymbolTable *symbols.Table
	Resolve     matcher.ResolvePort

	log *slog.Logger
}

// New returns a Compiler over the given symbol table, logging to stderr at
// the default level. Use WithLogger to attach a differently configured one.
func New(symtab *symbols.Table) *Compiler {
	return &Compiler{
		SymbolTable: symtab,
		log:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

// WithLogger returns a copy of c that logs through logger instead.
func (c *Compiler) WithLogger(logger *slog.Logger) *Compiler {
	cp := *c
	cp.log = logger
	return &cp
}

// Result is everything a successful Compile call produces: the emitted
// matches plus the conjunctive-match group count the emitter allocated
// (spec.md §4.6).
type Result struct {
	Matches          matcher.MatchSet
	ConjunctionCount uint32
}

// Compile runs text through every pipeline stage in order and returns the
// resulting matches, or the first diagnostic any stage recorded.
// Each call is stamped with a fresh request ID for correlating its log
// lines, the way a production compiler facade would tag an inbound request.
func (c *Compiler) Compile(ctx context.Context, text string) (Result, error) {
	requestID := uuid.New()
	log := c.log.With("request_id", requestID.String())

	log.DebugContext(ctx, "compile starting", "source", text)

	pctx := pipeline.NewPipelineContext(text, c.SymbolTable)
	p := pipeline.New(
		&lexer.Processor{},
		&parser.Processor{},
		&transform.AnnotateProcessor{},
		&transform.SimplifyProcessor{},
		&transform.NormalizeProcessor{},
		&matcher.Processor{Resolve: c.Resolve},
	)
	out := p.Run(pctx)

	if out.Failed() {
		err := out.Errors[0]
		log.WarnContext(ctx, "compile failed", "error", err.Error(), "phase", err.Phase, "code", err.Code)
		return Result{}, err
	}

	log.InfoContext(ctx, "compile succeeded", "matches", out.Matches.Len(), "conjunctions", out.ConjunctionCount)
	return Result{Matches: out.Matches, ConjunctionCount: out.ConjunctionCount}, nil
}

// CompileAll compiles every text in order against the same symbol table,
// stopping at the first error and returning the results compiled before it.
// Each text goes through Compile, so each gets its own request ID.
func (c *Compiler) CompileAll(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		r, err := c.Compile(ctx, text)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
