package pipeline

import (
	"github.com/ovnmatch/matchexpr/internal/token"
)

// Processor is any component that can process a PipelineContext and return
// a (possibly the same) modified context.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// TokenStream defines the contract for a buffered token stream: the
// parser's only view onto the lexer.
type TokenStream interface {
	// Next consumes and returns the next token from the stream.
	Next() token.Token

	// Peek returns the next n tokens without consuming them. If the
	// stream has fewer than n tokens remaining, it returns all of them.
	Peek(n int) []token.Token
}
