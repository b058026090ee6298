package diagnostics

import (
	"fmt"

	"github.com/ovnmatch/matchexpr/internal/token"
)

// Phase represents the processing phase where an error occurred.
type Phase string

const (
	PhaseLexer     Phase = "lex"
	PhaseParser    Phase = "parse"
	PhaseSymtab    Phase = "symtab"
	PhaseAnnotate  Phase = "annotate"
	PhaseSimplify  Phase = "simplify"
	PhaseNormalize Phase = "normalize"
	PhaseEmit      Phase = "emit"
)

type ErrorCode string

const (
	// Lexical/syntax errors.
	ErrL001 ErrorCode = "L001" // invalid character
	ErrL002 ErrorCode = "L002" // malformed constant literal

	// Parser/syntax errors.
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected closing delimiter

	// Unknown symbol.
	ErrU001 ErrorCode = "U001" // identifier not in the symbol table

	// Type/level errors.
	ErrT001 ErrorCode = "T001" // relop not permitted on symbol's level
	ErrT002 ErrorCode = "T002" // string operator used with non-string operand or vice versa
	ErrT003 ErrorCode = "T003" // numeric operand width exceeds symbol width
	ErrT004 ErrorCode = "T004" // invalid subfield bounds

	// Predicate cycle.
	ErrC001 ErrorCode = "C001" // predicate expansion refers to itself transitively

	// Operand errors.
	ErrO001 ErrorCode = "O001" // set used with a relop other than ==/!=
	ErrO002 ErrorCode = "O002" // empty set literal

	// Registration errors.
	ErrR001 ErrorCode = "R001" // duplicate symbol name
	ErrR002 ErrorCode = "R002" // invalid identifier
	ErrR003 ErrorCode = "R003" // subfield over non-Ordinal or unknown parent
)

var errorTemplates = map[ErrorCode]string{
	ErrL001: "invalid character: %q",
	ErrL002: "malformed constant literal: %q: %s",
	ErrP001: "unexpected token: expected %s, got %s",
	ErrP002: "expected closing %q",
	ErrU001: "unknown symbol: %q",
	ErrT001: "operator %s is not permitted on %s symbol %q",
	ErrT002: "operand type mismatch for %q: %s",
	ErrT003: "operand width exceeds width of %q (%d bits)",
	ErrT004: "invalid subfield bounds for %q: %s",
	ErrC001: "predicate cycle detected: %s",
	ErrO001: "set literal is only valid with == or !=",
	ErrO002: "set literal must not be empty",
	ErrR001: "symbol %q is already registered",
	ErrR002: "%q is not a valid identifier",
	ErrR003: "subfield %q: %s",
}

// CompileError is the error type the lexer, parser and annotator report and
// that pipeline stages record on a PipelineContext. Some entry points return
// other errors: symbol registration returns *symbols.RegistrationError, and
// matcher.ToMatches, the cache and ParseAssignment's port resolution return
// plain fmt errors.
type CompileError struct {
	Code  ErrorCode
	Phase Phase
	Args  []interface{}
	Token token.Token
}

func (e *CompileError) Error() string {
	template, ok := errorTemplates[e.Code]
	if !ok {
		return fmt.Sprintf("unknown error code: %s", e.Code)
	}
	message := fmt.Sprintf(template, e.Args...)

	phaseStr := ""
	if e.Phase != "" {
		phaseStr = fmt.Sprintf("[%s] ", e.Phase)
	}

	if e.Token.Line > 0 {
		return fmt.Sprintf("%serror at %d:%d [%s]: %s", phaseStr, e.Token.Line, e.Token.Column, e.Code, message)
	}
	return fmt.Sprintf("%serror [%s]: %s", phaseStr, e.Code, message)
}

// New creates an error with just a code and a token.
func New(code ErrorCode, tok token.Token, args ...interface{}) *CompileError {
	return &CompileError{Code: code, Token: tok, Args: args}
}

// NewPhase creates an error tagged with the phase it was raised in.
func NewPhase(phase Phase, code ErrorCode, tok token.Token, args ...interface{}) *CompileError {
	return &CompileError{Code: code, Phase: phase, Token: tok, Args: args}
}
