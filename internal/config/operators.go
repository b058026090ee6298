package config

// Operators Configuration
//
// This is the SINGLE SOURCE OF TRUTH for the grammar's fixed operator set
// (spec.md §6). When adding an operator to the grammar, update:
//   1. token/token.go   - add the token type constant
//   2. lexer/lexer.go   - recognize the lexeme
//   3. parser/parser.go - wire precedence and any desugaring

import "github.com/ovnmatch/matchexpr/internal/token"

// Precedence levels (higher binds tighter). The grammar is small enough that
// only three connective levels and one comparison level exist.
const (
	PrecOr      = 1 // ||
	PrecAnd     = 2 // &&
	PrecCompare = 3 // == != < <= > >=
	PrecUnary   = 4 // !
)

// RelopMirror maps a relational operator to the operator obtained by
// swapping its operands: "a < x" desugars to "x > a" using this table
// (spec.md §4.2, reversed comparisons).
var RelopMirror = map[token.TokenType]token.TokenType{
	token.EQ: token.EQ,
	token.NE: token.NE,
	token.LT: token.GT,
	token.GT: token.LT,
	token.LE: token.GE,
	token.GE: token.LE,
}

// RelopNegate maps a relational operator to its logical negation (spec.md
// §4.2: "!(x == c) -> x != c"). The parser does not read this table; NOT
// is pushed through a comparison by expr.Negate.
var RelopNegate = map[token.TokenType]token.TokenType{
	token.EQ: token.NE,
	token.NE: token.EQ,
	token.LT: token.GE,
	token.GE: token.LT,
	token.GT: token.LE,
	token.LE: token.GT,
}

// RelopSymbol renders a relop token back to its source spelling. The
// formatter does not call it; expr.Relop.String spells relops there.
func RelopSymbol(t token.TokenType) string {
	return string(t)
}
