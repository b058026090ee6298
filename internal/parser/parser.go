// Package parser converts a token stream into a matching-expression AST
// (spec.md §4.2), performing the desugarings the grammar requires in the
// same pass: NOT via De Morgan, reversed comparisons, range comparisons,
// and set membership.
package parser

import (
	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/lexer"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
	"github.com/ovnmatch/matchexpr/internal/symbols"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// Parser implements the grammar in spec.md §4.2 by recursive descent over a
// buffered token stream. The grammar has only four fixed precedence levels
// (or, and, not, primary), so each is written as its own production rather
// than as a single Pratt loop driven by a precedence table the way the
// teacher's general-purpose expression grammar needs.
type Parser struct {
	tokens pipeline.TokenStream
	symtab *symbols.Table
	cur    token.Token
}

// New returns a Parser reading from tokens and resolving identifiers
// against symtab.
func New(tokens pipeline.TokenStream, symtab *symbols.Table) *Parser {
	p := &Parser{tokens: tokens, symtab: symtab}
	p.cur = p.tokens.Next()
	return p
}

// Parse consumes the entire token stream and returns the parsed AST, or the
// first error encountered.
func Parse(tokens pipeline.TokenStream, symtab *symbols.Table) (expr.Node, error) {
	p := New(tokens, symtab)
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.EOF {
		return nil, p.errorf(diagnostics.ErrP001, p.cur, "end of input", p.cur.Type)
	}
	return node, nil
}

// ParseString tokenizes text with a fresh lexer and parses it, implementing
// spec.md §6's parse_string entry point.
func ParseString(text string, symtab *symbols.Table) (expr.Node, error) {
	stream := lexer.NewTokenStream(lexer.New(text))
	return Parse(stream, symtab)
}

func (p *Parser) advance() token.Token {
	tok := p.cur
	p.cur = p.tokens.Next()
	return tok
}

func (p *Parser) expect(t token.TokenType) (token.Token, error) {
	if p.cur.Type != t {
		return token.Token{}, p.errorf(diagnostics.ErrP002, p.cur, string(t))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(code diagnostics.ErrorCode, tok token.Token, args ...interface{}) error {
	return diagnostics.NewPhase(diagnostics.PhaseParser, code, tok, args...)
}

// parseOr implements: or := and ( "||" and )*
func (p *Parser) parseOr() (expr.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.OR {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.Combine("or", left, right)
	}
	return left, nil
}

// parseAnd implements: and := not ( "&&" not )*
func (p *Parser) parseAnd() (expr.Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.AND {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.Combine("and", left, right)
	}
	return left, nil
}

// parseNot implements: not := "!" not | primary. There is no NOT node in
// the AST (spec.md §4.2 requires the negation pushed in during parsing), so
// this unwinds through expr.Negate rather than wrapping the result.
func (p *Parser) parseNot() (expr.Node, error) {
	if p.cur.Type == token.BANG {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.Negate(inner), nil
	}
	return p.parsePrimary()
}

// parsePrimary implements: primary := "(" expr ")" | boolean-literal | cmp
func (p *Parser) parsePrimary() (expr.Node, error) {
	switch p.cur.Type {
	case token.LPAREN:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.TRUE:
		p.advance()
		return &expr.Boolean{Value: true}, nil
	case token.FALSE:
		p.advance()
		return &expr.Boolean{Value: false}, nil
	default:
		return p.parseCmp()
	}
}
