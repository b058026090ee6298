package parser

import (
	"fmt"
	"math/big"
	"net"

	"github.com/ovnmatch/matchexpr/internal/config"
	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// parseCmp implements: cmp := term (relop operand)*, plus the reversed
// ("a < x") and range ("a < x < b") shapes spec.md §4.2 calls out as
// desugared during parsing rather than given their own grammar rule.
func (p *Parser) parseCmp() (expr.Node, error) {
	if isConstantStart(p.cur.Type) {
		peeked := p.tokens.Peek(2)
		if len(peeked) == 2 && token.IsRelop(peeked[0].Type) && peeked[1].Type == token.IDENT {
			constTok := p.advance()
			relopTok := p.advance()
			identTok, sym, err := p.resolveTerm()
			if err != nil {
				return nil, err
			}
			if err := p.checkRelopLegal(sym, identTok, relopTok); err != nil {
				return nil, err
			}
			first, err := p.buildComparison(sym, identTok, tokenRelop(config.RelopMirror[relopTok.Type]), constTok)
			if err != nil {
				return nil, err
			}
			return p.maybeChainRange(sym, identTok, first)
		}
		return nil, p.errorf(diagnostics.ErrP001, p.cur, "an identifier or a constant followed by a relational operator and an identifier", p.cur.Type)
	}

	identTok, sym, err := p.resolveTerm()
	if err != nil {
		return nil, err
	}

	if !token.IsRelop(p.cur.Type) {
		return p.bareTerm(sym, identTok)
	}

	relopTok := p.advance()
	first, err := p.parseComparisonRHS(sym, identTok, relopTok)
	if err != nil {
		return nil, err
	}
	return p.maybeChainRange(sym, identTok, first)
}

// maybeChainRange consumes a second (relop operand) pair applied to the
// same term, for range syntax like "a < x < b", and ANDs the two
// comparisons together. It only fires when first is a single Comparison;
// a set-membership desugaring never chains into a second bound.
func (p *Parser) maybeChainRange(sym *symbols.Symbol, identTok token.Token, first expr.Node) (expr.Node, error) {
	if _, ok := first.(*expr.Comparison); !ok {
		return first, nil
	}
	if !token.IsRelop(p.cur.Type) {
		return first, nil
	}
	relopTok := p.advance()
	second, err := p.parseComparisonRHS(sym, identTok, relopTok)
	if err != nil {
		return nil, err
	}
	return expr.Combine("and", first, second), nil
}

// parseComparisonRHS parses the operand following a relop already consumed
// from the stream, including the "{" a, b, c "}" set-membership shape.
func (p *Parser) parseComparisonRHS(sym *symbols.Symbol, identTok token.Token, relopTok token.Token) (expr.Node, error) {
	if err := p.checkRelopLegal(sym, identTok, relopTok); err != nil {
		return nil, err
	}
	if p.cur.Type == token.LBRACE {
		return p.parseSet(sym, identTok, relopTok.Type)
	}
	constTok := p.cur
	if !isConstantStart(constTok.Type) {
		return nil, p.errorf(diagnostics.ErrP001, constTok, "a constant or a set literal", constTok.Type)
	}
	p.advance()
	return p.buildComparison(sym, identTok, tokenRelop(relopTok.Type), constTok)
}

// parseSet desugars "x == {a, b, c}" to "x==a || x==b || x==c" and
// "x != {a, b, c}" to "x!=a && x!=b && x!=c" (spec.md §4.2, set membership);
// the latter is built by negating the former via De Morgan rather than
// duplicating the AND-assembly logic.
func (p *Parser) parseSet(sym *symbols.Symbol, identTok token.Token, relop token.TokenType) (expr.Node, error) {
	if relop != token.EQ && relop != token.NE {
		return nil, p.errorf(diagnostics.ErrO001, p.cur)
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	var members []expr.Node
	for {
		constTok := p.cur
		if !isConstantStart(constTok.Type) {
			return nil, p.errorf(diagnostics.ErrP001, p.cur, "a constant", p.cur.Type)
		}
		p.advance()
		cmp, err := p.buildComparison(sym, identTok, expr.REq, constTok)
		if err != nil {
			return nil, err
		}
		members = append(members, cmp)
		if p.cur.Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, p.errorf(diagnostics.ErrO002, identTok)
	}

	result := members[0]
	for _, m := range members[1:] {
		result = expr.Combine("or", result, m)
	}
	if relop == token.NE {
		result = expr.Negate(result)
	}
	return result, nil
}

// resolveTerm parses an identifier and, if followed by a "[" bit-range
// suffix, the inline subfield reference syntax (spec.md §6): name or
// name[lo..hi] or name[bit].
func (p *Parser) resolveTerm() (token.Token, *symbols.Symbol, error) {
	identTok, err := p.expect(token.IDENT)
	if err != nil {
		return token.Token{}, nil, err
	}
	sym, ok := p.symtab.Lookup(identTok.Lexeme)
	if !ok {
		return token.Token{}, nil, p.errorf(diagnostics.ErrU001, identTok, identTok.Lexeme)
	}
	if p.cur.Type != token.LBRACKET {
		return identTok, sym, nil
	}
	sub, err := p.parseInlineSubfield(sym, identTok)
	if err != nil {
		return token.Token{}, nil, err
	}
	return identTok, sub, nil
}

// parseInlineSubfield parses the "[" lo (".." hi)? "]" suffix and builds a
// synthetic subfield symbol over parent, without registering it in the
// symbol table: this syntax is meant for one-off use inside an expression,
// not for naming a reusable symbol (that is what symbols.Table.AddSubfield
// is for).
func (p *Parser) parseInlineSubfield(parent *symbols.Symbol, identTok token.Token) (*symbols.Symbol, error) {
	p.advance() // consume "["

	loTok, err := p.expect(token.INT)
	if err != nil {
		return nil, err
	}
	lo := int(loTok.Literal.(*big.Int).Int64())
	hi := lo
	if p.cur.Type == token.RANGE {
		p.advance()
		hiTok, err := p.expect(token.INT)
		if err != nil {
			return nil, err
		}
		hi = int(hiTok.Literal.(*big.Int).Int64())
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}

	if parent.Kind != symbols.FieldKind || parent.Level != symbols.Ordinal {
		return nil, p.errorf(diagnostics.ErrT004, identTok, fmt.Sprintf("%q is not an Ordinal field", parent.Name))
	}
	if lo < 0 || hi < lo || hi >= parent.Width {
		return nil, p.errorf(diagnostics.ErrT004, identTok, fmt.Sprintf("bit range [%d..%d] out of bounds for %q (width %d)", lo, hi, parent.Name, parent.Width))
	}

	return &symbols.Symbol{
		Name:   fmt.Sprintf("%s[%d..%d]", parent.Name, lo, hi),
		Width:  hi - lo + 1,
		Kind:   symbols.SubfieldKind,
		Level:  symbols.Ordinal,
		Parent: parent,
		Lo:     lo,
		Hi:     hi,
	}, nil
}

// bareTerm handles a term used with no following relop: legal only for a
// predicate (whose truth is asserted directly, e.g. "ip4 && ...") or a
// single-bit field, both of which desugar to "symbol == 1".
func (p *Parser) bareTerm(sym *symbols.Symbol, identTok token.Token) (expr.Node, error) {
	if sym.Kind == symbols.PredicateKind || sym.Width == 1 {
		return expr.NewMaskedComparison(sym, expr.REq, subvalue.Exact(sym.Width, 1)), nil
	}
	return nil, p.errorf(diagnostics.ErrP001, identTok, "a relational operator", "end of expression")
}

// checkRelopLegal enforces spec.md §3's level gating: Ordinal symbols allow
// all six relops, Nominal and Boolean allow only ==/!=. A predicate symbol
// whose level has not yet been computed (it is resolved lazily by the
// annotator) is conservatively restricted to ==/!= at parse time.
func (p *Parser) checkRelopLegal(sym *symbols.Symbol, identTok token.Token, relopTok token.Token) error {
	equalityOnly := relopTok.Type == token.EQ || relopTok.Type == token.NE
	if sym.Level == symbols.LevelUnknown {
		if !equalityOnly {
			return p.errorf(diagnostics.ErrT001, identTok, relopTok.Lexeme, "predicate", sym.Name)
		}
		return nil
	}
	if !sym.Level.AllowsRelop(equalityOnly) {
		return p.errorf(diagnostics.ErrT001, identTok, relopTok.Lexeme, sym.Level.String(), sym.Name)
	}
	return nil
}

// buildComparison converts a single constant token into a Comparison
// against sym, dispatching to a string or numeric operand by the symbol's
// own type (spec.md §3: "operand kind must match the symbol's string-ness").
func (p *Parser) buildComparison(sym *symbols.Symbol, identTok token.Token, relop expr.Relop, constTok token.Token) (*expr.Comparison, error) {
	if sym.IsString() {
		if constTok.Type != token.STRING {
			return nil, p.errorf(diagnostics.ErrT002, constTok, sym.Name, "expected a string operand")
		}
		return expr.NewStringComparison(sym, relop, constTok.Literal.(string)), nil
	}
	if constTok.Type == token.STRING {
		return nil, p.errorf(diagnostics.ErrT002, constTok, sym.Name, "expected a numeric operand")
	}
	n, err := literalToBigInt(constTok)
	if err != nil {
		return nil, p.errorf(diagnostics.ErrL002, constTok, constTok.Lexeme, err.Error())
	}
	if n.BitLen() > sym.Width {
		return nil, p.errorf(diagnostics.ErrT003, constTok, sym.Name, sym.Width)
	}
	return expr.NewMaskedComparison(sym, relop, subvalue.ExactBig(sym.Width, n)), nil
}

// isConstantStart reports whether t begins a constant operand.
func isConstantStart(t token.TokenType) bool {
	switch t {
	case token.INT, token.HEX, token.IPV4, token.IPV6, token.MAC, token.STRING:
		return true
	}
	return false
}

// tokenRelop converts a relational operator token into its expr.Relop.
func tokenRelop(t token.TokenType) expr.Relop {
	switch t {
	case token.EQ:
		return expr.REq
	case token.NE:
		return expr.RNe
	case token.LT:
		return expr.RLt
	case token.LE:
		return expr.RLe
	case token.GT:
		return expr.RGt
	case token.GE:
		return expr.RGe
	}
	panic("parser: not a relop token: " + string(t))
}

// literalToBigInt decodes a lexer-produced literal (an *big.Int, a
// net.IP, or a net.HardwareAddr) into its unsigned big-endian integer
// value.
func literalToBigInt(tok token.Token) (*big.Int, error) {
	switch tok.Type {
	case token.INT, token.HEX:
		n, ok := tok.Literal.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("malformed numeric literal")
		}
		return n, nil
	case token.IPV4:
		ip, ok := tok.Literal.(net.IP)
		if !ok || ip.To4() == nil {
			return nil, fmt.Errorf("malformed IPv4 literal")
		}
		return new(big.Int).SetBytes(ip.To4()), nil
	case token.IPV6:
		ip, ok := tok.Literal.(net.IP)
		if !ok {
			return nil, fmt.Errorf("malformed IPv6 literal")
		}
		return new(big.Int).SetBytes(ip.To16()), nil
	case token.MAC:
		mac, ok := tok.Literal.(net.HardwareAddr)
		if !ok {
			return nil, fmt.Errorf("malformed MAC literal")
		}
		return new(big.Int).SetBytes([]byte(mac)), nil
	default:
		return nil, fmt.Errorf("not a numeric literal: %s", tok.Type)
	}
}
