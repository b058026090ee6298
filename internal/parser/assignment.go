package parser

import (
	"encoding/binary"
	"fmt"

	"github.com/ovnmatch/matchexpr/internal/diagnostics"
	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/lexer"
	"github.com/ovnmatch/matchexpr/internal/pipeline"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
	"github.com/ovnmatch/matchexpr/internal/token"
)

// ResolvePort resolves a string-typed operand (a port name) to a numeric
// value and its bit width, mirroring matcher.ResolvePort without importing
// the matcher package (this package sits upstream of it in the pipeline).
type ResolvePort func(symbol, name string) (value uint64, width int, ok bool)

// ParseAssignment implements spec.md §6's auxiliary parse_assignment entry
// point: "name = value" or "name[lo..hi] = value", where name is a
// registered field or subfield. It returns an encoded action payload and
// the assigned symbol's prerequisite expression tree, parsed but not
// annotated: predicate references in it are not inlined and nested
// prerequisites are not conjoined (transform.Annotate does both). Actual action encoding
// (the bytes a flow-mod action buffer expects) is an external, out-of-
// scope concern (spec.md §1); ParseAssignment commits only to producing a
// deterministic, self-describing byte encoding downstream code can decode
// or simply replace with a real encoder.
func ParseAssignment(tokens pipeline.TokenStream, symtab *symbols.Table, resolve ResolvePort) ([]byte, expr.Node, error) {
	p := New(tokens, symtab)

	identTok, sym, err := p.resolveTerm()
	if err != nil {
		return nil, nil, err
	}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, nil, err
	}

	operand, err := p.parseAssignmentOperand(sym, identTok, resolve)
	if err != nil {
		return nil, nil, err
	}

	if p.cur.Type != token.EOF {
		return nil, nil, p.errorf(diagnostics.ErrP001, p.cur, "end of input", p.cur.Type)
	}

	prereqs, err := prereqTree(sym, symtab)
	if err != nil {
		return nil, nil, err
	}

	return encodeAssignment(sym, operand), prereqs, nil
}

// ParseAssignmentString tokenizes text and parses a single assignment from
// it, the assignment analogue of ParseString.
func ParseAssignmentString(text string, symtab *symbols.Table, resolve ResolvePort) ([]byte, expr.Node, error) {
	stream := lexer.NewTokenStream(lexer.New(text))
	return ParseAssignment(stream, symtab, resolve)
}

// parseAssignmentOperand parses the value on the right of "=": a numeric
// constant for an integer-typed symbol, or a string literal resolved
// through resolve for a string-typed symbol (the same lookup_port
// collaborator the emitter uses for string-typed comparisons).
func (p *Parser) parseAssignmentOperand(sym *symbols.Symbol, identTok token.Token, resolve ResolvePort) (subvalue.Masked, error) {
	constTok := p.cur
	if !isConstantStart(constTok.Type) {
		return subvalue.Masked{}, p.errorf(diagnostics.ErrP001, constTok, "a constant", constTok.Type)
	}
	p.advance()

	if sym.IsString() {
		if constTok.Type != token.STRING {
			return subvalue.Masked{}, p.errorf(diagnostics.ErrT002, constTok, sym.Name, "expected a string operand")
		}
		if resolve == nil {
			return subvalue.Masked{}, fmt.Errorf("parser: %q assigned a string value but no port resolver was supplied", sym.Name)
		}
		value, width, ok := resolve(sym.Name, constTok.Literal.(string))
		if !ok {
			return subvalue.Masked{}, fmt.Errorf("parser: could not resolve %q=%q", sym.Name, constTok.Literal.(string))
		}
		return subvalue.Exact(width, value), nil
	}

	if constTok.Type == token.STRING {
		return subvalue.Masked{}, p.errorf(diagnostics.ErrT002, constTok, sym.Name, "expected a numeric operand")
	}
	n, err := literalToBigInt(constTok)
	if err != nil {
		return subvalue.Masked{}, p.errorf(diagnostics.ErrL002, constTok, constTok.Lexeme, err.Error())
	}
	if n.BitLen() > sym.Width {
		return subvalue.Masked{}, p.errorf(diagnostics.ErrT003, constTok, sym.Name, sym.Width)
	}
	return subvalue.ExactBig(sym.Width, n), nil
}

// prereqTree resolves sym's Prereqs string into an AST, the same
// conjunction an equality comparison against sym would carry (spec.md
// §4.1, §4.3). A synthetic inline-subfield symbol has no Prereqs of its
// own; its parent's are used instead, since assigning into a subfield
// requires the same prerequisites as the parent field.
func prereqTree(sym *symbols.Symbol, symtab *symbols.Table) (expr.Node, error) {
	prereqs := sym.Prereqs
	if sym.Kind == symbols.SubfieldKind && sym.Parent != nil {
		prereqs = sym.Parent.Prereqs
	}
	if prereqs == "" {
		return &expr.Boolean{Value: true}, nil
	}
	return ParseString(prereqs, symtab)
}

// encodeAssignment produces a deterministic byte encoding of an assignment
// target and value: a length-prefixed field name, the bit range assigned
// (the whole symbol's width when it is not itself a subfield), and the
// masked value's bytes. This is not a wire format any real action encoder
// is expected to consume verbatim; it exists so ParseAssignment has
// something concrete to return and round-trip in tests.
func encodeAssignment(sym *symbols.Symbol, operand subvalue.Masked) []byte {
	name := sym.Name
	lo, hi := 0, operand.Value.Width-1
	if sym.Kind == symbols.SubfieldKind {
		name = sym.Parent.Name
		lo, hi = sym.Lo, sym.Hi
	}

	buf := make([]byte, 0, len(name)+9+2*((sym.Width+7)/8))
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(name)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, name...)
	buf = append(buf, byte(lo), byte(hi))

	byteWidth := (operand.Value.Width + 7) / 8
	valueBytes := make([]byte, byteWidth)
	operand.Value.Bits.FillBytes(valueBytes)
	maskBytes := make([]byte, byteWidth)
	operand.Mask.Bits.FillBytes(maskBytes)

	buf = append(buf, valueBytes...)
	buf = append(buf, maskBytes...)
	return buf
}
