package lexer

import (
	"math/big"
	"net"
	"testing"

	"github.com/ovnmatch/matchexpr/internal/token"
)

func allTokens(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func assertTypes(t *testing.T, toks []token.Token, want ...token.TokenType) {
	t.Helper()
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tok := range toks {
		if tok.Type != want[i] {
			t.Errorf("token %d: got %s, want %s (%v)", i, tok.Type, want[i], tok)
		}
	}
}

func TestOperatorsAndDelimiters(t *testing.T) {
	toks := allTokens(t, `== != < <= > >= && || ! ( ) { } [ ] , ..`)
	assertTypes(t, toks,
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE,
		token.AND, token.OR, token.BANG,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.RANGE, token.EOF)
}

func TestIdentifierWithDots(t *testing.T) {
	toks := allTokens(t, `tcp.dst`)
	assertTypes(t, toks, token.IDENT, token.EOF)
	if toks[0].Lexeme != "tcp.dst" {
		t.Errorf("lexeme = %q, want tcp.dst", toks[0].Lexeme)
	}
}

func TestKeywords(t *testing.T) {
	toks := allTokens(t, `true false`)
	assertTypes(t, toks, token.TRUE, token.FALSE, token.EOF)
}

func TestDecimalAndHex(t *testing.T) {
	toks := allTokens(t, `1024 0xFC00`)
	assertTypes(t, toks, token.INT, token.HEX, token.EOF)

	got, ok := toks[0].Literal.(*big.Int)
	if !ok || got.Int64() != 1024 {
		t.Errorf("INT literal = %v, want 1024", toks[0].Literal)
	}
	gotHex, ok := toks[1].Literal.(*big.Int)
	if !ok || gotHex.Int64() != 0xFC00 {
		t.Errorf("HEX literal = %v, want 0xFC00", toks[1].Literal)
	}
}

func TestBitRange(t *testing.T) {
	toks := allTokens(t, `[0..11]`)
	assertTypes(t, toks, token.LBRACKET, token.INT, token.RANGE, token.INT, token.RBRACKET, token.EOF)
}

func TestIPv4Literal(t *testing.T) {
	toks := allTokens(t, `10.0.0.1`)
	assertTypes(t, toks, token.IPV4, token.EOF)
	ip, ok := toks[0].Literal.(net.IP)
	if !ok || ip.String() != "10.0.0.1" {
		t.Errorf("IPv4 literal = %v, want 10.0.0.1", toks[0].Literal)
	}
}

func TestIPv6Literal(t *testing.T) {
	toks := allTokens(t, `fe80::1`)
	assertTypes(t, toks, token.IPV6, token.EOF)
}

func TestMACLiteralStartingWithHexLetter(t *testing.T) {
	// Regression case: a MAC address whose first octet is a letter (a-f)
	// must not be mistaken for the start of an identifier.
	toks := allTokens(t, `aa:bb:cc:dd:ee:ff`)
	assertTypes(t, toks, token.MAC, token.EOF)
	mac, ok := toks[0].Literal.(net.HardwareAddr)
	if !ok || mac.String() != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("MAC literal = %v, want aa:bb:cc:dd:ee:ff", toks[0].Literal)
	}
}

func TestStringLiteral(t *testing.T) {
	toks := allTokens(t, `"eth0"`)
	assertTypes(t, toks, token.STRING, token.EOF)
	if toks[0].Literal != "eth0" {
		t.Errorf("string literal = %v, want eth0", toks[0].Literal)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := allTokens(t, `"a\"b\\c"`)
	assertTypes(t, toks, token.STRING, token.EOF)
	if toks[0].Literal != `a"b\c` {
		t.Errorf("string literal = %q, want %q", toks[0].Literal, `a"b\c`)
	}
}

func TestUnterminatedStringIsIllegal(t *testing.T) {
	toks := allTokens(t, `"eth0`)
	assertTypes(t, toks, token.ILLEGAL, token.EOF)
}

func TestMalformedIPv4IsIllegal(t *testing.T) {
	toks := allTokens(t, `10.999.0.1`)
	assertTypes(t, toks, token.ILLEGAL, token.EOF)
}

// TestBareAssignLexes is the parse_assignment grammar's "=" operator; it
// never appears in a comparison expression, only in an action assignment.
func TestBareAssignLexes(t *testing.T) {
	toks := allTokens(t, `reg0 = 1`)
	assertTypes(t, toks, token.IDENT, token.ASSIGN, token.INT, token.EOF)
}

func TestFullExpression(t *testing.T) {
	toks := allTokens(t, `ip4 && tcp.dst == {80, 443}`)
	assertTypes(t, toks,
		token.IDENT, token.AND,
		token.IDENT, token.EQ,
		token.LBRACE, token.INT, token.COMMA, token.INT, token.RBRACE,
		token.EOF)
}

func TestLineAndColumnTracking(t *testing.T) {
	toks := allTokens(t, "ip4 &&\n  tcp.dst == 80")
	and := toks[1]
	if and.Line != 1 {
		t.Errorf("&& line = %d, want 1", and.Line)
	}
	tcp := toks[2]
	if tcp.Line != 2 {
		t.Errorf("tcp.dst line = %d, want 2", tcp.Line)
	}
}
