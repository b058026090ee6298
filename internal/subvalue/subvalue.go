// Package subvalue implements the masked bit-vector values that back
// Comparison operands: a (value, mask) pair sized to a symbol's bit width,
// following the shape of OVN's union mf_subvalue but represented as an
// explicit (width, *big.Int) pair rather than a fixed-size byte union, since
// Go has no portable analogue of a C union and symbol widths here range from
// single bits up to 128 (IPv6 addresses).
//
// The byte-backed-bit-vector idiom — an explicit bit length distinct from
// the underlying storage's natural size, with copy-on-clone semantics — is
// the same shape as funbit's BitString type; this package reimplements it
// narrowly on math/big rather than importing funbit, which is built for
// streaming segment construction/matching against wire bytes and has no use
// for static prefix-mask decomposition.
package subvalue

import (
	"fmt"
	"math/big"
)

// Value is an unsigned integer known to fit in Width bits. The zero Value is
// not meaningful on its own; use Zero(width) or New(width, n).
type Value struct {
	Width int
	Bits  *big.Int
}

// mask1 returns 2^width - 1.
func mask1(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

// New returns the width-bit value n, truncated (masked) to width bits.
func New(width int, n uint64) Value {
	return FromBigInt(width, new(big.Int).SetUint64(n))
}

// FromBigInt returns n truncated to width bits. n must be non-negative.
func FromBigInt(width int, n *big.Int) Value {
	bits := new(big.Int).And(n, mask1(width))
	return Value{Width: width, Bits: bits}
}

// Zero returns the width-bit value 0.
func Zero(width int) Value {
	return Value{Width: width, Bits: big.NewInt(0)}
}

// Ones returns the width-bit value with every bit set (an all-ones mask).
func Ones(width int) Value {
	return Value{Width: width, Bits: mask1(width)}
}

func (v Value) checkWidth(other Value) {
	if v.Width != other.Width {
		panic(fmt.Sprintf("subvalue: width mismatch: %d vs %d", v.Width, other.Width))
	}
}

// And returns the bitwise AND of v and other; both must share a width.
func (v Value) And(other Value) Value {
	v.checkWidth(other)
	return Value{Width: v.Width, Bits: new(big.Int).And(v.Bits, other.Bits)}
}

// Or returns the bitwise OR of v and other; both must share a width.
func (v Value) Or(other Value) Value {
	v.checkWidth(other)
	return Value{Width: v.Width, Bits: new(big.Int).Or(v.Bits, other.Bits)}
}

// Xor returns the bitwise XOR of v and other; both must share a width.
func (v Value) Xor(other Value) Value {
	v.checkWidth(other)
	return Value{Width: v.Width, Bits: new(big.Int).Xor(v.Bits, other.Bits)}
}

// Not returns the bitwise complement of v within its width.
func (v Value) Not() Value {
	return Value{Width: v.Width, Bits: new(big.Int).Xor(v.Bits, mask1(v.Width))}
}

// IsZero reports whether every bit of v is zero.
func (v Value) IsZero() bool {
	return v.Bits.Sign() == 0
}

// Equal reports whether v and other have the same width and bit pattern.
func (v Value) Equal(other Value) bool {
	return v.Width == other.Width && v.Bits.Cmp(other.Bits) == 0
}

// Bit returns bit i of v, where bit 0 is the least-significant bit.
func (v Value) Bit(i int) uint {
	return v.Bits.Bit(i)
}

// WithBit returns a copy of v with bit i set to b (0 or 1).
func (v Value) WithBit(i int, b uint) Value {
	bits := new(big.Int).Set(v.Bits)
	bits.SetBit(bits, i, b)
	return Value{Width: v.Width, Bits: bits}
}

// Widen reinterprets v as a value of width bits, shifted left by shift bits
// from its original position. Used to translate a subfield's operand into
// its parent field's bit coordinate system before comparing it against a
// sibling operand of a different width.
func (v Value) Widen(width, shift int) Value {
	shifted := new(big.Int).Lsh(v.Bits, uint(shift))
	return FromBigInt(width, shifted)
}

// Uint64 returns v's value as a uint64. Panics if Width > 64; callers must
// only use this on symbols known to fit (ports, VLANs, protocol numbers).
func (v Value) Uint64() uint64 {
	if v.Width > 64 {
		panic("subvalue: Uint64 called on a value wider than 64 bits")
	}
	return v.Bits.Uint64()
}

func (v Value) String() string {
	return fmt.Sprintf("0x%x", v.Bits)
}

// Masked is a (value, mask) operand for an equality/inequality Comparison.
// The structural invariant from spec.md §3 is that Mask is nonzero and no
// bit of Value is set where the corresponding Mask bit is zero.
type Masked struct {
	Value Value
	Mask  Value
}

// Exact returns a Masked operand matching exactly the value n, i.e. an
// all-ones mask.
func Exact(width int, n uint64) Masked {
	return Masked{Value: New(width, n), Mask: Ones(width)}
}

// ExactBig returns a Masked operand matching exactly n.
func ExactBig(width int, n *big.Int) Masked {
	return Masked{Value: FromBigInt(width, n), Mask: Ones(width)}
}

// Wildcard returns a Masked operand that matches every value (zero mask).
// honors_invariants rejects a zero mask on a live Comparison node; Wildcard
// exists only as a building block before a narrower mask is OR'd in.
func Wildcard(width int) Masked {
	return Masked{Value: Zero(width), Mask: Zero(width)}
}

// Normalized reports whether m satisfies spec.md §3 invariant 3: a nonzero
// mask, and no value bit set outside the mask.
func (m Masked) Normalized() bool {
	if m.Mask.IsZero() {
		return false
	}
	return m.Value.And(m.Mask.Not()).IsZero()
}

// Equal reports whether m and other denote the same (value, mask) pair.
func (m Masked) Equal(other Masked) bool {
	return m.Value.Equal(other.Value) && m.Mask.Equal(other.Mask)
}

// Conflicts reports whether m and other, read as constraints on the same
// field, can never both hold: some bit position is covered by both masks
// but the two values disagree there.
func (m Masked) Conflicts(other Masked) bool {
	common := m.Mask.And(other.Mask)
	diff := m.Value.Xor(other.Value).And(common)
	return !diff.IsZero()
}

// WidenTo translates m into width bits, shifting both value and mask left
// by shift bits: the subfield-to-parent coordinate transform two operands
// of differing width need before Conflicts can compare them (Conflicts
// requires both Masked operands to share a width).
func (m Masked) WidenTo(width, shift int) Masked {
	return Masked{Value: m.Value.Widen(width, shift), Mask: m.Mask.Widen(width, shift)}
}

func (m Masked) String() string {
	return fmt.Sprintf("%s/%s", m.Value, m.Mask)
}
