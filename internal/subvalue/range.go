package subvalue

import "math/big"

// DecomposeRange covers the half-open range [lo, hi) of a width-bit field
// with the minimal set of Masked prefix blocks, per spec.md §4.4 rule 3
// ("longest-prefix decomposition"). Each returned Masked has a mask that is
// a contiguous run of high-order one-bits (a power-of-two-aligned block),
// and the union of the blocks' matched values is exactly [lo, hi).
//
// This is the same block decomposition used to express an arbitrary integer
// range as a minimal set of CIDR-style prefixes: at each step, extend the
// current position by the largest power-of-two block that both starts
// aligned at that position and does not overshoot hi.
func DecomposeRange(width int, lo, hi *big.Int) []Masked {
	if lo.Cmp(hi) >= 0 {
		return nil
	}

	var blocks []Masked
	cur := new(big.Int).Set(lo)
	one := big.NewInt(1)

	for cur.Cmp(hi) < 0 {
		// Largest block size (as a power-of-two exponent) aligned at cur:
		// the number of trailing zero bits of cur, capped by width and by
		// not overshooting hi.
		align := trailingZeros(cur, width)
		for align > 0 {
			blockEnd := new(big.Int).Add(cur, new(big.Int).Lsh(one, uint(align)))
			if blockEnd.Cmp(hi) <= 0 {
				break
			}
			align--
		}

		blockSize := new(big.Int).Lsh(one, uint(align))
		prefixLen := width - align
		blocks = append(blocks, Masked{
			Value: FromBigInt(width, cur),
			Mask:  FromBigInt(width, prefixMask(width, prefixLen)),
		})

		cur.Add(cur, blockSize)
	}

	return blocks
}

// trailingZeros returns the number of trailing zero bits of n, capped at
// width (an all-zero n aligns at any block size up to the full width).
func trailingZeros(n *big.Int, width int) int {
	if n.Sign() == 0 {
		return width
	}
	count := 0
	for count < width && n.Bit(count) == 0 {
		count++
	}
	return count
}

// prefixMask returns a width-bit value whose top prefixLen bits are one and
// whose remaining bits are zero.
func prefixMask(width, prefixLen int) *big.Int {
	if prefixLen <= 0 {
		return big.NewInt(0)
	}
	full := mask1(width)
	shifted := new(big.Int).Rsh(full, uint(width-prefixLen))
	return new(big.Int).Lsh(shifted, uint(width-prefixLen))
}
