package expr

// HonorsInvariants checks the four structural invariants spec.md §3
// requires of every live AST node, recursively.
func HonorsInvariants(n Node) bool {
	switch v := n.(type) {
	case *Boolean:
		return true
	case *Comparison:
		if v.Symbol == nil {
			return false
		}
		if v.IsString != (v.Symbol.Width == 0) {
			return false
		}
		if !v.IsString && !v.Operand.Normalized() {
			return false
		}
		return true
	case *Conjunction:
		if len(v.Children) < 2 {
			return false
		}
		for _, c := range v.Children {
			if _, isConj := c.(*Conjunction); isConj {
				return false
			}
			if !HonorsInvariants(c) {
				return false
			}
		}
		return true
	case *Disjunction:
		if len(v.Children) < 2 {
			return false
		}
		for _, c := range v.Children {
			if _, isDisj := c.(*Disjunction); isDisj {
				return false
			}
			if !HonorsInvariants(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsSimplified reports whether n satisfies the simplifier's output
// invariants (spec.md §4.4): no relational comparison remains, and
// connective flattening invariants hold.
func IsSimplified(n Node) bool {
	if !HonorsInvariants(n) {
		return false
	}
	return isSimplifiedRec(n)
}

func isSimplifiedRec(n Node) bool {
	switch v := n.(type) {
	case *Boolean:
		return true
	case *Comparison:
		return v.IsString || v.Relop == REq || v.Relop == RNe
	case *Conjunction:
		for _, c := range v.Children {
			if !isSimplifiedRec(c) {
				return false
			}
		}
		return true
	case *Disjunction:
		for _, c := range v.Children {
			if !isSimplifiedRec(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsNormalized reports whether n is in disjunctive normal form (spec.md
// §4.5): a Disjunction of Conjunctions of equality Comparisons (with the
// single-clause and single-comparison collapses the normalizer performs
// also accepted, since re-flattening a one-child connective back into its
// sole child is itself invariant-preserving).
func IsNormalized(n Node) bool {
	if !HonorsInvariants(n) {
		return false
	}
	switch v := n.(type) {
	case *Boolean:
		return true
	case *Comparison:
		return v.Relop == REq
	case *Conjunction:
		for _, c := range v.Children {
			cmp, ok := c.(*Comparison)
			if !ok || cmp.Relop != REq {
				return false
			}
		}
		return true
	case *Disjunction:
		for _, c := range v.Children {
			switch cc := c.(type) {
			case *Comparison:
				if cc.Relop != REq {
					return false
				}
			case *Conjunction:
				for _, gc := range cc.Children {
					cmp, ok := gc.(*Comparison)
					if !ok || cmp.Relop != REq {
						return false
					}
				}
			default:
				return false
			}
		}
		return true
	default:
		return false
	}
}
