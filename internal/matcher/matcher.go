// Package matcher implements the final pipeline stage (spec.md §4.6):
// walking a normalized (DNF) expression tree and emitting a set of flow
// matches, using the conjunctive-match extension to avoid enumerating the
// full cross product of a clause's varying dimensions.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
)

// ResolvePort resolves a string-typed symbol's literal operand (a port
// name, an interface name, and so on) to a numeric value and the bit width
// it should be matched at. ok is false when the name is unknown, in which
// case the clause that referenced it is silently dropped (spec.md §4.6,
// §7: "Port-name lookup failures during emission are silently pruned").
type ResolvePort func(symbol, name string) (value uint64, width int, ok bool)

// FieldMatch is one symbol's contribution to a Match: the masked value it
// must take.
type FieldMatch struct {
	Symbol  string
	Operand subvalue.Masked
}

// ConjunctionTag marks a Match as the d-th of k members of conjunctive-
// match group id (spec.md §4.6, GLOSSARY).
type ConjunctionTag struct {
	ID  uint32
	Dim int // 1-based
	Of  int // k
}

// Match is one emitted flow match: a conjunction of equality constraints,
// optionally tagged as a member of one or more conjunctive-match groups.
type Match struct {
	Fields       []FieldMatch
	Conjunctions []ConjunctionTag
}

func (m *Match) key() string {
	var b strings.Builder
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "%s=%s;", f.Symbol, f.Operand)
	}
	return b.String()
}

func (m *Match) String() string {
	parts := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		parts[i] = fmt.Sprintf("%s=%s", f.Symbol, f.Operand)
	}
	s := strings.Join(parts, ",")
	if s == "" {
		s = "*"
	}
	for _, c := range m.Conjunctions {
		s += fmt.Sprintf(" conj(%d,%d/%d)", c.ID, c.Dim, c.Of)
	}
	return s
}

// MatchSet is a hash-consed collection of Match records: emitting the same
// field content twice merges the two matches' conjunction tags rather than
// producing a duplicate entry (spec.md §4.6).
type MatchSet struct {
	byKey map[string]*Match
	order []*Match
}

// NewMatchSet returns an empty MatchSet.
func NewMatchSet() MatchSet {
	return MatchSet{byKey: make(map[string]*Match)}
}

// Add inserts m, merging into an existing entry with identical field
// content if present.
func (ms *MatchSet) Add(m *Match) {
	sortFields(m.Fields)
	key := m.key()
	if existing, ok := ms.byKey[key]; ok {
		existing.Conjunctions = append(existing.Conjunctions, m.Conjunctions...)
		return
	}
	ms.byKey[key] = m
	ms.order = append(ms.order, m)
}

// Matches returns the emitted matches in insertion order.
func (ms MatchSet) Matches() []*Match {
	return ms.order
}

// Len reports the number of distinct matches in the set.
func (ms MatchSet) Len() int {
	return len(ms.order)
}

func sortFields(fields []FieldMatch) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Symbol < fields[j].Symbol })
}

// resolvedClause is one DNF clause after resolving string operands to
// numeric values, split into must_crossproduct equalities (folded into
// every emitted match verbatim) and everything else (candidate conjunctive
// dimensions).
type resolvedClause struct {
	fixed map[string]subvalue.Masked
	vary  map[string]subvalue.Masked
}

// ToMatches walks root (which must be in DNF: a Disjunction of Conjunctions
// of equality Comparisons, or a degenerate single clause, per spec.md §4.5)
// and emits a MatchSet. It returns the number of conjunction ids allocated.
func ToMatches(root expr.Node, resolve ResolvePort) (MatchSet, uint32, error) {
	ms := NewMatchSet()

	if b, ok := root.(*expr.Boolean); ok {
		if b.Value {
			ms.Add(&Match{})
		}
		return ms, 0, nil
	}

	rawClauses, err := collectClauses(root)
	if err != nil {
		return ms, 0, err
	}

	var clauses []resolvedClause
	for _, comparisons := range rawClauses {
		rc := resolvedClause{fixed: map[string]subvalue.Masked{}, vary: map[string]subvalue.Masked{}}
		dropped := false
		for _, c := range comparisons {
			operand, ok := resolveOperand(c, resolve)
			if !ok {
				dropped = true
				break
			}
			dst := rc.vary
			if c.Symbol.MustCrossproduct {
				dst = rc.fixed
			}
			dst[c.Symbol.Name] = operand
		}
		if dropped {
			continue
		}
		clauses = append(clauses, rc)
	}

	// Group clauses sharing identical must_crossproduct-symbol values: each
	// such group gets its own conjunction id, per spec.md §4.6 scenario 4
	// ("6 x |prereq-variants| matches").
	groups := map[string][]resolvedClause{}
	var groupOrder []string
	for _, c := range clauses {
		k := fixedKey(c.fixed)
		if _, ok := groups[k]; !ok {
			groupOrder = append(groupOrder, k)
		}
		groups[k] = append(groups[k], c)
	}

	var conjunctionCount uint32
	for _, gk := range groupOrder {
		group := groups[gk]
		fixed := group[0].fixed

		dims, constants, crossProduct := analyzeGroup(group)
		if len(dims) < 2 || !crossProduct {
			// No useful conjunctive grouping: emit each clause flat.
			for _, c := range group {
				m := &Match{}
				for name, op := range fixed {
					m.Fields = append(m.Fields, FieldMatch{Symbol: name, Operand: op})
				}
				for name, op := range c.vary {
					m.Fields = append(m.Fields, FieldMatch{Symbol: name, Operand: op})
				}
				ms.Add(m)
			}
			continue
		}

		conjunctionCount++
		id := conjunctionCount
		k := len(dims)
		for dimIdx, name := range dims {
			for _, op := range distinctValues(group, name) {
				m := &Match{Conjunctions: []ConjunctionTag{{ID: id, Dim: dimIdx + 1, Of: k}}}
				for fname, fop := range fixed {
					m.Fields = append(m.Fields, FieldMatch{Symbol: fname, Operand: fop})
				}
				for cname, cop := range constants {
					m.Fields = append(m.Fields, FieldMatch{Symbol: cname, Operand: cop})
				}
				m.Fields = append(m.Fields, FieldMatch{Symbol: name, Operand: op})
				ms.Add(m)
			}
		}
	}

	return ms, conjunctionCount, nil
}

func resolveOperand(c *expr.Comparison, resolve ResolvePort) (subvalue.Masked, bool) {
	if !c.IsString {
		return c.Operand, true
	}
	value, width, ok := resolve(c.Symbol.Name, c.Str)
	if !ok {
		return subvalue.Masked{}, false
	}
	return subvalue.Exact(width, value), true
}

func fixedKey(fixed map[string]subvalue.Masked) string {
	names := make([]string, 0, len(fixed))
	for n := range fixed {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%s=%s;", n, fixed[n])
	}
	return b.String()
}

// analyzeGroup inspects the "vary" maps of a group of clauses that share
// identical must_crossproduct-symbol values. It returns the symbols that
// take more than one distinct value across the group (candidate conjunctive
// dimensions, in first-seen order), the symbols that take exactly one
// value common to every clause (folded into every emitted match as-is),
// and whether the group's clauses are exactly the cross product of the
// dimensions' value sets — the only shape the conjunctive-match extension
// can represent without losing information. When it is not, callers fall
// back to emitting each clause flat; reconstructing an arbitrary partial
// cross product into a minimal conjunctive-match cover is not attempted.
func analyzeGroup(group []resolvedClause) ([]string, map[string]subvalue.Masked, bool) {
	values := map[string]map[string]subvalue.Masked{}
	var order []string
	for _, c := range group {
		for name, op := range c.vary {
			set, ok := values[name]
			if !ok {
				set = map[string]subvalue.Masked{}
				values[name] = set
				order = append(order, name)
			}
			set[op.String()] = op
		}
	}

	var dims []string
	constants := map[string]subvalue.Masked{}
	for _, name := range order {
		set := values[name]
		if len(set) > 1 {
			dims = append(dims, name)
			continue
		}
		for _, op := range set {
			constants[name] = op
		}
	}

	if len(dims) < 2 {
		return dims, constants, false
	}

	expected := 1
	for _, name := range dims {
		expected *= len(values[name])
	}
	if expected != len(group) {
		return dims, constants, false
	}

	seen := map[string]bool{}
	for _, c := range group {
		if len(c.vary) != len(dims)+len(constants) {
			return dims, constants, false
		}
		var keyParts []string
		for _, name := range dims {
			keyParts = append(keyParts, name+"="+c.vary[name].String())
		}
		seen[strings.Join(keyParts, ",")] = true
	}
	if len(seen) != expected {
		return dims, constants, false
	}

	return dims, constants, true
}

func distinctValues(group []resolvedClause, name string) []subvalue.Masked {
	seen := map[string]subvalue.Masked{}
	var order []string
	for _, c := range group {
		op, ok := c.vary[name]
		if !ok {
			continue
		}
		k := op.String()
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = op
	}
	out := make([]subvalue.Masked, len(order))
	for i, k := range order {
		out[i] = seen[k]
	}
	return out
}

func collectClauses(root expr.Node) ([][]*expr.Comparison, error) {
	switch v := root.(type) {
	case *expr.Disjunction:
		var clauses [][]*expr.Comparison
		for _, child := range v.Children {
			c, err := clauseOf(child)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, c)
		}
		return clauses, nil
	default:
		c, err := clauseOf(root)
		if err != nil {
			return nil, err
		}
		return [][]*expr.Comparison{c}, nil
	}
}

func clauseOf(n expr.Node) ([]*expr.Comparison, error) {
	switch v := n.(type) {
	case *expr.Conjunction:
		out := make([]*expr.Comparison, 0, len(v.Children))
		for _, child := range v.Children {
			cmp, ok := child.(*expr.Comparison)
			if !ok {
				return nil, fmt.Errorf("matcher: clause child %T is not an equality comparison; tree is not normalized", child)
			}
			out = append(out, cmp)
		}
		return out, nil
	case *expr.Comparison:
		return []*expr.Comparison{v}, nil
	default:
		return nil, fmt.Errorf("matcher: top-level clause %T is neither a Conjunction nor a Comparison; tree is not normalized", n)
	}
}
