// Package symbols implements the symbol table: the named fields, subfields,
// and predicates that may appear in a matching expression, along with the
// measurement-level and width rules spec.md §4.1 enforces at registration
// time.
package symbols

import (
	"fmt"
	"regexp"

	"github.com/ovnmatch/matchexpr/internal/fields"
)

// Level is a symbol's measurement level (spec.md §3), which gates which
// relational operators may be used against it.
type Level int

const (
	// LevelUnknown marks a predicate whose level has not yet been computed
	// (spec.md §4.1: "level is determined on first use").
	LevelUnknown Level = iota
	Nominal
	Boolean
	Ordinal
)

func (l Level) String() string {
	switch l {
	case Nominal:
		return "nominal"
	case Boolean:
		return "boolean"
	case Ordinal:
		return "ordinal"
	default:
		return "unknown"
	}
}

// AllowsRelop reports whether l permits a non-equality relational operator.
// Ordinal admits all six comparators; Nominal and Boolean admit only
// equality and inequality.
func (l Level) AllowsRelop(equalityOnly bool) bool {
	if l == Ordinal {
		return true
	}
	return equalityOnly
}

// Kind distinguishes the three symbol varieties spec.md §4.1 defines.
type Kind int

const (
	FieldKind Kind = iota
	SubfieldKind
	PredicateKind
)

func (k Kind) String() string {
	switch k {
	case FieldKind:
		return "field"
	case SubfieldKind:
		return "subfield"
	case PredicateKind:
		return "predicate"
	default:
		return "unknown"
	}
}

// Symbol is a named entity usable in a matching expression: a field,
// subfield, or predicate (spec.md §4.1).
type Symbol struct {
	Name  string
	Width int // bits; 0 denotes a string symbol
	Kind  Kind
	Level Level

	// Populated when Kind == FieldKind.
	Field fields.Descriptor

	// Populated when Kind == SubfieldKind: a bit range [Lo, Hi] (inclusive,
	// counted from the least-significant bit) over Parent, which must
	// itself be a registered Ordinal field symbol.
	Parent *Symbol
	Lo, Hi int

	// Populated when Kind == PredicateKind: an unparsed expression in the
	// same grammar, parsed lazily the first time it is inlined (spec.md
	// §4.1, §4.3). Kept as raw text rather than a cached AST so this
	// package never needs to import internal/expr.
	Expansion string

	// Prereqs, if non-empty, is an expression string ANDed in ahead of any
	// comparison against this symbol (spec.md §4.1).
	Prereqs string

	// MustCrossproduct forbids treating this symbol as an independent
	// conjunctive-match dimension during emission (spec.md §4.6, GLOSSARY).
	MustCrossproduct bool
}

// IsString reports whether the symbol denotes a string-typed operand.
func (s *Symbol) IsString() bool { return s.Width == 0 }

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidIdentifier reports whether name satisfies the grammar's identifier
// syntax (spec.md §6): a letter or underscore, then letters, digits,
// underscores, or dots.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// RegistrationError reports a symbol-table registration failure: a
// duplicate name, an invalid identifier, or an invalid subfield reference.
type RegistrationError struct {
	Name   string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("symbol table: %s: %s", e.Name, e.Reason)
}

// Table holds every registered Symbol. Lookups are safe for concurrent use;
// Table performs no internal locking of its own, so registering a symbol
// concurrently with a lookup elsewhere (or with another registration) must
// be serialized by the caller, mirroring spec.md §5's contract that symbol-
// table mutation is not safe against concurrent reads.
type Table struct {
	symbols map[string]*Symbol
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

func (t *Table) register(sym *Symbol) error {
	if !ValidIdentifier(sym.Name) {
		return &RegistrationError{Name: sym.Name, Reason: "not a valid identifier"}
	}
	if _, exists := t.symbols[sym.Name]; exists {
		return &RegistrationError{Name: sym.Name, Reason: "already registered"}
	}
	t.symbols[sym.Name] = sym
	return nil
}

// AddField registers an integer field symbol backed by an external field
// descriptor. Level is Ordinal if the descriptor is maskable, else Nominal
// (spec.md §4.1).
func (t *Table) AddField(name string, field fields.Descriptor, prereqs string, mustCrossproduct bool) (*Symbol, error) {
	level := Nominal
	if field.Maskable() {
		level = Ordinal
	}
	sym := &Symbol{
		Name:             name,
		Width:            field.Width(),
		Kind:             FieldKind,
		Level:            level,
		Field:            field,
		Prereqs:          prereqs,
		MustCrossproduct: mustCrossproduct,
	}
	if err := t.register(sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddString registers a string-typed field symbol. String symbols are
// always Nominal and report width 0.
func (t *Table) AddString(name string, field fields.Descriptor, prereqs string) (*Symbol, error) {
	sym := &Symbol{
		Name:    name,
		Width:   0,
		Kind:    FieldKind,
		Level:   Nominal,
		Field:   field,
		Prereqs: prereqs,
	}
	if err := t.register(sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddSubfield registers a subfield symbol referencing an inclusive bit
// range [lo, hi] of an already-registered Ordinal field, e.g. parentName
// "vlan.tci", lo 0, hi 11 for the VLAN ID bits of a TCI field. lo and hi
// are counted from the least-significant bit; lo must be <= hi < the
// parent's width.
func (t *Table) AddSubfield(name, parentName string, lo, hi int, prereqs string) (*Symbol, error) {
	if !ValidIdentifier(name) {
		return nil, &RegistrationError{Name: name, Reason: "not a valid identifier"}
	}
	parent, ok := t.symbols[parentName]
	if !ok {
		return nil, &RegistrationError{Name: name, Reason: fmt.Sprintf("parent %q is not registered", parentName)}
	}
	if parent.Kind != FieldKind || parent.Level != Ordinal {
		return nil, &RegistrationError{Name: name, Reason: fmt.Sprintf("parent %q is not an Ordinal field", parentName)}
	}
	if lo < 0 || hi < lo || hi >= parent.Width {
		return nil, &RegistrationError{Name: name, Reason: fmt.Sprintf("bit range [%d..%d] is out of bounds for %q (width %d)", lo, hi, parentName, parent.Width)}
	}
	sym := &Symbol{
		Name:    name,
		Width:   hi - lo + 1,
		Kind:    SubfieldKind,
		Level:   Ordinal,
		Parent:  parent,
		Lo:      lo,
		Hi:      hi,
		Prereqs: prereqs,
	}
	if err := t.register(sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddPredicate registers a named Boolean expression that can be used like a
// 1-bit field. Its Level starts as LevelUnknown and is computed once, on
// first inlining, by the annotator (spec.md §4.1, §4.3).
func (t *Table) AddPredicate(name, expansion string) (*Symbol, error) {
	sym := &Symbol{
		Name:      name,
		Width:     1,
		Kind:      PredicateKind,
		Level:     LevelUnknown,
		Expansion: expansion,
	}
	if err := t.register(sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// Lookup returns the symbol registered under name, if any.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.symbols[name]
	return sym, ok
}

// Names returns every registered symbol's name, in no particular order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	return names
}

// Destroy releases every registered symbol. The table remains usable
// afterward as an empty table; this mirrors expr_symtab_destroy's role as
// an explicit teardown point rather than relying on the garbage collector.
func (t *Table) Destroy() {
	t.symbols = make(map[string]*Symbol)
}
