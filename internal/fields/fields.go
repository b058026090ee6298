// Package fields is the interface boundary onto the field-metadata
// registry, which spec.md §1 places out of scope ("the field-metadata
// registry that maps field identifiers to bit positions" is an external
// collaborator). Descriptor is the contract the symbol table depends on;
// Registry is a small in-memory reference implementation. Neither the tests
// nor the CLI use it; they build descriptors directly with NewIntDescriptor
// and NewStringDescriptor.
package fields

// Descriptor describes one packet-header field as the symbol table needs to
// know it: its width and whether Open Flow / the classifier can mask it.
// Maskable fields become Ordinal symbols; non-maskable integer fields and
// all string fields become Nominal (spec.md §4.1).
type Descriptor interface {
	Name() string
	Width() int // bits; 0 marks a string-typed field
	Maskable() bool
}

type descriptor struct {
	name     string
	width    int
	maskable bool
}

func (d descriptor) Name() string   { return d.name }
func (d descriptor) Width() int     { return d.width }
func (d descriptor) Maskable() bool { return d.maskable }

// NewIntDescriptor describes a maskable-or-not integer field of the given
// bit width.
func NewIntDescriptor(name string, width int, maskable bool) Descriptor {
	return descriptor{name: name, width: width, maskable: maskable}
}

// NewStringDescriptor describes a string-typed field (width 0, never
// maskable).
func NewStringDescriptor(name string) Descriptor {
	return descriptor{name: name, width: 0, maskable: false}
}

// Registry is a minimal in-memory field-metadata registry: a name-to-
// Descriptor map. The real registry that ships with a classifier maps field
// identifiers to concrete bit offsets in a wire header; this one maps names
// to Descriptors only.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]Descriptor)}
}

// Register adds d to the registry, keyed by its name.
func (r *Registry) Register(d Descriptor) {
	r.descriptors[d.Name()] = d
}

// Lookup returns the Descriptor registered under name, if any.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}
