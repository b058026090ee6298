package config

// MaxIdentifierLen is a length bound for a field/subfield/predicate name.
// Neither the lexer nor the symbol table reads it; identifiers of any
// length are accepted.
const MaxIdentifierLen = 256

// BuiltinCompareOps are the operators every symbol level (Nominal, Boolean,
// Ordinal) permits, per spec.md §3.
var BuiltinCompareOps = []string{"==", "!="}

// OrdinalOnlyOps are the additional relational operators legal only on
// Ordinal symbols.
var OrdinalOnlyOps = []string{"<", "<=", ">", ">="}
