// Package cache memoizes compiled match sets in a SQLite database, keyed by
// the expression text and a fingerprint of the symbol table it was compiled
// against. It never stores the symbol table itself (spec.md §1 places the
// field-metadata registry and its persistence out of scope) — only a short
// hash of its shape, so a cache entry from one process is never reused
// against a differently-configured table in another.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/ovnmatch/matchexpr/internal/compiler"
	"github.com/ovnmatch/matchexpr/internal/matcher"
	"github.com/ovnmatch/matchexpr/internal/subvalue"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

const schema = `
CREATE TABLE IF NOT EXISTS compiled_matches (
	cache_key         TEXT PRIMARY KEY,
	expression        TEXT NOT NULL,
	symtab_fingerprint TEXT NOT NULL,
	conjunction_count INTEGER NOT NULL,
	matches_json      TEXT NOT NULL
);
`

// Store is a SQLite-backed cache of Compiler.Compile results.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a Store at path. Use ":memory:" for a
// private in-process cache with no on-disk footprint.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Fingerprint summarizes a symbol table's shape (every registered symbol's
// name, kind, width, level, and must_crossproduct flag) into a short stable hash,
// so a cache entry compiled against one table is never mistaken for a hit
// against a differently-configured one. Two tables with the same symbols
// registered in a different order fingerprint identically.
func Fingerprint(tab *symbols.Table) string {
	names := tab.Names()
	sort.Strings(names)
	h := sha256.New()
	for _, name := range names {
		sym, ok := tab.Lookup(name)
		if !ok {
			continue
		}
		fmt.Fprintf(h, "%s|%d|%d|%d|%t\n", sym.Name, sym.Kind, sym.Width, sym.Level, sym.MustCrossproduct)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cacheKey(expression, fingerprint string) string {
	h := sha256.Sum256([]byte(fingerprint + "\x00" + expression))
	return hex.EncodeToString(h[:])
}

// fieldMatchDTO is the on-disk serialization of a matcher.FieldMatch: the
// symbol's name plus its masked operand as a width-tagged pair of hex
// strings, since matcher.Match carries no exported way to rebuild a
// subvalue.Value from raw JSON without knowing its bit width up front.
type fieldMatchDTO struct {
	Symbol string `json:"symbol"`
	Width  int    `json:"width"`
	Value  string `json:"value"`
	Mask   string `json:"mask"`
}

type matchDTO struct {
	Fields       []fieldMatchDTO          `json:"fields"`
	Conjunctions []matcher.ConjunctionTag `json:"conjunctions,omitempty"`
}

// Get returns a previously cached result for (expression, fingerprint), or
// ok=false on a miss.
func (s *Store) Get(ctx context.Context, expression, fingerprint string) (compiler.Result, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT conjunction_count, matches_json FROM compiled_matches WHERE cache_key = ?`,
		cacheKey(expression, fingerprint))

	var conjunctionCount uint32
	var matchesJSON string
	if err := row.Scan(&conjunctionCount, &matchesJSON); err != nil {
		if err == sql.ErrNoRows {
			return compiler.Result{}, false, nil
		}
		return compiler.Result{}, false, fmt.Errorf("cache: get: %w", err)
	}

	var dtos []matchDTO
	if err := json.Unmarshal([]byte(matchesJSON), &dtos); err != nil {
		return compiler.Result{}, false, fmt.Errorf("cache: decode cached matches: %w", err)
	}

	ms := matcher.NewMatchSet()
	for _, d := range dtos {
		m := &matcher.Match{Conjunctions: d.Conjunctions}
		for _, f := range d.Fields {
			operand, err := fieldFromDTO(f)
			if err != nil {
				return compiler.Result{}, false, err
			}
			m.Fields = append(m.Fields, matcher.FieldMatch{Symbol: f.Symbol, Operand: operand})
		}
		ms.Add(m)
	}

	return compiler.Result{Matches: ms, ConjunctionCount: conjunctionCount}, true, nil
}

// Put stores res under (expression, fingerprint), replacing any prior entry.
func (s *Store) Put(ctx context.Context, expression, fingerprint string, res compiler.Result) error {
	dtos := make([]matchDTO, 0, res.Matches.Len())
	for _, m := range res.Matches.Matches() {
		d := matchDTO{Conjunctions: m.Conjunctions}
		for _, f := range m.Fields {
			d.Fields = append(d.Fields, fieldToDTO(f))
		}
		dtos = append(dtos, d)
	}

	blob, err := json.Marshal(dtos)
	if err != nil {
		return fmt.Errorf("cache: encode matches: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO compiled_matches (cache_key, expression, symtab_fingerprint, conjunction_count, matches_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		   expression = excluded.expression,
		   symtab_fingerprint = excluded.symtab_fingerprint,
		   conjunction_count = excluded.conjunction_count,
		   matches_json = excluded.matches_json`,
		cacheKey(expression, fingerprint), expression, fingerprint, res.ConjunctionCount, string(blob))
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

func fieldToDTO(f matcher.FieldMatch) fieldMatchDTO {
	return fieldMatchDTO{
		Symbol: f.Symbol,
		Width:  f.Operand.Value.Width,
		Value:  f.Operand.Value.Bits.Text(16),
		Mask:   f.Operand.Mask.Bits.Text(16),
	}
}

func fieldFromDTO(d fieldMatchDTO) (subvalue.Masked, error) {
	value, ok := new(big.Int).SetString(d.Value, 16)
	if !ok {
		return subvalue.Masked{}, fmt.Errorf("cache: malformed value %q for symbol %q", d.Value, d.Symbol)
	}
	mask, ok := new(big.Int).SetString(d.Mask, 16)
	if !ok {
		return subvalue.Masked{}, fmt.Errorf("cache: malformed mask %q for symbol %q", d.Mask, d.Symbol)
	}
	return subvalue.Masked{
		Value: subvalue.FromBigInt(d.Width, value),
		Mask:  subvalue.FromBigInt(d.Width, mask),
	}, nil
}
