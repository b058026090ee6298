package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/matcher"
	"github.com/ovnmatch/matchexpr/internal/parser"
	"github.com/ovnmatch/matchexpr/internal/transform"
)

var explainExpr string

var explainCmd = &cobra.Command{
	Use:   "explain [expression]",
	Short: "Print an expression's AST after every pipeline stage",
	Long: `Run an expression through the full pipeline one stage at a time and print
the AST after each stage: parse, annotate, simplify, normalize, emit. This
is a debugging aid for understanding how a particular expression lowers.

Examples:
  matchc explain "!(eth.type == 0x800)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringVarP(&explainExpr, "eval", "e", "", "explain this expression instead of the positional argument")
}

func runExplain(cmd *cobra.Command, args []string) error {
	text := explainExpr
	if text == "" {
		if len(args) != 1 {
			return fmt.Errorf("provide an expression as an argument or with -e")
		}
		text = args[0]
	}

	tab := builtinSymtab()

	parsed, err := parser.ParseString(text, tab)
	if err != nil {
		return fmt.Errorf("parse %q: %w", text, err)
	}
	fmt.Printf("parsed:     %s\n", expr.Format(parsed))

	annotated, err := transform.Annotate(parsed, tab)
	if err != nil {
		return fmt.Errorf("annotate %q: %w", text, err)
	}
	fmt.Printf("annotated:  %s\n", expr.Format(annotated))

	simplified := transform.Simplify(annotated)
	fmt.Printf("simplified: %s\n", expr.Format(simplified))

	normalized := transform.Normalize(simplified)
	fmt.Printf("normalized: %s\n", expr.Format(normalized))

	resolve := func(symbol, name string) (uint64, int, bool) { return 0, 0, false }
	matches, conjunctions, err := matcher.ToMatches(normalized, resolve)
	if err != nil {
		return fmt.Errorf("emit %q: %w", text, err)
	}
	fmt.Printf("matches (%d, %d conjunctive groups):\n", matches.Len(), conjunctions)
	for _, m := range matches.Matches() {
		fmt.Printf("  %s\n", m)
	}
	return nil
}
