package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ovnmatch/matchexpr/internal/expr"
	"github.com/ovnmatch/matchexpr/internal/parser"
	"github.com/ovnmatch/matchexpr/internal/transform"
)

var formatExpr string

var formatCmd = &cobra.Command{
	Use:   "format [expression]",
	Short: "Print an expression's normalized (DNF) form as source text",
	Long: `Parse, annotate, simplify, and normalize an expression, then print the
result back out as matching-expression source text. Numeric comparisons
print their operand as value/mask (e.g. "eth.type == 0x800/0xffff"), which
the parser does not accept, so output containing them does not parse back.

Examples:
  matchc format "!(eth.type == 0x800)"
  matchc format -e "tcp.src < 1024"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.Flags().StringVarP(&formatExpr, "eval", "e", "", "format this expression instead of the positional argument")
}

func runFormat(cmd *cobra.Command, args []string) error {
	text := formatExpr
	if text == "" {
		if len(args) != 1 {
			return fmt.Errorf("provide an expression as an argument or with -e")
		}
		text = args[0]
	}

	tab := builtinSymtab()
	node, err := parser.ParseString(text, tab)
	if err != nil {
		return fmt.Errorf("parse %q: %w", text, err)
	}
	annotated, err := transform.Annotate(node, tab)
	if err != nil {
		return fmt.Errorf("annotate %q: %w", text, err)
	}
	normalized := transform.Normalize(transform.Simplify(annotated))

	fmt.Println(expr.Format(normalized))
	return nil
}
