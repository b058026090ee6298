package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovnmatch/matchexpr/internal/compiler"
)

var compileExpr string

var compileCmd = &cobra.Command{
	Use:   "compile [expression]",
	Short: "Compile a matching expression to flow matches",
	Long: `Compile a matching expression to its final set of flow matches.

Examples:
  matchc compile "ip4 && tcp.dst == {80, 443}"
  matchc compile -e "ip4 && tcp.dst == {80, 443}"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileExpr, "eval", "e", "", "compile this expression instead of the positional argument")
}

func exprFromArgs(args []string) (string, error) {
	if compileExpr != "" {
		return compileExpr, nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return "", fmt.Errorf("provide an expression as an argument or with -e")
}

func runCompile(cmd *cobra.Command, args []string) error {
	text, err := exprFromArgs(args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")

	tab := builtinSymtab()
	c := compiler.New(tab)
	res, err := c.Compile(context.Background(), text)
	if err != nil {
		return fmt.Errorf("compile %q: %w", text, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "conjunction groups: %d\n", res.ConjunctionCount)
	}

	for _, m := range res.Matches.Matches() {
		fmt.Println(m)
	}
	return nil
}
