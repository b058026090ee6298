package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set by build flags (-ldflags "-X ...cmd.Version=...").
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "matchc",
	Short: "Compile matching expressions into flow matches",
	Long: `matchc compiles textual Boolean matching expressions over packet-header
fields (e.g. "ip4 && tcp.dst == {80, 443}") into a set of prioritized,
mask-carrying flow matches, following the same pipeline a flow classifier
front end uses internally: parse, annotate, simplify, normalize to DNF,
emit.

Expressions are evaluated against a small built-in reference symbol table
covering the common Ethernet/IP/TCP/UDP fields; see "matchc compile -h" for
an example.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
`))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "compile: also print the conjunction-group count to stderr")
}
