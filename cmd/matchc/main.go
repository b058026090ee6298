// Command matchc compiles matching-expression source text into flow
// matches from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/ovnmatch/matchexpr/cmd/matchc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
