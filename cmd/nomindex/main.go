// Command nomindex is the CLI entrypoint for the parallel indexing engine:
// an `index` subcommand driving rank-stratified passes over a geocoding
// database, and a `special-phrases` subcommand for the wiki-sourced phrase
// import.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nomindex",
		Short:         "Parallel indexer for a geocoding database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSpecialPhrasesCmd())
	return root
}
