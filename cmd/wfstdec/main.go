package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wfstdec",
		Short: "Decode acoustic scores against a weighted automaton",
		Long: `wfstdec runs beam search over a decoding graph, optionally composed on
the fly with an ARPA n-gram language model.

Graphs are read either in the binary format written by "wfstdec copy" or in
OpenFst text format with optional symbol tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCopyCmd(),
		newInfoCmd(),
		newDotCmd(),
		newDecodeCmd(),
		newLMCmd(),
		newWERCmd(),
	)
	return root
}
