package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ieee0824/wfstdec"
	"github.com/ieee0824/wfstdec/wfst"
)

type graphFlags struct {
	isyms string
	osyms string
}

func (f *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.isyms, "isymbols", "", "input symbol table for text graphs")
	cmd.Flags().StringVar(&f.osyms, "osymbols", "", "output symbol table for text graphs")
}

func (f *graphFlags) load(path string) (*wfst.Wfst, error) {
	return wfstdec.LoadGraph(path, f.isyms, f.osyms)
}

func newCopyCmd() *cobra.Command {
	var gf graphFlags
	cmd := &cobra.Command{
		Use:   "copy IN OUT",
		Short: "Convert a graph to the binary format",
		Long: `Read a graph in text or binary form and write it in binary form.

Examples:
  wfstdec copy HCLG.txt HCLG.wfst --isymbols phones.txt --osymbols words.txt
  wfstdec copy old.wfst new.wfst`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gf.load(args[0])
			if err != nil {
				return err
			}
			return writeTo(args[1], g.Write)
		},
	}
	gf.register(cmd)
	return cmd
}

type graphInfo struct {
	Start         wfst.StateID `json:"start"`
	States        int          `json:"states"`
	Arcs          int          `json:"arcs"`
	Finals        int          `json:"finals"`
	EpsilonArcs   int          `json:"epsilon_arcs"`
	InputSymbols  int          `json:"input_symbols"`
	OutputSymbols int          `json:"output_symbols"`
}

func describeGraph(g *wfst.Wfst) graphInfo {
	info := graphInfo{Start: g.Start(), States: g.NumStates(), Arcs: g.NumArcs()}
	for s := range g.NumStates() {
		if _, final := g.Final(wfst.StateID(s)); final {
			info.Finals++
		}
		for _, a := range g.Arcs(wfst.StateID(s)) {
			if a.ILabel == wfst.Epsilon {
				info.EpsilonArcs++
			}
		}
	}
	if t := g.InputTable(); t != nil {
		info.InputSymbols = t.Size()
	}
	if t := g.OutputTable(); t != nil {
		info.OutputSymbols = t.Size()
	}
	return info
}

func newInfoCmd() *cobra.Command {
	var (
		gf      graphFlags
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "info GRAPH",
		Short: "Print graph statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gf.load(args[0])
			if err != nil {
				return err
			}
			info := describeGraph(g)
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintf(out, "start state      %d\n", info.Start)
			fmt.Fprintf(out, "states           %d\n", info.States)
			fmt.Fprintf(out, "arcs             %d\n", info.Arcs)
			fmt.Fprintf(out, "final states     %d\n", info.Finals)
			fmt.Fprintf(out, "epsilon arcs     %d\n", info.EpsilonArcs)
			fmt.Fprintf(out, "input symbols    %d\n", info.InputSymbols)
			fmt.Fprintf(out, "output symbols   %d\n", info.OutputSymbols)
			return nil
		},
	}
	gf.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")
	return cmd
}

func newDotCmd() *cobra.Command {
	var (
		gf     graphFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "dot GRAPH",
		Short: "Render a graph in Graphviz dot format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gf.load(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return g.WriteDot(cmd.OutOrStdout())
			}
			return writeTo(output, g.WriteDot)
		},
	}
	gf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// writeTo creates path and hands a buffered writer to write.
func writeTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
