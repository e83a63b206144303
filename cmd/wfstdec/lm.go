package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ieee0824/wfstdec/language"
)

func newLMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lm",
		Short: "Build and inspect n-gram language models",
	}
	cmd.AddCommand(newLMBuildCmd(), newLMScoreCmd())
	return cmd
}

func newLMBuildCmd() *cobra.Command {
	var (
		order  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "build [TEXT...]",
		Short: "Build an ARPA model from tokenized text",
		Long: `Build a Witten-Bell smoothed ARPA model. Input holds one sentence per
line, words separated by spaces. Without files, text is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := language.NewBuilder(order)
			n, err := eachInput(cmd, args, b.AddText)
			if err != nil {
				return err
			}
			if output == "" {
				if err := b.WriteARPA(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else if err := writeTo(output, b.WriteARPA); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Built %d-gram model from %d sentences\n", b.Order(), n)
			return nil
		},
	}
	cmd.Flags().IntVar(&order, "order", 2, "n-gram order (2=bigram, 3=trigram)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newLMScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score LM [TEXT...]",
		Short: "Print sentence log10 probabilities and perplexity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open language model: %w", err)
			}
			model, err := language.LoadARPA(f)
			f.Close()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var total float64
			var tokens int
			_, err = eachInput(cmd, args[1:], func(r io.Reader) (int, error) {
				sc := bufio.NewScanner(r)
				sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				n := 0
				for sc.Scan() {
					words := strings.Fields(sc.Text())
					if len(words) == 0 {
						continue
					}
					lp := model.SentenceLogProb(words)
					total += lp
					tokens += len(words) + 1
					n++
					fmt.Fprintf(out, "%.4f\t%s\n", lp/math.Ln10, strings.Join(words, " "))
				}
				return n, sc.Err()
			})
			if err != nil {
				return err
			}
			if tokens > 0 {
				fmt.Fprintf(out, "perplexity\t%.2f\n", math.Exp(-total/float64(tokens)))
			}
			return nil
		},
	}
	return cmd
}

// eachInput runs fn over every named file, or stdin when there are none, and
// sums the counts it returns.
func eachInput(cmd *cobra.Command, paths []string, fn func(io.Reader) (int, error)) (int, error) {
	if len(paths) == 0 {
		return fn(cmd.InOrStdin())
	}
	total := 0
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return total, fmt.Errorf("open %s: %w", p, err)
		}
		n, err := fn(f)
		f.Close()
		total += n
		if err != nil {
			return total, fmt.Errorf("read %s: %w", p, err)
		}
	}
	return total, nil
}
