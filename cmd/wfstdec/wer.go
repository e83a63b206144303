package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ieee0824/wfstdec/internal/wer"
)

func newWERCmd() *cobra.Command {
	var perUtt bool
	cmd := &cobra.Command{
		Use:   "wer REF HYP",
		Short: "Compute word error rate",
		Long: `Compare two transcript files. Each line holds an utterance key followed
by its words; the output of "wfstdec decode" has this form. Utterances missing
from HYP count as deleted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, order, err := readTranscripts(args[0])
			if err != nil {
				return err
			}
			hyps, _, err := readTranscripts(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var total wer.Counts
			for _, key := range order {
				c := wer.Align(refs[key], hyps[key])
				total.Add(c)
				if perUtt {
					fmt.Fprintf(out, "%s\t%.2f\t%d/%d\n", key, 100*c.Rate(), c.Errors(), c.RefWords)
				}
			}
			fmt.Fprintf(out, "%%WER %.2f [ %d / %d, %d ins, %d del, %d sub ]\n",
				100*total.Rate(), total.Errors(), total.RefWords, total.Ins, total.Del, total.Sub)
			return nil
		},
	}
	cmd.Flags().BoolVar(&perUtt, "per-utt", false, "also print each utterance")
	return cmd
}

// readTranscripts returns words by key and the keys in file order.
func readTranscripts(path string) (map[string][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m := make(map[string][]string)
	var order []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		key := fields[0]
		if _, dup := m[key]; dup {
			return nil, nil, fmt.Errorf("%s: duplicate utterance %q", path, key)
		}
		m[key] = fields[1:]
		order = append(order, key)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, order, nil
}
