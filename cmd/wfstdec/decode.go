package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ieee0824/wfstdec"
	"github.com/ieee0824/wfstdec/decoder"
	"github.com/ieee0824/wfstdec/internal/config"
)

type decodeFlags struct {
	configPath string
	graph      string
	isyms      string
	osyms      string
	lm         string
	beam       float32
	maxActive  int
	parallel   int
	jsonOut    bool
}

func newDecodeCmd() *cobra.Command {
	var f decodeFlags
	cmd := &cobra.Command{
		Use:   "decode MATRIX...",
		Short: "Decode log-likelihood matrices",
		Long: `Decode one utterance per matrix file. A matrix holds one frame per line,
whitespace separated log-likelihoods indexed by input label; column 0 is
ignored. Settings come from defaults, then --config, then WFSTDEC_*
environment variables, then flags.

Examples:
  wfstdec decode --graph HCLG.wfst --lm lm.arpa utt1.txt utt2.txt
  wfstdec decode --config wfstdec.yaml --json utt*.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, &f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVar(&f.graph, "graph", "", "decoding graph")
	fl.StringVar(&f.isyms, "isymbols", "", "input symbol table for text graphs")
	fl.StringVar(&f.osyms, "osymbols", "", "output symbol table for text graphs")
	fl.StringVar(&f.lm, "lm", "", "ARPA language model")
	fl.Float32Var(&f.beam, "beam", 0, "beam width")
	fl.IntVar(&f.maxActive, "max-active", 0, "maximum active tokens per frame")
	fl.IntVarP(&f.parallel, "parallelism", "j", 0, "utterances decoded concurrently")
	fl.BoolVar(&f.jsonOut, "json", false, "print one JSON object per utterance")
	return cmd
}

// resolveConfig layers explicitly set flags over the loaded configuration.
func resolveConfig(cmd *cobra.Command, f *decodeFlags) (config.Config, error) {
	cfg, err := config.Loader{}.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	fl := cmd.Flags()
	if fl.Changed("graph") {
		cfg.Graph = f.graph
	}
	if fl.Changed("isymbols") {
		cfg.InputSymbols = f.isyms
	}
	if fl.Changed("osymbols") {
		cfg.OutputSymbols = f.osyms
	}
	if fl.Changed("lm") {
		cfg.LM = f.lm
	}
	if fl.Changed("beam") {
		cfg.Decoder.Beam = f.beam
	}
	if fl.Changed("max-active") {
		cfg.Decoder.MaxActive = f.maxActive
	}
	if fl.Changed("parallelism") {
		cfg.Parallelism = f.parallel
	}
	if cfg.Graph == "" {
		return config.Config{}, fmt.Errorf("%w: no graph given", config.ErrInvalid)
	}
	return cfg, cfg.Validate()
}

func runDecode(cmd *cobra.Command, f *decodeFlags, paths []string) error {
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	decoder.SetLogger(logger)

	rec, err := wfstdec.NewRecognizer(cfg.Graph,
		wfstdec.WithConfig(cfg.Decoder),
		wfstdec.WithSymbolFiles(cfg.InputSymbols, cfg.OutputSymbols),
		wfstdec.WithLMFile(cfg.LM, cfg.LMScale, cfg.OOVLog10Prob),
		wfstdec.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	decs := make([]decoder.Decodable, len(paths))
	for i, p := range paths {
		m, err := readMatrixFile(p)
		if err != nil {
			return err
		}
		md := decoder.NewMatrixDecodable(m)
		md.SetAcousticScale(cfg.AcousticScale)
		decs[i] = md
	}

	results, err := rec.RecognizeBatch(cmd.Context(), decs, cfg.Parallelism)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for i, res := range results {
		if res == nil {
			logger.Warn("no output", zap.String("file", paths[i]))
			continue
		}
		if f.jsonOut {
			if err := enc.Encode(utteranceJSON{File: paths[i], Result: res}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", paths[i], res.Text)
	}
	return nil
}

type utteranceJSON struct {
	File string `json:"file"`
	*wfstdec.Result
}

func readMatrixFile(path string) ([][]float64, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()
	m, err := decoder.ReadMatrix(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}
