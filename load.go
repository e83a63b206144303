package wfstdec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ieee0824/wfstdec/language"
	"github.com/ieee0824/wfstdec/wfst"
)

var binaryMagic = []byte("<Wfst> ")

// LoadGraph reads a decoding graph. Files written by wfst.Write are detected
// by their leading marker; anything else is read as OpenFst text, with
// optional symbol table files.
func LoadGraph(path, inputSymbols, outputSymbols string) (*wfst.Wfst, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(binaryMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	if bytes.Equal(head, binaryMagic) {
		g, err := wfst.Read(br)
		if err != nil {
			return nil, fmt.Errorf("load graph %s: %w", path, err)
		}
		return g, nil
	}

	var isyms, osyms io.Reader
	if inputSymbols != "" {
		sf, err := os.Open(inputSymbols)
		if err != nil {
			return nil, fmt.Errorf("open input symbols: %w", err)
		}
		defer sf.Close()
		isyms = sf
	}
	if outputSymbols != "" {
		sf, err := os.Open(outputSymbols)
		if err != nil {
			return nil, fmt.Errorf("open output symbols: %w", err)
		}
		defer sf.Close()
		osyms = sf
	}
	g, err := wfst.ReadOpenFst(br, isyms, osyms)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", path, err)
	}
	return g, nil
}

// LoadLM reads an ARPA model and exposes it over words, normally the output
// table of the graph. oovLog10Prob is the log10 unigram probability of words
// missing from the model; 0 leaves them unreachable.
func LoadLM(path string, words *wfst.SymbolTable, scale, oovLog10Prob float64) (*language.Fst, error) {
	if words == nil {
		return nil, fmt.Errorf("load language model: graph has no output symbol table")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open language model: %w", err)
	}
	defer f.Close()
	model, err := language.LoadARPA(f)
	if err != nil {
		return nil, fmt.Errorf("load language model: %w", err)
	}
	if oovLog10Prob != 0 {
		model.OOVLogProb = oovLog10Prob * math.Ln10
	}
	return language.NewFst(model, words, language.WithScale(scale))
}
