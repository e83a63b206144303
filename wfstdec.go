// Package wfstdec recognizes utterances by beam search over a weighted
// automaton composed on the fly with an n-gram language model.
package wfstdec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ieee0824/wfstdec/decoder"
	"github.com/ieee0824/wfstdec/wfst"
)

const instrumentationName = "github.com/ieee0824/wfstdec"

// Recognizer is the top-level recognizer. Graph and LM are read-only during
// decoding, so one Recognizer serves concurrent Recognize calls. Changing
// Graph, LM or Config between calls is allowed: pooled decoders built from
// the old values are discarded. LM implementations must be comparable.
type Recognizer struct {
	Graph  *wfst.Wfst
	LM     wfst.DeterministicOnDemand // nil decodes the graph alone
	Config decoder.Config

	log       *zap.Logger
	tracer    trace.Tracer
	decoders  sync.Pool
	isyms     string
	osyms     string
	lmPending *lmFile // set by WithLMFile, loaded once the graph is known
}

type lmFile struct {
	path  string
	scale float64
	oov   float64
}

// Result is the outcome of one utterance.
type Result struct {
	ID string `json:"id"`
	decoder.Result
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithConfig sets the decoder parameters.
func WithConfig(cfg decoder.Config) Option {
	return func(r *Recognizer) {
		r.Config = cfg
	}
}

// WithLM composes the graph output with lm.
func WithLM(lm wfst.DeterministicOnDemand) Option {
	return func(r *Recognizer) {
		r.LM = lm
	}
}

// WithLMFile loads an ARPA model over the graph's output symbols.
// oovLog10Prob is the log10 probability of unknown words (e.g. -5.0); 0
// disables it.
func WithLMFile(path string, scale, oovLog10Prob float64) Option {
	return func(r *Recognizer) {
		if path == "" {
			return
		}
		r.lmPending = &lmFile{path: path, scale: scale, oov: oovLog10Prob}
	}
}

// WithSymbolFiles names the symbol tables of a text graph.
func WithSymbolFiles(inputSymbols, outputSymbols string) Option {
	return func(r *Recognizer) {
		r.isyms = inputSymbols
		r.osyms = outputSymbols
	}
}

// WithLogger sets the logger used by the Recognizer and its decoders.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recognizer) {
		r.log = l
	}
}

// WithTracerProvider sets where Recognize spans go. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Recognizer) {
		r.tracer = tp.Tracer(instrumentationName)
	}
}

// NewRecognizer creates a Recognizer from a graph file.
func NewRecognizer(graphPath string, opts ...Option) (*Recognizer, error) {
	r := newRecognizer(opts)
	g, err := LoadGraph(graphPath, r.isyms, r.osyms)
	if err != nil {
		return nil, err
	}
	r.Graph = g

	if p := r.lmPending; p != nil {
		lm, err := LoadLM(p.path, g.OutputTable(), p.scale, p.oov)
		if err != nil {
			return nil, err
		}
		r.LM = lm
		r.lmPending = nil
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	r.log.Info("recognizer ready",
		zap.String("graph", graphPath),
		zap.Int("states", g.NumStates()),
		zap.Int("arcs", g.NumArcs()),
		zap.Bool("lm", r.LM != nil),
	)
	return r, nil
}

// NewRecognizerFromGraph creates a Recognizer from a loaded graph.
// WithLMFile and WithSymbolFiles have no effect here.
func NewRecognizerFromGraph(g *wfst.Wfst, opts ...Option) (*Recognizer, error) {
	r := newRecognizer(opts)
	r.Graph = g
	r.lmPending = nil
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

func newRecognizer(opts []Option) *Recognizer {
	r := &Recognizer{
		Config: decoder.DefaultConfig(),
		log:    decoder.Logger(),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recognizer) check() error {
	if r.Graph == nil || r.Graph.NumStates() == 0 {
		return decoder.ErrEmptyGraph
	}
	return r.Config.Validate()
}

func (r *Recognizer) acquire() (*decoder.Decoder, error) {
	for {
		d, ok := r.decoders.Get().(*decoder.Decoder)
		if !ok {
			break
		}
		if d.Graph() == r.Graph && d.LM() == r.LM && d.Config() == r.Config {
			return d, nil
		}
		r.log.Debug("dropping stale pooled decoder")
	}
	return decoder.New(r.Graph, r.LM, r.Config, decoder.WithLogger(r.log))
}

// Recognize decodes one utterance. The context is checked between frames.
func (r *Recognizer) Recognize(ctx context.Context, dec decoder.Decodable) (*Result, error) {
	id := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "wfstdec.Recognize",
		trace.WithAttributes(
			attribute.String("utterance.id", id),
			attribute.Int("utterance.frames_ready", dec.NumFramesReady()),
		),
	)
	defer span.End()

	res, err := r.recognize(ctx, dec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("utterance.frames", res.NumFrames),
		attribute.Float64("utterance.cost", res.Cost),
		attribute.Bool("utterance.reached_final", res.ReachedFinal),
	)
	r.log.Debug("utterance decoded",
		zap.String("id", id),
		zap.Int("frames", res.NumFrames),
		zap.Float64("cost", res.Cost),
		zap.String("text", res.Text),
	)
	return &Result{ID: id, Result: *res}, nil
}

func (r *Recognizer) recognize(ctx context.Context, dec decoder.Decodable) (*decoder.Result, error) {
	d, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer r.decoders.Put(d)

	if err := d.InitDecoding(); err != nil {
		return nil, err
	}
	for !dec.IsLastFrame(d.NumFramesDecoded() - 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.NumFramesDecoded() >= dec.NumFramesReady() {
			return nil, fmt.Errorf("%w: frame %d", decoder.ErrFrameNotReady, d.NumFramesDecoded())
		}
		if err := d.AdvanceDecoding(dec, 1); err != nil {
			return nil, err
		}
	}
	d.FinalizeDecoding()
	return d.Result()
}

// RecognizeBatch decodes utterances concurrently, at most parallelism at a
// time. Results are in input order. An utterance without any surviving path
// leaves a nil entry; any other failure cancels the batch.
func (r *Recognizer) RecognizeBatch(ctx context.Context, decs []decoder.Decodable, parallelism int) ([]*Result, error) {
	ctx, span := r.tracer.Start(ctx, "wfstdec.RecognizeBatch",
		trace.WithAttributes(
			attribute.Int("batch.size", len(decs)),
			attribute.Int("batch.parallelism", parallelism),
		),
	)
	defer span.End()

	results := make([]*Result, len(decs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallelism, 1))
	for i, dec := range decs {
		g.Go(func() error {
			res, err := r.Recognize(gCtx, dec)
			switch {
			case errors.Is(err, decoder.ErrNoPath):
				r.log.Warn("no path", zap.Int("utterance", i))
				return nil
			case err != nil:
				return fmt.Errorf("utterance %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return results, nil
}
