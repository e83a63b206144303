package decoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wfstdec_frames_decoded_total",
		Help: "Frames consumed by ProcessEmitting",
	})

	activeTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wfstdec_active_tokens",
		Help:    "Tokens alive at the start of each frame",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// cutoffRuleTotal counts which bound governed a frame's cutoff.
	// Labels: "beam", "max_active", "min_active"
	cutoffRuleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfstdec_cutoff_rule_total",
		Help: "Frames by the pruning rule that set the cutoff",
	}, []string{"rule"})

	lmMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wfstdec_lm_mismatch_total",
		Help: "Decodes aborted because the LM had no arc for a graph output",
	})

	// tracebackTotal labels: "ok", "no_path"
	tracebackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wfstdec_traceback_total",
		Help: "Traceback attempts by outcome",
	}, []string{"result"})

	cutoffByBeam      = cutoffRuleTotal.WithLabelValues("beam")
	cutoffByMaxActive = cutoffRuleTotal.WithLabelValues("max_active")
	cutoffByMinActive = cutoffRuleTotal.WithLabelValues("min_active")
	tracebackOK       = tracebackTotal.WithLabelValues("ok")
	tracebackNoPath   = tracebackTotal.WithLabelValues("no_path")
)
