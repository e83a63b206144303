package decoder

import (
	"math/rand"
	"testing"

	"github.com/ieee0824/wfstdec/internal/mathutil"
	"github.com/ieee0824/wfstdec/wfst"
)

// buildBenchGraph creates a fully connected loop of numStates states over
// numLabels input labels, each state final.
func buildBenchGraph(b *testing.B, numStates, numLabels int) *wfst.Wfst {
	rng := rand.New(rand.NewSource(42))
	var arcs []arcSpec
	finals := make(map[wfst.StateID]wfst.Weight, numStates)
	for s := 0; s < numStates; s++ {
		for k := 0; k < 4; k++ {
			dst := wfst.StateID(rng.Intn(numStates))
			il := wfst.Label(1 + rng.Intn(numLabels))
			arcs = append(arcs, edge(wfst.StateID(s), dst, il, il, rng.Float32()*4))
		}
		arcs = append(arcs, edge(wfst.StateID(s), wfst.StateID((s+1)%numStates), wfst.Epsilon, 0, 1))
		finals[wfst.StateID(s)] = 0
	}
	return buildGraph(b, numStates, finals, arcs...)
}

func benchFrames(numFrames, numLabels int) mathutil.Mat {
	rng := rand.New(rand.NewSource(1))
	m := mathutil.NewMat(numFrames, numLabels+1)
	for i := range m {
		for j := 1; j < len(m[i]); j++ {
			m[i][j] = -rng.Float64() * 10
		}
	}
	return m
}

func BenchmarkDecode(b *testing.B) {
	g := buildBenchGraph(b, 2000, 50)
	frames := NewMatrixDecodable(benchFrames(100, 50))
	cfg := DefaultConfig()
	cfg.Beam = 12
	cfg.MaxActive = 1000
	d, err := New(g, nil, cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if err := d.Decode(frames); err != nil {
			b.Fatal(err)
		}
		if _, err := d.BestOutput(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNthElement(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	src := make([]float64, 10000)
	for i := range src {
		src[i] = rng.Float64()
	}
	buf := make([]float64, len(src))
	for b.Loop() {
		copy(buf, src)
		nthElement(buf, 500)
	}
}
