package decoder

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ieee0824/wfstdec/internal/mathutil"
	"github.com/ieee0824/wfstdec/wfst"
)

// Decodable supplies acoustic log-likelihoods frame by frame.
type Decodable interface {
	// NumFramesReady returns how many frames can be scored now.
	NumFramesReady() int
	// IsLastFrame reports whether frame is the final frame of the input.
	// It is called with -1 before any frame was decoded.
	IsLastFrame(frame int) bool
	// LogLikelihood scores label at frame. Larger is better.
	LogLikelihood(frame int, label wfst.Label) float32
}

// MatrixDecodable serves log-likelihoods from a frames x labels matrix.
// Column 0 belongs to epsilon and is never read. Labels beyond the row width
// score mathutil.LogZero.
type MatrixDecodable struct {
	rows     mathutil.Mat
	scale    float32
	finished bool
}

// NewMatrixDecodable wraps a complete matrix.
func NewMatrixDecodable(m mathutil.Mat) *MatrixDecodable {
	return &MatrixDecodable{rows: m, scale: 1, finished: true}
}

// NewStreamingDecodable returns an empty decodable fed with AcceptFrame.
func NewStreamingDecodable() *MatrixDecodable {
	return &MatrixDecodable{scale: 1}
}

// SetAcousticScale multiplies every log-likelihood by s.
func (m *MatrixDecodable) SetAcousticScale(s float32) { m.scale = s }

// AcceptFrame appends one frame of log-likelihoods.
func (m *MatrixDecodable) AcceptFrame(loglikes []float64) {
	m.rows = append(m.rows, loglikes)
}

// InputFinished marks the last accepted frame as final.
func (m *MatrixDecodable) InputFinished() { m.finished = true }

func (m *MatrixDecodable) NumFramesReady() int { return len(m.rows) }

func (m *MatrixDecodable) IsLastFrame(frame int) bool {
	return m.finished && frame == len(m.rows)-1
}

func (m *MatrixDecodable) LogLikelihood(frame int, label wfst.Label) float32 {
	row := m.rows[frame]
	if int(label) >= len(row) {
		return float32(mathutil.LogZero)
	}
	return m.scale * float32(row[label])
}

// ReadMatrix parses a whitespace-separated text matrix, one frame per line.
// Blank lines, lines starting with '#', and bracket tokens are skipped. All
// rows must have the same width.
func ReadMatrix(r io.Reader) (mathutil.Mat, error) {
	var m mathutil.Mat
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var row []float64
		for _, f := range strings.Fields(text) {
			if f == "[" || f == "]" {
				continue
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("matrix line %d: %w", line, err)
			}
			row = append(row, v)
		}
		if len(row) == 0 {
			continue
		}
		if len(m) > 0 && len(row) != len(m[0]) {
			return nil, fmt.Errorf("matrix line %d: %d columns, want %d", line, len(row), len(m[0]))
		}
		m = append(m, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	return m, nil
}
