package decoder

import (
	"errors"
	"fmt"

	"github.com/ieee0824/wfstdec/wfst"
)

var (
	// ErrInvalidConfig wraps configuration invariant violations.
	ErrInvalidConfig = errors.New("decoder: invalid config")
	// ErrEmptyGraph is returned for a graph without states.
	ErrEmptyGraph = errors.New("decoder: graph has no states")
	// ErrNotInitialized is returned when stepping before InitDecoding.
	ErrNotInitialized = errors.New("decoder: InitDecoding has not been called")
	// ErrFinalized is returned when stepping after FinalizeDecoding.
	ErrFinalized = errors.New("decoder: decoding already finalized")
	// ErrFramesDecreased means the decodable reported fewer ready frames than
	// were already decoded.
	ErrFramesDecreased = errors.New("decoder: number of ready frames decreased")
	// ErrFrameNotReady means Decode ran out of frames before the last frame.
	ErrFrameNotReady = errors.New("decoder: frame not ready")
	// ErrNoPath means no token survived to traceback.
	ErrNoPath = errors.New("decoder: no path found")
	// ErrLMMismatch is matched by every *LMMismatchError.
	ErrLMMismatch = errors.New("decoder: graph output has no arc in language model")
)

// LMMismatchError reports a graph output label the language model cannot
// follow. The graph and the LM disagree on the vocabulary, so decoding cannot
// continue; the decoder stays unusable until the next InitDecoding.
type LMMismatchError struct {
	LMState wfst.StateID
	Label   wfst.Label
}

func (e *LMMismatchError) Error() string {
	return fmt.Sprintf("%v: label %d from lm state %d", ErrLMMismatch, e.Label, e.LMState)
}

// Is makes errors.Is(err, ErrLMMismatch) hold.
func (e *LMMismatchError) Is(target error) bool { return target == ErrLMMismatch }
