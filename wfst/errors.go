package wfst

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase tells where a structural error was found.
type Phase string

const (
	PhaseRead   Phase = "read"   // binary decoding
	PhaseWrite  Phase = "write"  // binary encoding
	PhaseImport Phase = "import" // OpenFst text import
	PhaseBuild  Phase = "build"  // programmatic construction
)

// Kind categorizes a structural error.
type Kind string

const (
	KindBadMarker          Kind = "bad_marker"
	KindTruncated          Kind = "truncated"
	KindInconsistent       Kind = "inconsistent"
	KindUnsupportedVersion Kind = "unsupported_version"
	KindSyntax             Kind = "syntax"
	KindOutOfOrder         Kind = "out_of_order"
	KindUnknownSymbol      Kind = "unknown_symbol"
	KindIO                 Kind = "io"
)

// Error reports malformed automaton input. It replaces aborting on bad data:
// callers can inspect Kind and Line and decide what to do.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Line   int // 1-based line for text input, 0 otherwise
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("wfst: [")
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))
	if e.Line > 0 {
		b.WriteString(" at line ")
		b.WriteString(strconv.Itoa(e.Line))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by Phase and Kind. Empty fields in target match
// anything, so &Error{Kind: KindOutOfOrder} matches every phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return (t.Phase == "" || t.Phase == e.Phase) && (t.Kind == "" || t.Kind == e.Kind)
}

type errorBuilder struct {
	err Error
}

func newError(phase Phase, kind Kind) *errorBuilder {
	return &errorBuilder{err: Error{Phase: phase, Kind: kind}}
}

func (b *errorBuilder) Line(n int) *errorBuilder {
	b.err.Line = n
	return b
}

func (b *errorBuilder) Cause(err error) *errorBuilder {
	b.err.Cause = err
	return b
}

func (b *errorBuilder) Detail(msg string, args ...any) *errorBuilder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *errorBuilder) Build() *Error {
	return &b.err
}
