package types

import (
	"fmt"
	"runtime"
	"strings"
)

// Failure is the captured-failure triple carried by a Record: the
// failure's type name, its rendered value, and the call frames that
// were active when it was captured.
type Failure struct {
	// Kind is the failure type name (e.g. "*os.PathError")
	Kind string `json:"kind"`

	// Value is the rendered failure value
	Value string `json:"value"`

	// Frames are the captured call frames, outermost last
	Frames []Frame `json:"frames,omitempty"`
}

// Frame is a single captured call frame.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// String renders the frame as "function\n\tfile:line".
func (f Frame) String() string {
	return fmt.Sprintf("%s\n\t%s:%d", f.Function, f.File, f.Line)
}

// Traceback renders the full multi-frame traceback string stored in the
// TraceBack column: one frame per pair of lines, followed by the
// "kind: value" terminator.
func (f *Failure) Traceback() string {
	var b strings.Builder
	for _, frame := range f.Frames {
		b.WriteString(frame.String())
		b.WriteByte('\n')
	}
	b.WriteString(f.Kind)
	if f.Value != "" {
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

// FailureFromError builds a Failure from an error without capturing a
// call stack. The Kind is the error's dynamic type.
func FailureFromError(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{
		Kind:  fmt.Sprintf("%T", err),
		Value: err.Error(),
	}
}

// CaptureFailure builds a Failure from an error plus the current call
// stack. skip counts additional frames to omit above the caller of
// CaptureFailure (0 starts at the caller itself).
func CaptureFailure(err error, skip int) *Failure {
	f := FailureFromError(err)
	if f == nil {
		return nil
	}

	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return f
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		f.Frames = append(f.Frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
	return f
}
