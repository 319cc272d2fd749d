// Package slogbridge adapts a sqlog sink into a log/slog handler, so
// the standard structured-logging front end can persist its records
// into SQLite without knowing about the storage layer.
package slogbridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sqlog/sqlog/pkg/sink"
	"github.com/sqlog/sqlog/pkg/types"
)

// errKey is the attribute key whose error value becomes the record's
// captured failure.
const errKey = "err"

// Handler is a slog.Handler that synthesizes a types.Record from each
// slog record and emits it through a sink. Handle never returns an
// error: failure isolation holds at the framework boundary too.
type Handler struct {
	sink   *sink.Sink
	logger string

	// attrs are pre-qualified handler attributes; prefix is the open
	// group path applied to keys added after it.
	attrs  []slog.Attr
	prefix string

	processID   int
	processName string
}

// Option configures a Handler.
type Option func(*Handler)

// WithLoggerName sets the LoggerName stored with every record. The
// default is the process name. A record-level "logger" attribute
// overrides it per record.
func WithLoggerName(name string) Option {
	return func(h *Handler) { h.logger = name }
}

// NewHandler creates a handler emitting into the given sink.
func NewHandler(s *sink.Sink, opts ...Option) *Handler {
	h := &Handler{
		sink:        s,
		processID:   os.Getpid(),
		processName: filepath.Base(os.Args[0]),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == "" {
		h.logger = h.processName
	}
	return h
}

// Enabled delegates to the sink's severity threshold.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.sink.Enabled(mapLevel(level))
}

// Handle converts the slog record and emits it. Always returns nil;
// storage failures are routed to the sink's error hook.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	h.sink.Emit(ctx, h.newRecord(record))
	return nil
}

// WithAttrs returns a handler whose records carry the additional
// attributes, rendered into the message the same way record-level
// attributes are. Keys are qualified with the open group path at the
// time they are added.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix + attr.Key
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

// WithGroup returns a handler that qualifies subsequent attribute keys
// with the group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// newRecord synthesizes the event snapshot: timestamp and message from
// the slog record, call site from its PC, process identity captured at
// handler construction. An "err" attribute carrying an error becomes
// the captured failure; a "logger" attribute overrides the logger name.
func (h *Handler) newRecord(record slog.Record) *types.Record {
	rec := &types.Record{
		Time:        record.Time,
		LoggerName:  h.logger,
		Level:       mapLevel(record.Level),
		ProcessID:   h.processID,
		ProcessName: h.processName,
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		rec.FileName = frame.File
		rec.LineNo = frame.Line
		rec.ModuleName, rec.FuncName = splitFunction(frame.Function)
	}

	var parts []string
	appendAttr := func(key string, value slog.Value) {
		switch {
		case key == "logger" && value.Kind() == slog.KindString:
			rec.LoggerName = value.String()
		case key == errKey && value.Kind() == slog.KindAny:
			if err, ok := value.Any().(error); ok && rec.Failure == nil {
				rec.Failure = types.FailureFromError(err)
				return
			}
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		}
	}

	for _, attr := range h.attrs {
		if !attr.Equal(slog.Attr{}) {
			appendAttr(attr.Key, attr.Value.Resolve())
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		if !attr.Equal(slog.Attr{}) {
			appendAttr(h.prefix+attr.Key, attr.Value.Resolve())
		}
		return true
	})

	rec.Message = record.Message
	if len(parts) > 0 {
		rec.Message += " (" + strings.Join(parts, ", ") + ")"
	}
	return rec
}

// splitFunction splits a runtime function name like
// "github.com/acme/app/internal/web.(*Server).handle" into the package
// path and the bare function name.
func splitFunction(fn string) (module, name string) {
	if fn == "" {
		return "", ""
	}
	slash := strings.LastIndex(fn, "/")
	dot := strings.Index(fn[slash+1:], ".")
	if dot < 0 {
		return "", fn
	}
	dot += slash + 1
	return fn[:dot], fn[dot+1:]
}

// mapLevel maps slog levels onto sqlog severities. Levels above
// slog.LevelError map to CRITICAL.
func mapLevel(level slog.Level) types.Level {
	switch {
	case level < slog.LevelInfo:
		return types.LevelDebug
	case level < slog.LevelWarn:
		return types.LevelInfo
	case level < slog.LevelError:
		return types.LevelWarning
	case level > slog.LevelError:
		return types.LevelCritical
	default:
		return types.LevelError
	}
}
