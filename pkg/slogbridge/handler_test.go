package slogbridge

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sqlog/sqlog/pkg/sink"
	"github.com/sqlog/sqlog/pkg/types"
)

func newTestSink(t *testing.T, opts ...sink.Option) (*sink.Sink, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.sqlite3")
	s, err := sink.New(path, opts...)
	if err != nil {
		t.Fatalf("sink.New failed: %v", err)
	}
	return s, path
}

type logRow struct {
	loggerName string
	level      string
	fileName   string
	lineNo     int
	funcName   string
	processID  int
	message    string
	excType    sql.NullString
	traceback  sql.NullString
}

func queryRows(t *testing.T, path string) []logRow {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open storage file: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT LoggerName, Level, FileName, LineNo, FuncName, ProcessID, LogMessage, ExceptionType, TraceBack
		FROM logs ORDER BY id`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	var got []logRow
	for rows.Next() {
		var r logRow
		if err := rows.Scan(&r.loggerName, &r.level, &r.fileName, &r.lineNo, &r.funcName,
			&r.processID, &r.message, &r.excType, &r.traceback); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows iteration failed: %v", err)
	}
	return got
}

func TestHandler_EndToEnd(t *testing.T) {
	s, path := newTestSink(t)
	logger := slog.New(NewHandler(s, WithLoggerName("web")))

	logger.Info("hello", "user", "bob")

	got := queryRows(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	row := got[0]

	if row.loggerName != "web" {
		t.Errorf("LoggerName = %q, want web", row.loggerName)
	}
	if row.level != "INFO" {
		t.Errorf("Level = %q, want INFO", row.level)
	}
	if row.message != "hello (user=bob)" {
		t.Errorf("LogMessage = %q", row.message)
	}
	if !strings.Contains(row.fileName, "handler_test.go") || row.lineNo == 0 {
		t.Errorf("call site not captured: %s:%d", row.fileName, row.lineNo)
	}
	if !strings.Contains(row.funcName, "TestHandler_EndToEnd") {
		t.Errorf("FuncName = %q", row.funcName)
	}
	if row.processID != os.Getpid() {
		t.Errorf("ProcessID = %d, want %d", row.processID, os.Getpid())
	}
	if row.excType.Valid || row.traceback.Valid {
		t.Errorf("plain records should have null failure columns")
	}
}

func TestHandler_ErrAttrBecomesFailure(t *testing.T) {
	s, path := newTestSink(t)
	logger := slog.New(NewHandler(s))

	logger.Error("read failed", "err", io.ErrUnexpectedEOF)

	got := queryRows(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	row := got[0]

	if row.level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", row.level)
	}
	if !row.excType.Valid || row.excType.String != "*errors.errorString" {
		t.Errorf("ExceptionType = %+v", row.excType)
	}
	if !row.traceback.Valid || !strings.Contains(row.traceback.String, "unexpected EOF") {
		t.Errorf("TraceBack = %+v", row.traceback)
	}
	if strings.Contains(row.message, "err=") {
		t.Errorf("the err attribute should not also render into the message: %q", row.message)
	}
}

func TestHandler_RespectsSinkThreshold(t *testing.T) {
	s, path := newTestSink(t, sink.WithLevel(types.LevelWarning))
	logger := slog.New(NewHandler(s))

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	got := queryRows(t, path)
	if len(got) != 1 {
		t.Fatalf("expected only the warning, got %d rows", len(got))
	}
	if got[0].level != "WARNING" || got[0].message != "kept" {
		t.Errorf("unexpected surviving row: %+v", got[0])
	}
}

func TestHandler_WithAttrsAndGroups(t *testing.T) {
	s, path := newTestSink(t)

	logger := slog.New(NewHandler(s, WithLoggerName("web"))).
		With("region", "eu").
		WithGroup("req")
	logger.Info("handled", "id", 7)

	got := queryRows(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}

	msg := got[0].message
	if !strings.Contains(msg, "region=eu") {
		t.Errorf("handler attrs missing from message: %q", msg)
	}
	if !strings.Contains(msg, "req.id=7") {
		t.Errorf("group-qualified attr missing from message: %q", msg)
	}
}

func TestHandler_LoggerAttrOverridesName(t *testing.T) {
	s, path := newTestSink(t, sink.WithLevel(types.LevelDebug))
	logger := slog.New(NewHandler(s, WithLoggerName("web")))

	logger.Info("from a sublogger", "logger", "web.auth")

	got := queryRows(t, path)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].loggerName != "web.auth" {
		t.Errorf("LoggerName = %q, want web.auth", got[0].loggerName)
	}
	if strings.Contains(got[0].message, "logger=") {
		t.Errorf("the logger attribute should not render into the message: %q", got[0].message)
	}
}

func TestMapLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want types.Level
	}{
		{slog.LevelDebug, types.LevelDebug},
		{slog.LevelDebug + 2, types.LevelDebug},
		{slog.LevelInfo, types.LevelInfo},
		{slog.LevelWarn, types.LevelWarning},
		{slog.LevelError, types.LevelError},
		{slog.LevelError + 4, types.LevelCritical},
	}

	for _, tt := range tests {
		if got := mapLevel(tt.in); got != tt.want {
			t.Errorf("mapLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitFunction(t *testing.T) {
	tests := []struct {
		in         string
		wantModule string
		wantName   string
	}{
		{"github.com/acme/app/internal/web.(*Server).handle", "github.com/acme/app/internal/web", "(*Server).handle"},
		{"main.main", "main", "main"},
		{"", "", ""},
	}

	for _, tt := range tests {
		module, name := splitFunction(tt.in)
		if module != tt.wantModule || name != tt.wantName {
			t.Errorf("splitFunction(%q) = (%q, %q), want (%q, %q)", tt.in, module, name, tt.wantModule, tt.wantName)
		}
	}
}

func TestHandler_NeverReturnsError(t *testing.T) {
	// A rotating sink pointed at an unwritable directory fails on
	// every emit; the handler still reports success to slog.
	var hooked int
	s := sink.NewRotating(
		filepath.Join(t.TempDir(), "missing", "app.db"), "day",
		sink.WithErrorHook(func(*types.Record, error) { hooked++ }),
	)
	logger := slog.New(NewHandler(s))

	logger.Error("doomed", "err", errors.New("boom"))

	if hooked != 1 {
		t.Errorf("expected the sink hook to fire once, got %d", hooked)
	}
}
