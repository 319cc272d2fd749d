// Package sink persists log records into SQLite database files, one
// parameterized insert per record. A sink targets either a fixed
// storage file, provisioned eagerly at construction, or a rotating
// file template resolved per record from its timestamp. Storage and
// extraction failures never propagate out of Emit: they are routed to
// the configured error hook and the record is dropped.
package sink

import (
	"context"
	"database/sql"
	"errors"
	"log"

	_ "github.com/mattn/go-sqlite3"

	sqerrors "github.com/sqlog/sqlog/internal/errors"
	"github.com/sqlog/sqlog/pkg/rotation"
	"github.com/sqlog/sqlog/pkg/schema"
	"github.com/sqlog/sqlog/pkg/types"
)

// ErrorHook receives the record that failed to persist together with
// the failure detail. Hooks must not panic; by convention they log the
// failure to a fallback channel.
type ErrorHook func(rec *types.Record, err error)

// Sink writes log records into a SQLite storage file. Apart from its
// immutable configuration it holds no state between Emit calls: each
// emit opens its own connection and releases it on every exit path.
type Sink struct {
	path     string
	template string
	interval rotation.Interval
	rotating bool

	level    types.Level
	registry *schema.Registry
	hook     ErrorHook
}

// Option configures a Sink at construction.
type Option func(*Sink)

// WithLevel sets the minimum severity the sink reports via Enabled.
// The default is INFO.
func WithLevel(level types.Level) Option {
	return func(s *Sink) { s.level = level }
}

// WithErrorHook replaces the default error hook, which logs dropped
// records to the process log.
func WithErrorHook(hook ErrorHook) Option {
	return func(s *Sink) {
		if hook != nil {
			s.hook = hook
		}
	}
}

// WithRegistry replaces the default column registry.
func WithRegistry(registry *schema.Registry) Option {
	return func(s *Sink) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// New creates a fixed-location sink. The storage file is opened
// eagerly and the logs table is provisioned before New returns; a
// provisioning failure propagates so an unusable sink fails fast
// before the application starts logging.
func New(path string, opts ...Option) (*Sink, error) {
	s := newSink(opts)
	s.path = path

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, sqerrors.NewStorageError(sqerrors.CodeOpenFailed, "open storage file "+path, err)
	}
	defer db.Close()

	if err := ensureTable(context.Background(), db, s.registry); err != nil {
		return nil, err
	}
	return s, nil
}

// NewRotating creates a rotating sink for a base template and a
// calendar interval. Construction performs no I/O; the target file is
// resolved and provisioned on every emit.
func NewRotating(template string, interval rotation.Interval, opts ...Option) *Sink {
	s := newSink(opts)
	s.template = template
	s.interval = interval
	s.rotating = true
	return s
}

func newSink(opts []Option) *Sink {
	s := &Sink{
		level:    types.DefaultLevel,
		registry: schema.Default(),
		hook:     FallbackHook,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Level returns the sink's minimum severity.
func (s *Sink) Level() types.Level {
	return s.level
}

// Enabled reports whether records at the given level meet the sink's
// severity threshold. Filtering itself is the hosting framework's
// responsibility; Emit does not re-check.
func (s *Sink) Enabled(level types.Level) bool {
	return level >= s.level
}

// Target resolves the concrete storage file for a record. Rotation is
// keyed on the timestamp in local time, matching the stored Time
// column, regardless of the zone the record carries.
func (s *Sink) Target(rec *types.Record) string {
	if !s.rotating {
		return s.path
	}
	return rotation.Resolve(s.template, s.interval, rec.Time.Local())
}

// Emit persists one record. Any failure while provisioning,
// extracting, or inserting is classified, handed to the error hook
// exactly once, and swallowed; a failed emit never prevents subsequent
// emits from being attempted. The storage connection is released on
// every exit path.
func (s *Sink) Emit(ctx context.Context, rec *types.Record) {
	if rec == nil {
		s.hook(nil, sqerrors.NewExtractionError("extract row values", errors.New("nil record")))
		return
	}

	path := s.Target(rec)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		s.hook(rec, sqerrors.NewStorageError(sqerrors.CodeOpenFailed, "open storage file "+path, err))
		return
	}
	defer db.Close()

	if s.rotating {
		if err := ensureTable(ctx, db, s.registry); err != nil {
			s.hook(rec, err)
			return
		}
	}

	values, err := s.registry.ExtractRow(rec)
	if err != nil {
		s.hook(rec, sqerrors.NewExtractionError("extract row values", err))
		return
	}

	if _, err := db.ExecContext(ctx, s.registry.InsertSQL(), values...); err != nil {
		s.hook(rec, sqerrors.NewStorageError(sqerrors.CodeInsertFailed, "insert into "+path, err))
		return
	}
}

// ensureTable provisions the logs table. CREATE TABLE IF NOT EXISTS
// makes repeated calls against the same file harmless.
func ensureTable(ctx context.Context, db *sql.DB, registry *schema.Registry) error {
	if _, err := db.ExecContext(ctx, registry.CreateTableSQL()); err != nil {
		return sqerrors.NewStorageError(sqerrors.CodeProvisionFailed, "provision logs table", err)
	}
	return nil
}

// FallbackHook is the default error hook: it reports the dropped
// record on the process log. Custom hooks can delegate to it when
// their own channel fails.
func FallbackHook(rec *types.Record, err error) {
	logger := "<nil>"
	if rec != nil {
		logger = rec.LoggerName
	}
	log.Printf("sqlog: dropping record from logger %q: %v", logger, err)
}
