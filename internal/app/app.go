// Package app assembles a configured sink and its supporting pieces
// for the sqlog binaries.
package app

import (
	"fmt"

	"github.com/sqlog/sqlog/internal/config"
	"github.com/sqlog/sqlog/internal/deadletter"
	"github.com/sqlog/sqlog/pkg/sink"
)

// App holds the assembled sink and the dead-letter journal backing its
// error hook, if one is configured.
type App struct {
	Sink    *sink.Sink
	Journal *deadletter.Journal
}

// New validates the configuration and builds the sink. When a
// dead-letter directory is configured the journal is opened and wired
// in as the sink's error hook.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{}

	opts := []sink.Option{sink.WithLevel(cfg.MinLevel())}
	if cfg.DeadLetter.Dir != "" {
		journal, err := deadletter.Open(cfg.DeadLetter.Dir, cfg.DeadLetter.MaxSegmentSize)
		if err != nil {
			return nil, err
		}
		a.Journal = journal
		opts = append(opts, sink.WithErrorHook(deadletter.Hook(journal)))
	}

	if cfg.Rotating() {
		a.Sink = sink.NewRotating(cfg.Rotate.Template, cfg.Interval(), opts...)
		return a, nil
	}

	s, err := sink.New(cfg.Database, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sink = s
	return a, nil
}

// Close releases the journal, if any.
func (a *App) Close() error {
	if a.Journal == nil {
		return nil
	}
	return a.Journal.Close()
}
