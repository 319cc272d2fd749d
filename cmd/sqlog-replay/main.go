// Package main implements the sqlog-replay binary: it re-emits records
// from a dead-letter journal into a sink, the recovery path for emits
// that failed and were journaled by the dead-letter hook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/sqlog/sqlog/internal/config"
	"github.com/sqlog/sqlog/internal/deadletter"
	"github.com/sqlog/sqlog/pkg/sink"
	"github.com/sqlog/sqlog/pkg/types"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		dir            string
		database       string
		rotateTemplate string
		rotateInterval string
		showVersion    bool
	)

	flag.StringVar(&dir, "dir", "", "Dead-letter journal directory to replay")
	flag.StringVar(&database, "database", "", "Fixed storage file path")
	flag.StringVar(&rotateTemplate, "rotate-template", "", "Base storage-path template for rotation")
	flag.StringVar(&rotateInterval, "rotate-interval", "", "Rotation interval: year, month, day, hour, minute, none")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sqlog-replay - re-emit journaled records into SQLite\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sqlog-replay --dir <journal> --database <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("sqlog-replay version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	config.LoadFromEnv(cfg)
	if database != "" {
		cfg.Database = database
	}
	if rotateTemplate != "" {
		cfg.Rotate.Template = rotateTemplate
	}
	if rotateInterval != "" {
		cfg.Rotate.Interval = rotateInterval
	}
	if dir == "" {
		dir = cfg.DeadLetter.Dir
	}
	if dir == "" {
		log.Fatalf("A journal directory is required (--dir or SQLOG_DEADLETTER_DIR)")
	}
	// Replay accepts every journaled record regardless of the
	// configured threshold: the records already passed filtering once.
	cfg.Level = types.LevelDebug.String()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	journal, err := deadletter.Open(dir, cfg.DeadLetter.MaxSegmentSize)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	target, err := buildSink(cfg)
	if err != nil {
		log.Fatalf("Failed to create sink: %v", err)
	}

	ctx := context.Background()
	replayed := 0
	err = journal.Replay(func(entry *deadletter.Entry) error {
		if entry.Record == nil {
			return nil
		}
		target.Emit(ctx, entry.Record)
		replayed++
		return nil
	})
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
	fmt.Printf("sqlog-replay: %d records re-emitted\n", replayed)
}

func buildSink(cfg *config.Config) (*sink.Sink, error) {
	if cfg.Rotating() {
		return sink.NewRotating(cfg.Rotate.Template, cfg.Interval()), nil
	}
	return sink.New(cfg.Database)
}
