// Package main implements the sqlog-ingest binary: it reads
// JSON-encoded log records line by line and persists each through a
// configured sink. Intended for piping an application's structured log
// stream into SQLite.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sqlog/sqlog/internal/app"
	"github.com/sqlog/sqlog/internal/config"
	"github.com/sqlog/sqlog/pkg/types"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile     string
		envFile        string
		database       string
		rotateTemplate string
		rotateInterval string
		level          string
		deadLetterDir  string
		input          string
		showVersion    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&envFile, "env", "", "Path to a .env file with SQLOG_* variables")
	flag.StringVar(&database, "database", "", "Fixed storage file path")
	flag.StringVar(&rotateTemplate, "rotate-template", "", "Base storage-path template for rotation")
	flag.StringVar(&rotateInterval, "rotate-interval", "", "Rotation interval: year, month, day, hour, minute, none")
	flag.StringVar(&level, "level", "", "Minimum severity (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	flag.StringVar(&deadLetterDir, "deadletter-dir", "", "Directory for the dead-letter journal")
	flag.StringVar(&input, "input", "-", "Input file of JSON records, one per line (- for stdin)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sqlog-ingest - pipe JSON log records into SQLite\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sqlog-ingest [options] < records.jsonl\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  app 2>&1 | sqlog-ingest --database app.sqlite3\n")
		fmt.Fprintf(os.Stderr, "  sqlog-ingest --rotate-template logs/app.db --rotate-interval day --input records.jsonl\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SQLOG_DATABASE          Fixed storage file path\n")
		fmt.Fprintf(os.Stderr, "  SQLOG_ROTATE_TEMPLATE   Base storage-path template\n")
		fmt.Fprintf(os.Stderr, "  SQLOG_ROTATE_INTERVAL   Rotation interval\n")
		fmt.Fprintf(os.Stderr, "  SQLOG_LEVEL             Minimum severity\n")
		fmt.Fprintf(os.Stderr, "  SQLOG_DEADLETTER_DIR    Dead-letter journal directory\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("sqlog-ingest version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("Failed to load env file: %v", err)
		}
	} else {
		// A .env in the working directory is picked up when present.
		_ = godotenv.Load()
	}

	cfg, err := loadConfig(configFile, database, rotateTemplate, rotateInterval, level, deadLetterDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create sink: %v", err)
	}
	defer application.Close()

	in, err := openInput(input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer in.Close()

	emitted, skipped, err := ingest(context.Background(), application, in)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	fmt.Printf("sqlog-ingest: %d records emitted, %d skipped\n", emitted, skipped)
}

// loadConfig resolves configuration in order: defaults, file,
// environment, flags.
func loadConfig(configFile, database, rotateTemplate, rotateInterval, level, deadLetterDir string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

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
	if level != "" {
		cfg.Level = level
	}
	if deadLetterDir != "" {
		cfg.DeadLetter.Dir = deadLetterDir
	}

	return cfg, nil
}

func openInput(input string) (io.ReadCloser, error) {
	if input == "" || input == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(input)
}

// ingest emits one record per input line. Malformed lines are counted
// as skipped, records below the sink threshold are skipped, and a
// failed emit is the error hook's business; only input I/O errors stop
// the run.
func ingest(ctx context.Context, application *app.App, in io.Reader) (emitted, skipped int, err error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec types.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Printf("sqlog-ingest: skipping malformed line: %v", err)
			skipped++
			continue
		}
		if rec.Time.IsZero() {
			rec.Time = time.Now()
		}
		if !application.Sink.Enabled(rec.Level) {
			skipped++
			continue
		}

		application.Sink.Emit(ctx, &rec)
		emitted++
	}
	if err := scanner.Err(); err != nil {
		return emitted, skipped, fmt.Errorf("read input: %w", err)
	}
	return emitted, skipped, nil
}
