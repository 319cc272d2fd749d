// Package deadletter provides a durable fallback journal for log
// records the sink failed to persist. Entries are appended to segment
// files framed as [length:4 LE][murmur3-32:4 LE][snappy(JSON)] so a
// torn tail or a corrupt frame never poisons the rest of the journal.
package deadletter

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	sqerrors "github.com/sqlog/sqlog/internal/errors"
	"github.com/sqlog/sqlog/pkg/sink"
	"github.com/sqlog/sqlog/pkg/types"
)

// maxFrameSize bounds a single frame; anything larger is treated as
// corruption when reading.
const maxFrameSize = 16 << 20

// Entry is one journaled failure: the record that could not be
// persisted plus the classified failure detail.
type Entry struct {
	// ID is a unique identifier assigned at append time
	ID string `json:"id"`

	// LoggedAt is when the failure was journaled
	LoggedAt time.Time `json:"logged_at"`

	// Record is the log record that failed to persist
	Record *types.Record `json:"record"`

	// Category and Code classify the failure (see internal/errors)
	Category string `json:"category,omitempty"`
	Code     string `json:"code,omitempty"`

	// Reason is the rendered failure detail
	Reason string `json:"reason"`
}

// Journal is an append-only segment journal. It is safe for use from
// multiple goroutines; appends are serialized by a mutex.
type Journal struct {
	dir        string
	segment    *os.File
	segmentID  uint64
	offset     int64
	maxSegSize int64
	mu         sync.Mutex
}

// Open opens (or creates) a journal directory, resuming the highest
// existing segment. maxSegSize is the size past which appends roll to
// a new segment file.
func Open(dir string, maxSegSize int64) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "create journal directory", err)
	}

	j := &Journal{
		dir:        dir,
		maxSegSize: maxSegSize,
	}
	if err := j.findLastSegment(); err != nil {
		return nil, err
	}
	if err := j.openSegment(); err != nil {
		return nil, err
	}
	return j, nil
}

// findLastSegment finds the highest segment id from existing files.
// Segment files are named dlq_{segmentID:016x}.log.
func (j *Journal) findLastSegment() error {
	files, err := os.ReadDir(j.dir)
	if err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "read journal directory", err)
	}

	var last uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var id uint64
		if _, err := fmt.Sscanf(file.Name(), "dlq_%016x.log", &id); err == nil && id > last {
			last = id
		}
	}
	j.segmentID = last
	return nil
}

// openSegment opens the current segment for appending.
func (j *Journal) openSegment() error {
	path := j.segmentPath(j.segmentID)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "open journal segment", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "seek journal segment", err)
	}

	j.segment = file
	j.offset = offset
	return nil
}

func (j *Journal) segmentPath(id uint64) string {
	return filepath.Join(j.dir, fmt.Sprintf("dlq_%016x.log", id))
}

// Append journals one failed record and returns the assigned entry ID.
func (j *Journal) Append(rec *types.Record, cause error) (string, error) {
	entry := &Entry{
		ID:       uuid.New().String(),
		LoggedAt: time.Now(),
		Record:   rec,
		Category: string(sqerrors.GetCategory(cause)),
		Code:     sqerrors.GetCode(cause),
	}
	if cause != nil {
		entry.Reason = cause.Error()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return "", sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "serialize entry", err)
	}
	compressed := snappy.Encode(nil, payload)

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.maxSegSize > 0 && j.offset >= j.maxSegSize {
		if err := j.rollSegment(); err != nil {
			return "", err
		}
	}

	if err := j.writeFrame(compressed); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// rollSegment closes the current segment and starts the next one.
func (j *Journal) rollSegment() error {
	if err := j.segment.Close(); err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "close journal segment", err)
	}
	j.segmentID++
	return j.openSegment()
}

// writeFrame writes one framed entry: length, checksum, payload.
func (j *Journal) writeFrame(compressed []byte) error {
	if err := binary.Write(j.segment, binary.LittleEndian, uint32(len(compressed))); err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "write frame length", err)
	}
	if err := binary.Write(j.segment, binary.LittleEndian, murmur3.Sum32(compressed)); err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "write frame checksum", err)
	}
	n, err := j.segment.Write(compressed)
	if err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "write frame payload", err)
	}
	j.offset += int64(8 + n)
	return nil
}

// Replay streams journaled entries in append order. Frames whose
// checksum does not match are skipped; a truncated tail ends the
// segment silently. A non-nil error from fn stops the replay and is
// returned.
func (j *Journal) Replay(fn func(*Entry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for id := uint64(0); id <= j.segmentID; id++ {
		path := j.segmentPath(id)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := replaySegment(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func replaySegment(path string, fn func(*Entry) error) error {
	file, err := os.Open(path)
	if err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeCorruptEntry, "open journal segment", err)
	}
	defer file.Close()

	for {
		var length, sum uint32
		if err := binary.Read(file, binary.LittleEndian, &length); err != nil {
			// io.EOF is the clean end; anything else is a torn tail.
			return nil
		}
		if err := binary.Read(file, binary.LittleEndian, &sum); err != nil {
			return nil
		}
		if length == 0 || length > maxFrameSize {
			return nil
		}

		compressed := make([]byte, length)
		if _, err := io.ReadFull(file, compressed); err != nil {
			return nil
		}

		if murmur3.Sum32(compressed) != sum {
			continue
		}

		payload, err := snappy.Decode(nil, compressed)
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			continue
		}

		if err := fn(&entry); err != nil {
			return err
		}
	}
}

// Close syncs and closes the current segment.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.segment == nil {
		return nil
	}
	if err := j.segment.Sync(); err != nil {
		j.segment.Close()
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "sync journal segment", err)
	}
	err := j.segment.Close()
	j.segment = nil
	if err != nil {
		return sqerrors.NewJournalError(sqerrors.CodeAppendFailed, "close journal segment", err)
	}
	return nil
}

// Hook adapts a journal into a sink error hook. If the journal append
// itself fails the record is reported on the process log instead, so
// the hook never raises.
func Hook(j *Journal) sink.ErrorHook {
	return func(rec *types.Record, err error) {
		if _, appendErr := j.Append(rec, err); appendErr != nil {
			sink.FallbackHook(rec, fmt.Errorf("%v (journal append failed: %v)", err, appendErr))
		}
	}
}
