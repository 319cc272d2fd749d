// Package rotation derives time-keyed storage file names. Resolving a
// name is a pure, total function of the base template, the configured
// interval, and the event's local timestamp: the calendar suffix for
// the interval is inserted between the template's stem and its
// extension.
package rotation

import (
	"strings"
	"time"

	sqerrors "github.com/sqlog/sqlog/internal/errors"
)

// Interval is the calendar granularity at which the sink switches to a
// new storage file.
type Interval string

const (
	IntervalNone   Interval = "none"
	IntervalYear   Interval = "year"
	IntervalMonth  Interval = "month"
	IntervalDay    Interval = "day"
	IntervalHour   Interval = "hour"
	IntervalMinute Interval = "minute"
)

// DefaultExtension is appended when the base template carries no
// recognized storage-file extension.
const DefaultExtension = ".sqlite3"

// suffixLayouts maps each interval to its calendar-aligned suffix
// layout. Intervals absent from the table resolve to no suffix.
var suffixLayouts = map[Interval]string{
	IntervalYear:   "_2006",
	IntervalMonth:  "_2006-01",
	IntervalDay:    "_2006-01-02",
	IntervalHour:   "_2006-01-02_15",
	IntervalMinute: "_2006-01-02_15:04",
}

// extensions are the recognized storage-file suffixes, longest first.
// Matching is case-sensitive.
var extensions = []string{".sqlite3", ".sqlite", ".db"}

// ParseInterval validates an interval name at configuration time.
// Resolve itself tolerates unknown intervals for compatibility, but
// construction paths should reject typos early.
func ParseInterval(s string) (Interval, error) {
	switch iv := Interval(strings.ToLower(strings.TrimSpace(s))); iv {
	case IntervalNone, IntervalYear, IntervalMonth, IntervalDay, IntervalHour, IntervalMinute:
		return iv, nil
	default:
		return IntervalNone, sqerrors.NewConfigError(sqerrors.CodeInvalidInterval, "unknown rotation interval: "+s)
	}
}

// Resolve derives the concrete storage file name for one event. The
// base template's extension is preserved verbatim and relocated after
// the rotation suffix; a template without a recognized extension gets
// DefaultExtension. Unknown intervals degrade to no suffix rather than
// erroring. Never fails.
func Resolve(base string, iv Interval, t time.Time) string {
	stem, ext := SplitExtension(base)

	layout, ok := suffixLayouts[iv]
	if !ok {
		return stem + ext
	}
	return stem + t.Truncate(time.Second).Format(layout) + ext
}

// SplitExtension splits a base template into stem and extension. When
// no recognized extension is present the whole template is the stem
// and the extension defaults to DefaultExtension.
func SplitExtension(base string) (stem, ext string) {
	for _, e := range extensions {
		if strings.HasSuffix(base, e) {
			return strings.TrimSuffix(base, e), e
		}
	}
	return base, DefaultExtension
}
