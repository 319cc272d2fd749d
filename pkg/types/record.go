// Package types provides the public event model for sqlog.
package types

import "time"

// Record is an immutable snapshot of one log occurrence, produced by
// the hosting logging framework and consumed read-only by the sink.
type Record struct {
	// Time is the wall-clock capture time of the occurrence. Sub-second
	// precision is carried by time.Time itself.
	Time time.Time `json:"time"`

	// LoggerName identifies the logger that produced the record
	LoggerName string `json:"logger_name"`

	// Level is the severity of the record
	Level Level `json:"level"`

	// FileName is the source file path of the logging call
	FileName string `json:"file_name"`

	// LineNo is the source line number of the logging call
	LineNo int `json:"line_no"`

	// ModuleName is the package or module containing the logging call
	ModuleName string `json:"module_name"`

	// FuncName is the function containing the logging call
	FuncName string `json:"func_name"`

	// ProcessID is the operating-system process id
	ProcessID int `json:"process_id"`

	// ProcessName is a human-readable process name
	ProcessName string `json:"process_name"`

	// ThreadID identifies the emitting thread, when the caller has one.
	// Goroutine ids are not exposed by the runtime, so in-process Go
	// callers usually leave this zero.
	ThreadID int64 `json:"thread_id"`

	// ThreadName is a human-readable thread name, when the caller has one
	ThreadName string `json:"thread_name"`

	// Message is the fully rendered log message
	Message string `json:"message"`

	// Failure is the captured failure, nil when the record carries none
	Failure *Failure `json:"failure,omitempty"`
}
