package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSqlogError_Format(t *testing.T) {
	err := New(ErrCategoryStorage, CodeInsertFailed, "insert into app.sqlite3")
	want := "[STORAGE:INSERT_FAILED] insert into app.sqlite3"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(ErrCategoryStorage, CodeInsertFailed, "insert into app.sqlite3", fmt.Errorf("disk full"))
	if got := wrapped.Error(); got != want+": disk full" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSqlogError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError(CodeInsertFailed, "insert", cause)

	if !errors.Is(err, cause) {
		t.Errorf("wrapped cause should be reachable through the chain")
	}
}

func TestSqlogError_Is(t *testing.T) {
	err := NewStorageError(CodeProvisionFailed, "provision logs table", errors.New("locked"))

	if !errors.Is(err, New(ErrCategoryStorage, CodeProvisionFailed, "")) {
		t.Errorf("errors with matching category and code should match")
	}
	if errors.Is(err, New(ErrCategoryStorage, CodeInsertFailed, "")) {
		t.Errorf("errors with different codes should not match")
	}
}

func TestGetCategoryAndCode(t *testing.T) {
	err := fmt.Errorf("emit: %w", NewExtractionError("extract row values", errors.New("nil record")))

	if got := GetCategory(err); got != ErrCategoryExtraction {
		t.Errorf("GetCategory = %q", got)
	}
	if got := GetCode(err); got != CodeExtractFailed {
		t.Errorf("GetCode = %q", got)
	}

	if GetCategory(errors.New("plain")) != "" || GetCode(errors.New("plain")) != "" {
		t.Errorf("plain errors should yield empty classification")
	}
}
