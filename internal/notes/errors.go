package notes

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes storage and query errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an id did not resolve to a live record.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConflict indicates an optimistic version check failed; the
	// caller must reload the record before retrying.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeNameConflict indicates a tag rename collided with an
	// existing tag. Consolidating duplicates is an explicit merge.
	ErrCodeNameConflict ErrorCode = "NAME_CONFLICT"

	// ErrCodeQuerySyntax indicates a malformed query or regex pattern.
	ErrCodeQuerySyntax ErrorCode = "QUERY_SYNTAX"

	// ErrCodeInvalid indicates input that fails record validation, such
	// as an empty title or an over-long tag name.
	ErrCodeInvalid ErrorCode = "INVALID"

	// ErrCodeStorageContended indicates another process holds an
	// incompatible lock on the store. Surfaced as a status, not fatal.
	ErrCodeStorageContended ErrorCode = "STORAGE_CONTENDED"

	// ErrCodeCorruption indicates the underlying storage is unreadable.
	ErrCodeCorruption ErrorCode = "CORRUPTION"

	// ErrCodeIOFailure indicates a journal or backup write failed.
	ErrCodeIOFailure ErrorCode = "IO_FAILURE"
)

// Error is a structured storage/query error.
//
// Errors carry a code for programmatic handling, a human-readable message,
// and optional context fields (the note or tag involved, or the offending
// query fragment). Use the Is* helpers rather than matching codes directly;
// they unwrap via errors.As.
type Error struct {
	Code     ErrorCode
	Message  string
	NoteID   int64
	TagName  string
	Fragment string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.NoteID != 0:
		return fmt.Sprintf("%s: %s (note=%d)", e.Code, e.Message, e.NoteID)
	case e.TagName != "":
		return fmt.Sprintf("%s: %s (tag=%q)", e.Code, e.Message, e.TagName)
	case e.Fragment != "":
		return fmt.Sprintf("%s: %s (fragment=%q)", e.Code, e.Message, e.Fragment)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func is(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return is(err, ErrCodeNotFound) }

// IsConflict reports whether err is an optimistic concurrency conflict.
func IsConflict(err error) bool { return is(err, ErrCodeConflict) }

// IsNameConflict reports whether err is a tag name collision.
func IsNameConflict(err error) bool { return is(err, ErrCodeNameConflict) }

// IsQuerySyntax reports whether err is a malformed query or regex.
func IsQuerySyntax(err error) bool { return is(err, ErrCodeQuerySyntax) }

// IsInvalid reports whether err is a record validation failure.
func IsInvalid(err error) bool { return is(err, ErrCodeInvalid) }

// IsStorageContended reports whether err is lock contention from another
// process. Callers should surface a status and re-check later.
func IsStorageContended(err error) bool { return is(err, ErrCodeStorageContended) }

// NewNotFound creates a NOT_FOUND error for a note id.
func NewNotFound(noteID int64) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "note not found",
		NoteID:  noteID,
	}
}

// NewTagNotFound creates a NOT_FOUND error for a tag name.
func NewTagNotFound(name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "tag not found",
		TagName: name,
	}
}

// NewConflict creates a CONFLICT error for a note whose updated_at advanced
// past the caller's last read.
func NewConflict(noteID int64) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: "note changed since last read, reload and retry",
		NoteID:  noteID,
	}
}

// NewNameConflict creates a NAME_CONFLICT error for a tag rename collision.
func NewNameConflict(name string) *Error {
	return &Error{
		Code:    ErrCodeNameConflict,
		Message: "a different tag already uses this name",
		TagName: name,
	}
}

// NewQuerySyntax creates a QUERY_SYNTAX error carrying the offending
// fragment.
func NewQuerySyntax(fragment string, cause error) *Error {
	return &Error{
		Code:     ErrCodeQuerySyntax,
		Message:  "malformed query",
		Fragment: fragment,
		Err:      cause,
	}
}
