package notes

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpers_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer context: %w", NewNotFound(7))

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should unwrap")
	}
	if IsConflict(wrapped) {
		t.Error("IsConflict must not match a NOT_FOUND error")
	}
}

func TestErrorHelpers_RejectPlainErrors(t *testing.T) {
	plain := errors.New("disk on fire")

	if IsNotFound(plain) || IsConflict(plain) || IsQuerySyntax(plain) || IsInvalid(plain) {
		t.Error("helpers must not match unstructured errors")
	}
}

func TestError_MessageIncludesContext(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewNotFound(42), `NOT_FOUND: note not found (note=42)`},
		{NewTagNotFound("home"), `NOT_FOUND: tag not found (tag="home")`},
		{NewConflict(7), `CONFLICT: note changed since last read, reload and retry (note=7)`},
		{NewQuerySyntax("mil(k", nil), `QUERY_SYNTAX: malformed query (fragment="mil(k")`},
		{&Error{Code: ErrCodeIOFailure, Message: "writing snapshot"}, `IO_FAILURE: writing snapshot`},
		{&Error{Code: ErrCodeInvalid, Message: "note title cannot be empty"}, `INVALID: note title cannot be empty`},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("regex: missing closing )")
	err := NewQuerySyntax("mil(k", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}
