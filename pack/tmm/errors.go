package tmm

import (
	"fmt"

	"github.com/tmmtools/tmm_browser/utils"
)

// BadMagicError means the buffer does not start with "BTMM".
type BadMagicError struct {
	Magic []byte
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("tmm: incorrect magic header \"%s\", expected %q", utils.DumpToOneLineString(e.Magic), Magic)
}

// TruncationError means a read needed more bytes than were left.
type TruncationError struct {
	Owner  string
	Offset int
	Need   int
	Have   int
}

func (e *TruncationError) Error() string {
	return fmt.Sprintf("tmm: %s: truncated at 0x%x: need %d bytes, have %d", e.Owner, e.Offset, e.Need, e.Have)
}

// InvariantError means a field that the format treats as a constant holds
// something else. The file is corrupt or uses an unknown layout variant.
type InvariantError struct {
	Owner    string
	Offset   int
	Expected interface{}
	Actual   interface{}
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tmm: %s: at 0x%x expected %#v, got %#v", e.Owner, e.Offset, e.Expected, e.Actual)
}

// TrailingDataError means bytes were left after the last model.
type TrailingDataError struct {
	Offset    int
	Remaining int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("tmm: %d unexpected bytes after end of data at 0x%x", e.Remaining, e.Offset)
}

// PreconditionError is returned by encoders when an in-memory document
// cannot be written consistently.
type PreconditionError struct {
	Owner  string
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("tmm: %s.%s: %s", e.Owner, e.Field, e.Reason)
}

func expectEqual[T comparable](owner string, offset int, expected, actual T) error {
	if expected != actual {
		return &InvariantError{Owner: owner, Offset: offset, Expected: expected, Actual: actual}
	}
	return nil
}

func expectEqualSequence[T comparable](owner string, offset int, expected, actual []T) error {
	mismatch := len(expected) != len(actual)
	for i := 0; !mismatch && i < len(expected); i++ {
		mismatch = expected[i] != actual[i]
	}
	if mismatch {
		return &InvariantError{Owner: owner, Offset: offset, Expected: expected, Actual: actual}
	}
	return nil
}
