package mohk

import (
	"fmt"
)

// The error taxonomy below is a single tagged error type carrying one of
// five categories, wrapping a cause and exposing it via Unwrap/Cause so
// callers can errors.Is/As through any amount of github.com/pkg/errors
// wrapping, plus an ErrXxx constructor and an IsXxx classifier per
// category. One category per kind of failure rather than one type per
// concrete condition, since the classifier is what callers (the CLI
// boundary) actually need.

type category int

const (
	categoryFormatInvalid category = iota
	categoryLookupMiss
	categoryOutOfRange
	categoryUnsupported
	categoryIO
)

// taggedError is the common shape of every classified error.
type taggedError struct {
	cat category
	err error
}

func (e *taggedError) Error() string { return e.err.Error() }
func (e *taggedError) Cause() error  { return e.err }
func (e *taggedError) Unwrap() error { return e.err }

func newTagged(cat category, format string, args ...interface{}) error {
	return &taggedError{cat: cat, err: fmt.Errorf(format, args...)}
}

func wrapTagged(cat category, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &taggedError{cat: cat, err: fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)}
}

func isCategory(err error, cat category) bool {
	for err != nil {
		if te, ok := err.(*taggedError); ok && te.cat == cat {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ErrFormatInvalid builds a format-invalid error: bad magic, unsupported
// version, unknown sub-opcode, unknown tag inside a container.
func ErrFormatInvalid(format string, args ...interface{}) error {
	return newTagged(categoryFormatInvalid, format, args...)
}

// IsFormatInvalid reports whether err (or anything it wraps) is a
// format-invalid error.
func IsFormatInvalid(err error) bool { return isCategory(err, categoryFormatInvalid) }

// ErrLookupMiss builds a lookup-miss error: a requested type or id is
// absent from the archive.
func ErrLookupMiss(format string, args ...interface{}) error {
	return newTagged(categoryLookupMiss, format, args...)
}

// IsLookupMiss reports whether err is a lookup-miss error.
func IsLookupMiss(err error) bool { return isCategory(err, categoryLookupMiss) }

// ErrOutOfRange builds an out-of-range error: an index past the file
// table, an invalid bits-per-pixel selector, an unsupported dictionary
// size.
func ErrOutOfRange(format string, args ...interface{}) error {
	return newTagged(categoryOutOfRange, format, args...)
}

// IsOutOfRange reports whether err is an out-of-range error.
func IsOutOfRange(err error) bool { return isCategory(err, categoryOutOfRange) }

// ErrUnsupported builds an unsupported-feature error: a PICT image, an
// unknown encoding, an unknown pack/draw type.
func ErrUnsupported(format string, args ...interface{}) error {
	return newTagged(categoryUnsupported, format, args...)
}

// IsUnsupported reports whether err is an unsupported-feature error.
func IsUnsupported(err error) bool { return isCategory(err, categoryUnsupported) }

// WrapIO wraps a read/write/open failure as an io error, attaching context.
func WrapIO(err error, format string, args ...interface{}) error {
	return wrapTagged(categoryIO, err, format, args...)
}

// IsIO reports whether err is an io error.
func IsIO(err error) bool { return isCategory(err, categoryIO) }
