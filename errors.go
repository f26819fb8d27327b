package clonefile

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/bamsammich/clonefile/internal/platform"
)

// Kind classifies a clone failure.
type Kind int

const (
	KindOther Kind = iota
	KindInvalidInput
	KindSourceNotFound
	KindDestinationExists
	KindUnsupported
)

var kindNames = [...]string{
	KindOther:             "other",
	KindInvalidInput:      "invalid_input",
	KindSourceNotFound:    "source_not_found",
	KindDestinationExists: "destination_exists",
	KindUnsupported:       "unsupported",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Sentinels matched by errors.Is against *Error and *ConversionError.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSourceNotFound    = errors.New("source not found")
	ErrDestinationExists = errors.New("destination exists")
	ErrUnsupported       = platform.ErrUnsupported
	ErrPoolClosed        = errors.New("clone pool closed")
)

// ConversionError reports an argument that is not a usable path or option
// value. It is raised before any system call.
type ConversionError struct {
	Expected string
	Value    any
	Reason   string
}

func (e *ConversionError) Error() string {
	var msg string
	if s, ok := e.Value.(string); ok {
		msg = fmt.Sprintf("failed to convert value `string %q` into type `%s`", s, e.Expected)
	} else {
		msg = fmt.Sprintf("failed to convert value `%T %v` into type `%s`", e.Value, e.Value, e.Expected)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Error is an OS-level clone failure. Code is the errno reported by the
// kernel and Err is the underlying error, so errors.Is also matches
// fs.ErrNotExist, fs.ErrExist and the syscall.Errno values.
type Error struct {
	Op          string
	Source      string
	Destination string
	Code        int
	Kind        Kind
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %s: %d %s", e.Op, e.Source, e.Destination, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrSourceNotFound:
		return e.Kind == KindSourceNotFound
	case ErrDestinationExists:
		return e.Kind == KindDestinationExists
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	}
	return false
}

// KindOf returns the classification of err, or KindOther when err did not
// come from this package.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	var verr *ConversionError
	if errors.As(err, &verr) {
		return KindInvalidInput
	}
	return KindOther
}

// Code returns the errno carried by err, or 0 when there is none.
func Code(err error) int {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return 0
}

func translate(err error, src, dst string, opts Options) *Error {
	e := &Error{Op: "clonefile", Source: src, Destination: dst, Code: failed, Err: err}

	var errno syscall.Errno
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		e.Code = int(syscall.ENOTSUP)
		e.Kind = KindUnsupported
	case errors.As(err, &errno):
		e.Code = int(errno)
		e.Kind = classify(errno, src, opts.NoFollow)
	}
	return e
}

// classify maps an errno to a Kind. clonefile(2) reports ENOENT both for a
// missing source and for a missing destination directory, so the source is
// checked to tell them apart.
func classify(errno syscall.Errno, src string, noFollow bool) Kind {
	switch errno {
	case syscall.EEXIST:
		return KindDestinationExists
	case syscall.ENOTSUP:
		return KindUnsupported
	case syscall.ENOENT:
		if sourceMissing(src, noFollow) {
			return KindSourceNotFound
		}
	}
	return KindOther
}

func sourceMissing(src string, noFollow bool) bool {
	stat := os.Stat
	if noFollow {
		stat = os.Lstat
	}
	_, err := stat(src)
	return errors.Is(err, os.ErrNotExist)
}
