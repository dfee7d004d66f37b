package convert

import (
	"errors"
	"fmt"

	"github.com/ssargent/rawbin/pkg/rawcsv"
	"github.com/ssargent/rawbin/pkg/reconcile"
	"github.com/ssargent/rawbin/pkg/store"
)

// Kind classifies conversion failures.
type Kind int

const (
	KindUnknown Kind = iota
	InputUnreadable
	HeaderParseError
	BodyTruncated // Warning only, the artifact is still written
	OutputWriteFailure
	BinaryCorrupt
)

func (k Kind) String() string {
	switch k {
	case InputUnreadable:
		return "input unreadable"
	case HeaderParseError:
		return "header parse error"
	case BodyTruncated:
		return "body truncated"
	case OutputWriteFailure:
		return "output write failure"
	case BinaryCorrupt:
		return "binary corrupt"
	default:
		return "unknown"
	}
}

// Error is a classified conversion error for one file.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf classifies err. Errors not produced by this package are classified
// by the sentinel they wrap.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}

	var perr *rawcsv.ParseError
	switch {
	case errors.As(err, &perr), errors.Is(err, reconcile.ErrZeroSampleRate):
		return HeaderParseError
	case errors.Is(err, reconcile.ErrBodyTruncated):
		return BodyTruncated
	case errors.Is(err, store.ErrCorruption), errors.Is(err, store.ErrTooLarge):
		return BinaryCorrupt
	case errors.Is(err, store.ErrShortWrite):
		return OutputWriteFailure
	}
	return KindUnknown
}

// IsWarning reports whether err only signals a corrected sample count.
func IsWarning(err error) bool {
	return KindOf(err) == BodyTruncated
}
