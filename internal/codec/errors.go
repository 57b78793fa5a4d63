package codec

import (
	"errors"
	"fmt"
)

// ImportKind says why an import was rejected as a whole.
type ImportKind string

const (
	// KindMalformed means the bytes did not parse at all.
	KindMalformed ImportKind = "malformed"
	// KindShape means the bytes parsed but are not a list of records.
	KindShape ImportKind = "shape"
)

// Sentinels for errors.Is checks against an *ImportError.
var (
	ErrMalformed = errors.New("malformed import data")
	ErrShape     = errors.New("import data is not a list of records")
)

// ImportError rejects an import wholesale. Per-row problems never produce one.
type ImportError struct {
	Kind ImportKind
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("import failed (%s)", e.Kind)
	}
	return fmt.Sprintf("import failed (%s): %v", e.Kind, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is matches the ErrMalformed and ErrShape sentinels by kind.
func (e *ImportError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrShape:
		return e.Kind == KindShape
	}
	return false
}

func malformed(err error) *ImportError {
	return &ImportError{Kind: KindMalformed, Err: err}
}

func shape(format string, args ...any) *ImportError {
	return &ImportError{Kind: KindShape, Err: fmt.Errorf(format, args...)}
}
