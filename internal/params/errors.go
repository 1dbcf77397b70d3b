package params

import "github.com/pkg/errors"

// Sentinels for errors.Is classification (spec §4.5 Failures).
var (
	ErrShortRead      = errors.New("buffer too short while extracting a prefix field")
	ErrUnknownType    = errors.New("TypeRef target missing from resolved set")
	ErrNoMatchingCase = errors.New("no variant matches the extracted tag")
)

// ShortReadError reports a buffer that ran out of bytes partway through
// extracting a declared prefix field.
type ShortReadError struct {
	Path        string
	Needed, Have uint64
}

func (e *ShortReadError) Error() string {
	return errors.Wrapf(ErrShortRead, "%q: need %d, have %d", e.Path, e.Needed, e.Have).Error()
}

func (e *ShortReadError) Unwrap() error { return ErrShortRead }

// UnknownTypeError reports a TypeRef target absent from the resolved set
// passed to Extract.
type UnknownTypeError struct {
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return errors.Wrapf(ErrUnknownType, "%q", e.TypeName).Error()
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// NoMatchingCaseError reports an Enum tag or SizeDiscriminatedUnion length
// that matches no declared variant.
type NoMatchingCaseError struct {
	Path  string
	Value uint64
}

func (e *NoMatchingCaseError) Error() string {
	return errors.Wrapf(ErrNoMatchingCase, "%q = %d", e.Path, e.Value).Error()
}

func (e *NoMatchingCaseError) Unwrap() error { return ErrNoMatchingCase }
