package resolver

import "github.com/pkg/errors"

// Sentinels for errors.Is classification; each concrete error type below
// wraps exactly one of these.
var (
	ErrUnknownType    = errors.New("unknown type reference")
	ErrOverflow       = errors.New("arithmetic overflow during resolution")
	ErrDuplicateSize  = errors.New("duplicate expected_size in size-discriminated union")
	ErrForbiddenField = errors.New("field reference does not exist in enclosing context")
)

// UnknownTypeError reports a TypeRef, Sizeof, or Alignof that names a type
// not present in the schema.
type UnknownTypeError struct {
	TypeName string
	Context  string
}

func (e *UnknownTypeError) Error() string {
	return errors.Wrapf(ErrUnknownType, "%q (while resolving %s)", e.TypeName, e.Context).Error()
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// OverflowError reports an arithmetic overflow while evaluating a constant
// size or tag expression.
type OverflowError struct {
	TypeName string
}

func (e *OverflowError) Error() string {
	return errors.Wrapf(ErrOverflow, "while resolving %q", e.TypeName).Error()
}

func (e *OverflowError) Unwrap() error { return ErrOverflow }

// DuplicateSDUSizeError reports two variants of the same
// SizeDiscriminatedUnion sharing an ExpectedSize.
type DuplicateSDUSizeError struct {
	TypeName     string
	ExpectedSize uint64
	Variants     []string
}

func (e *DuplicateSDUSizeError) Error() string {
	return errors.Wrapf(ErrDuplicateSize, "%q: size %d shared by variants %v", e.TypeName, e.ExpectedSize, e.Variants).Error()
}

func (e *DuplicateSDUSizeError) Unwrap() error { return ErrDuplicateSize }

// ForbiddenFieldRefError reports a field-path reference (in an array size
// or enum tag expression) that cannot be resolved against the enclosing
// struct's visible fields.
type ForbiddenFieldRefError struct {
	TypeName string
	Path     string
}

func (e *ForbiddenFieldRefError) Error() string {
	return errors.Wrapf(ErrForbiddenField, "%q: path %q", e.TypeName, e.Path).Error()
}

func (e *ForbiddenFieldRefError) Unwrap() error { return ErrForbiddenField }
