package interp

import "github.com/pkg/errors"

// Sentinels for errors.Is classification (spec §4.6 Failures, §7 taxonomy).
var (
	ErrUnknownIrType    = errors.New("reference to an undefined TypeIr")
	ErrMissingParameter = errors.New("missing IR parameter")
	ErrArithmeticOverflow = errors.New("arithmetic overflow during IR evaluation")
	ErrBufferTooSmall   = errors.New("buffer too small for computed footprint")
)

// UnknownIrTypeError reports a CallNested referencing a TypeIr not present
// in the interpreter's name -> index map.
type UnknownIrTypeError struct {
	TypeName string
}

func (e *UnknownIrTypeError) Error() string {
	return errors.Wrapf(ErrUnknownIrType, "%q", e.TypeName).Error()
}

func (e *UnknownIrTypeError) Unwrap() error { return ErrUnknownIrType }

// MissingParameterError reports a FieldRef or Switch tag whose path has no
// entry in the ParamMap being evaluated against.
type MissingParameterError struct {
	Path string
}

func (e *MissingParameterError) Error() string {
	return errors.Wrapf(ErrMissingParameter, "%q", e.Path).Error()
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

// ArithmeticOverflowError reports an AddChecked, MulChecked, or AlignUp
// that overflowed u128.
type ArithmeticOverflowError struct {
	Op string
}

func (e *ArithmeticOverflowError) Error() string {
	return errors.Wrapf(ErrArithmeticOverflow, "in %s", e.Op).Error()
}

func (e *ArithmeticOverflowError) Unwrap() error { return ErrArithmeticOverflow }

// BufferTooSmallError reports that validate's computed footprint exceeds
// the buffer length supplied to it.
type BufferTooSmallError struct {
	Needed, Have uint64
}

func (e *BufferTooSmallError) Error() string {
	return errors.Wrapf(ErrBufferTooSmall, "need %d, have %d", e.Needed, e.Have).Error()
}

func (e *BufferTooSmallError) Unwrap() error { return ErrBufferTooSmall }
