package abi

import "github.com/pkg/errors"

// Sentinels matching the stable external error taxonomy of spec §6.5 and
// §7: ResolutionError and LayoutGraphError surface unchanged from
// internal/resolver and internal/graph (their own typed errors already
// satisfy errors.Is against internal/resolver.Err* and
// internal/graph.Err*); IrValidationError and ReflectError are the two
// categories owned at this boundary.
var (
	// ErrIrValidation names the category of internal/interp's
	// validate/evaluate failures (UnknownIrType, MissingParameter,
	// ArithmeticOverflow, BufferTooSmall). Those errors do not wrap it:
	// Reflect reports them as a ParseError whose Source is the
	// internal/interp error, so errors.Is against ErrIrValidation does not
	// match them.
	ErrIrValidation = errors.New("layout IR validation failed")

	// ErrReflect classifies a failure to reflect a buffer: unknown type
	// name, a parse failure partway through decoding, or a missing
	// root-type configuration.
	ErrReflect = errors.New("reflection failed")
)

// UnknownTypeError reports that reflect (or a root-type helper) was asked
// for a type name absent from the resolved set.
type UnknownTypeError struct {
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return errors.Wrapf(ErrReflect, "unknown type %q", e.TypeName).Error()
}

func (e *UnknownTypeError) Unwrap() error { return ErrReflect }

// ParseError reports a failure partway through decoding a specific type,
// wrapping whatever lower-level error (from internal/params or
// internal/interp) caused it. It matches ErrReflect as well as Source under
// errors.Is and errors.As.
type ParseError struct {
	TypeName string
	Source   error
}

func (e *ParseError) Error() string {
	return errors.Wrapf(e.Source, "parsing %q", e.TypeName).Error()
}

func (e *ParseError) Unwrap() []error { return []error{ErrReflect, e.Source} }

// RootKind names which root-type helper was asked for in a
// MissingRootTypeError.
type RootKind string

const (
	RootInstruction RootKind = "instruction"
	RootAccount     RootKind = "account"
	RootEvent       RootKind = "event"
)

// MissingRootTypeError reports that a root-type helper (ReflectInstruction,
// ReflectAccount, ReflectEvent) was called but the schema's File.Roots
// left that slot unset.
type MissingRootTypeError struct {
	Kind RootKind
}

func (e *MissingRootTypeError) Error() string {
	return errors.Wrapf(ErrReflect, "no root type configured for %q", e.Kind).Error()
}

func (e *MissingRootTypeError) Unwrap() error { return ErrReflect }
