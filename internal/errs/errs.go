// Package errs defines the error taxonomy shared by the grid, jacobian,
// hessian, constraint, transport and fragility packages, plus the
// owning-context "last error" convention described in spec §6/§7.
package errs

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy of spec §6.
type Kind int

const (
	Success Kind = iota
	NullPointer
	InvalidArgument
	OutOfMemory
	DimensionMismatch
	SingularMatrix
	NumericalInstability
	PricingEngineFailed
	ConstraintViolation
	NotInitialized
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case NullPointer:
		return "NullPointer"
	case InvalidArgument:
		return "InvalidArgument"
	case OutOfMemory:
		return "OutOfMemory"
	case DimensionMismatch:
		return "DimensionMismatch"
	case SingularMatrix:
		return "SingularMatrix"
	case NumericalInstability:
		return "NumericalInstability"
	case PricingEngineFailed:
		return "PricingEngineFailed"
	case ConstraintViolation:
		return "ConstraintViolation"
	case NotInitialized:
		return "NotInitialized"
	default:
		return "Unknown"
	}
}

// Error carries a Kind plus an optional human-readable message, mirroring
// dynamo.SimulationError's context-carrying wrapper but keyed on the
// taxonomy instead of a free-form string.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given kind, unwrapping
// through any number of fmt.Errorf("%w", ...) layers to find it.
func Is(err error, kind Kind) bool {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind == kind
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Context is the owning context of spec §3's lifecycle model: every
// derived object (jacobian.Jacobian, hessian.Hessian, constraint.Surface,
// transport.Metric) that is given one via SetContext, and every
// fragility.Map (which creates its own), records its last failure there,
// the way dynamo.SimulationError carries per-step failure context
// without aborting a run. A nil *Context is a valid no-op recorder, so
// attaching one is opt-in: derived objects behave exactly as before
// when no context is attached.
type Context struct {
	lastErr *Error
}

// NewContext creates a fresh owning context with no recorded error.
func NewContext() *Context {
	return &Context{}
}

// Record stores err (if non-nil) as the context's last error and
// returns it unchanged, so call sites can write `return ctx.Record(err)`.
// Safe to call on a nil *Context (a no-op), so attaching a context to a
// derived object is optional.
func (c *Context) Record(err *Error) *Error {
	if c == nil || err == nil {
		return err
	}
	c.lastErr = err
	return err
}

// LastError returns the most recently recorded error, or nil.
func (c *Context) LastError() *Error {
	if c == nil {
		return nil
	}
	return c.lastErr
}

// ClearError resets the last-error slot, e.g. before starting a fresh
// sweep that should report only its own failures.
func (c *Context) ClearError() {
	if c == nil {
		return
	}
	c.lastErr = nil
}
