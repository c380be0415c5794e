/*
Package shared holds the building blocks every bounded context relies on:
the aggregate contract, domain events, money, the unit of work port and the
error taxonomy below.

Error taxonomy:
  - ErrNotFound: referenced entity is missing or not owned by the caller. Terminal.
  - ErrBusinessRule: an invariant or business rule rejected the operation. Terminal.
  - ErrConcurrencyConflict: a stale optimistic version was detected on save.
    Retryable by re-running the whole operation from a fresh read.
  - Anything else is an infrastructure failure and travels unchanged.

DomainError captures the call stack when it is created and formats it only
when Stack is called.
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	ErrNotFound            = errors.New("not found")
	ErrBusinessRule        = errors.New("business rule violation")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")

	// ErrNoTransaction is returned when a write is staged or saved without
	// an open unit of work transaction.
	ErrNoTransaction = errors.New("no transaction is open")

	// ErrTransactionAlreadyOpen is returned by BeginTransaction on a unit of
	// work that already owns a transaction.
	ErrTransactionAlreadyOpen = errors.New("transaction already open")
)

// ============================================================================
// DomainError
// ============================================================================

// DomainError carries business context plus the stack of its creation point.
type DomainError struct {
	// Err is the sentinel used with errors.Is.
	Err error

	// Entity names the aggregate involved ("order", "product", ...).
	Entity string

	// Message is the human readable reason.
	Message string

	// Field is set for validation errors.
	Field string

	// cause is the underlying failure. It is logged but never matched by
	// errors.Is, so a wrapped failure keeps the classification of Err.
	cause error

	stack []uintptr
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes only the sentinel.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Cause returns the wrapped failure, if any.
func (e *DomainError) Cause() error {
	return e.cause
}

// Stack formats the captured frames on demand.
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// CaptureStack records the current call stack.
// skip is usually 3: Callers, CaptureStack and the NewXxxError constructor.
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack renders at most ten non-runtime frames.
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// ============================================================================
// Constructors
// ============================================================================

func NewNotFoundError(entity string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: entity + " not found",
		stack:   CaptureStack(3),
	}
}

func NewBusinessRuleError(entity, message string) error {
	return &DomainError{
		Err:     ErrBusinessRule,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// WrapBusinessRule reports cause as a business rule violation. The cause is
// available through Cause and in Error, but errors.Is and errors.As do not
// see it.
func WrapBusinessRule(entity, message string, cause error) error {
	return &DomainError{
		Err:     ErrBusinessRule,
		Entity:  entity,
		Message: message,
		cause:   cause,
		stack:   CaptureStack(3),
	}
}

// NewConcurrencyConflictError reports a stale version on save.
func NewConcurrencyConflictError(entity, id string) error {
	return &DomainError{
		Err:     ErrConcurrencyConflict,
		Entity:  entity,
		Message: fmt.Sprintf("%s %s was updated by someone else, please retry", entity, id),
		stack:   CaptureStack(3),
	}
}

func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

func NewForbiddenError(entity, reason string) error {
	return &DomainError{
		Err:     ErrForbidden,
		Entity:  entity,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// IsRetryable reports whether err is worth re-running from a fresh read.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// Stacker is implemented by errors that can report where they were created.
type Stacker interface {
	Stack() []string
}
