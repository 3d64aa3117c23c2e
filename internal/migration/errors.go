package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSteps is returned when a run is requested with an empty sequence.
	ErrNoSteps = errors.New("no migration steps")
	// ErrEmptyStatement is returned by Validate for a blank statement.
	ErrEmptyStatement = errors.New("empty statement")
	// ErrOutOfOrder is returned by Validate when an index is created before
	// the column it covers is added.
	ErrOutOfOrder = errors.New("index step precedes the column it indexes")
	// ErrDangerousStatement is returned by Validate for destructive DDL.
	ErrDangerousStatement = errors.New("dangerous statement")
)

// ErrorKind classifies a driver error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindDuplicate covers duplicate column, duplicate index and duplicate
	// object errors.
	KindDuplicate
	KindConnection
	KindPermission
	KindSyntaxOrConstraint
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindConnection:
		return "connection"
	case KindPermission:
		return "permission"
	case KindSyntaxOrConstraint:
		return "syntax_or_constraint"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// StepError is the fatal error of a run. It wraps the driver error unchanged.
type StepError struct {
	Index int
	Step  Step
	Kind  ErrorKind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed [%s]: %v\nstatement: %s",
		e.Index+1, e.Step.Description, e.Kind, e.Err, e.Step.Statement)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by a *StepError in err's chain, or
// KindUnknown.
func KindOf(err error) ErrorKind {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return KindUnknown
}
