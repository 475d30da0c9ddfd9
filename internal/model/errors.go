package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	ErrUnknownSymbol      ErrorKind = "unknown_symbol"
	ErrAmbiguousSymbol    ErrorKind = "ambiguous_symbol"
	ErrInvalidAddress     ErrorKind = "invalid_address"
	ErrPrecisionLoss      ErrorKind = "precision_loss"
	ErrOverflow           ErrorKind = "overflow"
	ErrNoLiquidity        ErrorKind = "no_liquidity"
	ErrSlippageExceeded   ErrorKind = "slippage_exceeded"
	ErrSimulationReverted ErrorKind = "simulation_reverted"
	ErrInvalidSlippage    ErrorKind = "invalid_slippage"
	ErrTransportFailure   ErrorKind = "transport_failure"
)

// OpStep names the operation step at which a failure occurred.
type OpStep string

const (
	StepResolve  OpStep = "resolution"
	StepConvert  OpStep = "conversion"
	StepProbe    OpStep = "probing"
	StepOverride OpStep = "override-construction"
	StepCall     OpStep = "call"
	StepDecode   OpStep = "decode"
)

// EngineError is the structured error surfaced to callers.
type EngineError struct {
	Kind    ErrorKind
	Step    OpStep
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Step, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Step, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewError builds an EngineError without a cause.
func NewError(kind ErrorKind, step OpStep, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Step: step, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an EngineError around a cause.
func WrapError(kind ErrorKind, step OpStep, cause error, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Step: step, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the ErrorKind from err, defaulting to transport failure
// for unclassified errors.
func KindOf(err error) ErrorKind {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ErrTransportFailure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var engineErr *EngineError
	return errors.As(err, &engineErr) && engineErr.Kind == kind
}
