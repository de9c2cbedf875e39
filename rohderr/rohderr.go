// Package rohderr defines the sentinel error kinds shared across the
// value, signal, module, conditional and simulator packages.
//
// Every kind is surfaced at the point of detection (never swallowed); the
// errors returned by constructors wrap one of the Kind values below so
// callers can compare with errors.Is.
package rohderr

import "fmt"

// Kind identifies one of the error categories from the error handling
// design.
type Kind string

// Construction errors.
const (
	KindInvalidValueConstruction Kind = "InvalidValueConstruction"
	KindWidthMismatch            Kind = "WidthMismatch"
	KindIllegalTopology          Kind = "IllegalTopology"
	KindDuplicateReservedName    Kind = "DuplicateReservedName"
	KindInterfaceNotCloned       Kind = "InterfaceNotCloned"
)

// Simulation errors.
const (
	KindInvalidValueOperation Kind = "InvalidValueOperation"
	KindInvalidTruncation     Kind = "InvalidTruncation"
	KindDivisionByZero        Kind = "DivisionByZero"
	KindCombinationalLoop     Kind = "CombinationalLoop"
	KindEdgeOnInvalid         Kind = "EdgeOnInvalid"
)

// Lifecycle errors.
const (
	KindModuleNotBuilt     Kind = "ModuleNotBuilt"
	KindModuleBuiltTwice   Kind = "ModuleBuiltTwice"
	KindSimulatorReentered Kind = "SimulatorReentered"
)

// Configuration errors.
const (
	KindInvalidMultiplier Kind = "InvalidMultiplier"
	KindInvalidShamt      Kind = "InvalidShamt"
)

// Error is the concrete error type returned throughout the module. It
// carries a stable Kind so callers can test with errors.Is against one of
// the sentinels returned by New, and a human-readable Detail.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is reports whether target is a sentinel of the same Kind, so that
// errors.Is(err, rohderr.Sentinel(KindWidthMismatch)) works regardless of
// Detail text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind with a formatted detail.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Sentinel returns a bare error of the given kind, suitable as the target
// of errors.Is.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
