package appointments

import (
	"fmt"
	"strings"
)

// ValidationError carries every required-field violation at once so the
// caller can fix them in one pass.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid appointment: " + strings.Join(e.Messages, "; ")
}

// ConflictError means the proposed slot overlaps an existing appointment
// for the same professional. Recoverable by picking another slot.
type ConflictError struct {
	Date string
	Time string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s overlaps an existing appointment", e.Date, e.Time)
}

// PersistenceError wraps a store failure. It propagates unchanged; no
// retry happens at this layer.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "appointments " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
